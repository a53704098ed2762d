package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/service"
	"procurement/internal/workflow"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PurchaseRequestHandler struct {
	prService     service.PurchaseRequestService
	actionService service.WorkflowActionService
	authService   service.AuthService
}

func NewPurchaseRequestHandler(
	prService service.PurchaseRequestService,
	actionService service.WorkflowActionService,
	authService service.AuthService,
) *PurchaseRequestHandler {
	return &PurchaseRequestHandler{
		prService:     prService,
		actionService: actionService,
		authService:   authService,
	}
}

func (h *PurchaseRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleRequestor, model.RoleApprover, model.RolePurchaser)
	editors := middleware.RequireRole(model.RoleAdmin, model.RoleRequestor)
	deciders := middleware.RequireRole(model.RoleAdmin, model.RoleApprover, model.RolePurchaser)

	pr := router.Group("/api/business-units/:bu/purchase-requests")
	{
		pr.GET("", anyRole, middleware.RequireBusinessUnit(), h.List)
		pr.POST("", editors, middleware.RequireBusinessUnit(), h.Create)
		pr.GET("/:id", anyRole, middleware.RequireBusinessUnit(), h.Get)
		pr.PUT("/:id", editors, middleware.RequireBusinessUnit(), h.Save)
		pr.GET("/:id/actions", anyRole, middleware.RequireBusinessUnit(), h.Actions)
		pr.POST("/:id/actions/:action", deciders, middleware.RequireBusinessUnit(), h.Dispatch)
		pr.PATCH("/:id/lines/status", deciders, middleware.RequireBusinessUnit(), h.BulkLineStatus)
	}
	// Submit is how a requestor hands their own draft to the workflow, so it
	// bypasses the decider role gate.
	router.POST("/api/business-units/:bu/purchase-requests/:id/submit", editors, middleware.RequireBusinessUnit(), h.Submit)
	// Registered outside the group: a "dashboard" segment under
	// /purchase-requests would collide with the :id wildcard.
	router.GET("/api/business-units/:bu/dashboard", anyRole, middleware.RequireBusinessUnit(), h.Dashboard)
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid user identity"))
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid document id"))
		return uuid.Nil, false
	}
	return id, true
}

// Create handles new purchase request creation
// @Summary      Create purchase request
// @Description  Creates a draft purchase request with its initial lines
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bu       path      string             true  "Business unit code"
// @Param        payload  body      service.SavePRDTO  true  "Document payload"
// @Success      201      {object}  response.Response{data=model.PurchaseRequest}
// @Failure      422      {object}  response.Response
// @Router       /api/business-units/{bu}/purchase-requests [post]
func (h *PurchaseRequestHandler) Create(c *gin.Context) {
	var req service.SavePRDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	doc, err := h.prService.Create(c.Request.Context(), c.Param("bu"), userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// Save handles edits to an existing purchase request
// @Summary      Save purchase request
// @Description  Applies header changes and the add/update/remove line buckets
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bu       path      string             true  "Business unit code"
// @Param        id       path      string             true  "Document id"
// @Param        payload  body      service.SavePRDTO  true  "Document payload"
// @Success      200      {object}  response.Response{data=model.PurchaseRequest}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/business-units/{bu}/purchase-requests/{id} [put]
func (h *PurchaseRequestHandler) Save(c *gin.Context) {
	var req service.SavePRDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	doc, err := h.prService.Save(c.Request.Context(), c.Param("bu"), id, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Get returns one purchase request with lines and workflow history
// @Summary      Get purchase request
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        bu   path      string  true  "Business unit code"
// @Param        id   path      string  true  "Document id"
// @Success      200  {object}  response.Response{data=model.PurchaseRequest}
// @Failure      404  {object}  response.Response
// @Router       /api/business-units/{bu}/purchase-requests/{id} [get]
func (h *PurchaseRequestHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, err := h.prService.Get(c.Request.Context(), c.Param("bu"), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// List returns a paginated purchase request register
// @Summary      List purchase requests
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        bu      path      string  true   "Business unit code"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        search  query     string  false  "Search by document number or description"
// @Param        status  query     string  false  "Filter by document status"
// @Param        sort    query     string  false  "Sort column"
// @Param        order   query     string  false  "asc or desc"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/business-units/{bu}/purchase-requests [get]
func (h *PurchaseRequestHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	docs, total, err := h.prService.List(c.Request.Context(), c.Param("bu"), repository.ListPRParams{
		Page:   p.Page,
		Limit:  p.Limit,
		Sort:   p.Sort,
		Order:  p.Order,
		Search: p.Search,
		Status: c.Query("status"),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, docs, total, p.Page, p.Limit))
}

// Actions returns the status summary and eligible workflow actions
// @Summary      Get document actions
// @Description  Computes the line-status summary and which workflow buttons apply
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        bu   path      string  true  "Business unit code"
// @Param        id   path      string  true  "Document id"
// @Success      200  {object}  response.Response{data=service.ActionsResponse}
// @Router       /api/business-units/{bu}/purchase-requests/{id}/actions [get]
func (h *PurchaseRequestHandler) Actions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.prService.Actions(c.Request.Context(), c.Param("bu"), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}

// Dispatch applies one workflow transition to the document
// @Summary      Dispatch workflow action
// @Description  Applies approve, purchase_approve, review, reject or send_back
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bu       path      string               true  "Business unit code"
// @Param        id       path      string               true  "Document id"
// @Param        action   path      string               true  "Action name"
// @Param        payload  body      service.DispatchDTO  false "Reason / destination stage"
// @Success      200      {object}  response.Response{data=model.PurchaseRequest}
// @Failure      422      {object}  response.Response
// @Router       /api/business-units/{bu}/purchase-requests/{id}/actions/{action} [post]
func (h *PurchaseRequestHandler) Dispatch(c *gin.Context) {
	h.dispatch(c, workflow.Action(c.Param("action")))
}

// Submit hands a draft document to its workflow
// @Summary      Submit purchase request
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        bu   path      string  true  "Business unit code"
// @Param        id   path      string  true  "Document id"
// @Success      200  {object}  response.Response{data=model.PurchaseRequest}
// @Failure      422  {object}  response.Response
// @Router       /api/business-units/{bu}/purchase-requests/{id}/submit [post]
func (h *PurchaseRequestHandler) Submit(c *gin.Context) {
	h.dispatch(c, workflow.ActionSubmit)
}

func (h *PurchaseRequestHandler) dispatch(c *gin.Context, action workflow.Action) {
	switch action {
	case workflow.ActionSubmit, workflow.ActionApprove, workflow.ActionPurchaseApprove,
		workflow.ActionReview, workflow.ActionReject, workflow.ActionSendBack:
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unknown action"))
		return
	}

	var req service.DispatchDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	actor, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unknown user"))
		return
	}

	doc, err := h.actionService.Dispatch(c.Request.Context(), c.Param("bu"), id, actor, action, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// BulkLineStatus applies one approval decision to a set of lines
// @Summary      Bulk line status
// @Description  Appends an approved/review/rejected event to the selected lines
// @Tags         purchase-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bu       path      string                     true  "Business unit code"
// @Param        id       path      string                     true  "Document id"
// @Param        payload  body      service.BulkLineStatusDTO  true  "Decision payload"
// @Success      200      {object}  response.Response{data=model.PurchaseRequest}
// @Failure      422      {object}  response.Response
// @Router       /api/business-units/{bu}/purchase-requests/{id}/lines/status [patch]
func (h *PurchaseRequestHandler) BulkLineStatus(c *gin.Context) {
	var req service.BulkLineStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	doc, err := h.prService.ApplyBulkLineStatus(c.Request.Context(), c.Param("bu"), id, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Dashboard returns document counts grouped by status
// @Summary      Purchase request dashboard
// @Tags         purchase-requests
// @Security     BearerAuth
// @Produce      json
// @Param        bu   path      string  true  "Business unit code"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/business-units/{bu}/dashboard [get]
func (h *PurchaseRequestHandler) Dashboard(c *gin.Context) {
	counts, err := h.prService.CountByStatus(c.Request.Context(), c.Param("bu"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, counts))
}
