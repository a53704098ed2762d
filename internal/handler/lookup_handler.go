package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/model"
	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LookupHandler serves the reference data the request form's dropdowns need.
type LookupHandler struct {
	lookupService service.LookupService
}

func NewLookupHandler(lookupService service.LookupService) *LookupHandler {
	return &LookupHandler{lookupService: lookupService}
}

func (h *LookupHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleRequestor, model.RoleApprover, model.RolePurchaser)

	lookups := router.Group("/api/business-units/:bu/lookups", anyRole, middleware.RequireBusinessUnit())
	{
		lookups.GET("/products", h.Products)
		lookups.GET("/locations", h.Locations)
		lookups.GET("/vendors", h.Vendors)
		lookups.GET("/vendors/:vendor_id/pricelist", h.VendorPricelist)
		lookups.GET("/tax-profiles", h.TaxProfiles)
		lookups.GET("/workflows", h.Workflows)
		lookups.GET("/workflows/:workflow_id/review-stages", h.ReviewStages)
	}
}

// Products lists products for the line product dropdown
// @Summary      Lookup products
// @Tags         lookups
// @Security     BearerAuth
// @Produce      json
// @Param        bu      path      string  true   "Business unit code"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Param        search  query     string  false  "Search by SKU or name"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/business-units/{bu}/lookups/products [get]
func (h *LookupHandler) Products(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.lookupService.Products(c.Request.Context(), p.Page, p.Limit, p.Search)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, products, total, p.Page, p.Limit))
}

// Locations lists the business unit's active locations
// @Summary      Lookup locations
// @Tags         lookups
// @Security     BearerAuth
// @Produce      json
// @Param        bu   path      string  true  "Business unit code"
// @Success      200  {object}  response.Response{data=[]model.Location}
// @Router       /api/business-units/{bu}/lookups/locations [get]
func (h *LookupHandler) Locations(c *gin.Context) {
	locations, err := h.lookupService.Locations(c.Request.Context(), c.Param("bu"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, locations))
}

// Vendors lists the business unit's active vendors
// @Summary      Lookup vendors
// @Tags         lookups
// @Security     BearerAuth
// @Produce      json
// @Param        bu      path      string  true   "Business unit code"
// @Param        search  query     string  false  "Search by vendor name"
// @Success      200     {object}  response.Response{data=[]model.Vendor}
// @Router       /api/business-units/{bu}/lookups/vendors [get]
func (h *LookupHandler) Vendors(c *gin.Context) {
	vendors, err := h.lookupService.Vendors(c.Request.Context(), c.Param("bu"), c.Query("search"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendors))
}

// VendorPricelist returns the vendor's currently valid quote for one product
// @Summary      Lookup vendor pricelist
// @Tags         lookups
// @Security     BearerAuth
// @Produce      json
// @Param        bu          path      string  true  "Business unit code"
// @Param        vendor_id   path      string  true  "Vendor id"
// @Param        product_id  query     string  true  "Product id"
// @Success      200         {object}  response.Response{data=model.Pricelist}
// @Failure      404         {object}  response.Response
// @Router       /api/business-units/{bu}/lookups/vendors/{vendor_id}/pricelist [get]
func (h *LookupHandler) VendorPricelist(c *gin.Context) {
	vendorID, err := uuid.Parse(c.Param("vendor_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid vendor id"))
		return
	}
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	pl, err := h.lookupService.VendorPricelist(c.Request.Context(), vendorID, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "No active pricelist for this vendor and product"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pl))
}

// TaxProfiles lists the currently valid tax profiles
// @Summary      Lookup tax profiles
// @Tags         lookups
// @Security     BearerAuth
// @Produce      json
// @Param        bu   path      string  true  "Business unit code"
// @Success      200  {object}  response.Response{data=[]model.TaxProfile}
// @Router       /api/business-units/{bu}/lookups/tax-profiles [get]
func (h *LookupHandler) TaxProfiles(c *gin.Context) {
	profiles, err := h.lookupService.TaxProfiles(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, profiles))
}

// Workflows lists the workflows a new document can be assigned to
// @Summary      Lookup workflows
// @Tags         lookups
// @Security     BearerAuth
// @Produce      json
// @Param        bu   path      string  true  "Business unit code"
// @Success      200  {object}  response.Response{data=[]model.Workflow}
// @Router       /api/business-units/{bu}/lookups/workflows [get]
func (h *LookupHandler) Workflows(c *gin.Context) {
	workflows, err := h.lookupService.Workflows(c.Request.Context(), c.Param("bu"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workflows))
}

// ReviewStages lists the stages a review action may send the document to
// @Summary      Lookup review destination stages
// @Tags         lookups
// @Security     BearerAuth
// @Produce      json
// @Param        bu           path      string  true  "Business unit code"
// @Param        workflow_id  path      string  true  "Workflow id"
// @Param        current      query     string  true  "Current stage name"
// @Success      200          {object}  response.Response{data=[]model.WorkflowStage}
// @Router       /api/business-units/{bu}/lookups/workflows/{workflow_id}/review-stages [get]
func (h *LookupHandler) ReviewStages(c *gin.Context) {
	workflowID, err := uuid.Parse(c.Param("workflow_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid workflow id"))
		return
	}
	stages, err := h.lookupService.ReviewStages(c.Request.Context(), workflowID, c.Query("current"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stages))
}
