package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"procurement/internal/cache"
	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DispatchDTO carries the optional inputs of a workflow transition. Reason
// is mandatory for reject and send_back; DestinationStage selects the review
// target and must be one of the stages preceding the document's current one.
type DispatchDTO struct {
	Reason           string `json:"reason"`
	DestinationStage string `json:"destination_stage"`
}

type WorkflowActionService interface {
	Dispatch(ctx context.Context, buCode string, id uuid.UUID, actor *model.User, action workflow.Action, req DispatchDTO) (*model.PurchaseRequest, error)
}

type workflowActionService struct {
	prs       repository.PurchaseRequestRepository
	workflows repository.WorkflowRepository
	audit     repository.AuditRepository
	tx        repository.TransactionManager
	docs      *cache.DocumentCache
	notifier  NotificationService
	log       zerolog.Logger
}

func NewWorkflowActionService(
	prs repository.PurchaseRequestRepository,
	workflows repository.WorkflowRepository,
	audit repository.AuditRepository,
	tx repository.TransactionManager,
	docs *cache.DocumentCache,
	notifier NotificationService,
	log zerolog.Logger,
) WorkflowActionService {
	return &workflowActionService{
		prs:       prs,
		workflows: workflows,
		audit:     audit,
		tx:        tx,
		docs:      docs,
		notifier:  notifier,
		log:       log,
	}
}

// auditAction maps a workflow transition to its audit log action code.
var auditAction = map[workflow.Action]string{
	workflow.ActionSubmit:          model.ActionSubmitPR,
	workflow.ActionApprove:         model.ActionApprovePR,
	workflow.ActionPurchaseApprove: model.ActionPurchaseApprovePR,
	workflow.ActionReview:          model.ActionReviewPR,
	workflow.ActionReject:          model.ActionRejectPR,
	workflow.ActionSendBack:        model.ActionSendBackPR,
}

func (s *workflowActionService) Dispatch(ctx context.Context, buCode string, id uuid.UUID, actor *model.User, action workflow.Action, req DispatchDTO) (*model.PurchaseRequest, error) {
	doc, err := s.prs.FindByID(ctx, buCode, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if model.IsTerminalStatus(doc.Status) {
		return nil, ErrLocked
	}

	ledger := workflow.NewLedger(doc.Lines)
	sum := workflow.Summarize(doc.Lines, ledger.OriginalIDs())
	if !workflow.CanDispatch(action, sum, doc.Status, doc.Lines) {
		return nil, fmt.Errorf("%w: %s not available for status %s", ErrInvalidTransition, action, doc.Status)
	}

	switch action {
	case workflow.ActionSubmit, workflow.ActionPurchaseApprove:
		if verrs := workflow.ValidateLines(doc.Lines); len(verrs) > 0 {
			return nil, &ValidationError{Lines: verrs}
		}
	case workflow.ActionReject, workflow.ActionSendBack:
		if req.Reason == "" {
			return nil, &ValidationError{Lines: []workflow.LineValidationError{
				{Field: "reason", Reason: "required for " + string(action)},
			}}
		}
	}

	nextStatus, nextStage, err := s.resolveTransition(ctx, doc, action, req)
	if err != nil {
		return nil, err
	}

	payload, err := s.buildPayload(doc, action, req.Reason)
	if err != nil {
		return nil, err
	}

	stageStatus := action.StageStatus()
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range doc.Lines {
			if doc.Lines[i].ID == uuid.Nil {
				continue
			}
			doc.Lines[i].StagesStatus = workflow.AppendStageEvent(doc.Lines[i].StagesStatus, stageStatus, req.Reason)
			if err := s.prs.SaveLine(txCtx, &doc.Lines[i]); err != nil {
				return fmt.Errorf("failed to record stage event on line %s: %w", doc.Lines[i].ID, err)
			}
		}
		if err := s.prs.UpdateStatus(txCtx, doc.ID, nextStatus, nextStage); err != nil {
			return fmt.Errorf("failed to update document status: %w", err)
		}

		var actorID *uuid.UUID
		actorName := ""
		if actor != nil {
			actorID = &actor.ID
			actorName = actor.Username
		}
		entry := model.WorkflowHistory{
			PurchaseRequestID: doc.ID,
			Action:            string(action),
			ActorID:           actorID,
			ActorName:         actorName,
			FromStage:         doc.CurrentStage,
			ToStage:           nextStage,
		}
		if err := s.prs.AppendHistory(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to append workflow history: %w", err)
		}

		audit := model.AuditLog{
			UserID:     actorID,
			Action:     auditAction[action],
			EntityID:   doc.ID.String(),
			EntityName: doc.PRNo,
			Details:    payload,
		}
		if err := s.audit.Log(txCtx, &audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.docs.Invalidate(ctx, buCode, id); err != nil {
		s.log.Warn().Err(err).Str("pr_no", doc.PRNo).Msg("failed to invalidate document cache")
	}
	s.notifyRequestor(ctx, doc, action, req.Reason)

	reloaded, err := s.prs.FindByID(ctx, buCode, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase request: %w", err)
	}
	return reloaded, nil
}

// resolveTransition computes the target document status and stage label.
// Submit enters the workflow's first stage; review jumps back to the chosen
// earlier stage; send_back steps back exactly one stage.
func (s *workflowActionService) resolveTransition(ctx context.Context, doc *model.PurchaseRequest, action workflow.Action, req DispatchDTO) (string, string, error) {
	switch action {
	case workflow.ActionSubmit:
		if doc.WorkflowID == nil {
			return "", "", fmt.Errorf("%w: submit requires a workflow", ErrInvalidTransition)
		}
		wf, err := s.workflows.FindByID(ctx, *doc.WorkflowID)
		if err != nil {
			return "", "", fmt.Errorf("failed to load workflow: %w", err)
		}
		if len(wf.Stages) == 0 {
			return "", "", fmt.Errorf("%w: workflow %s has no stages", ErrInvalidTransition, wf.Name)
		}
		stages := append([]model.WorkflowStage(nil), wf.Stages...)
		sort.Slice(stages, func(i, j int) bool { return stages[i].SequenceNo < stages[j].SequenceNo })
		return model.PRStatusInProgress, stages[0].Name, nil

	case workflow.ActionApprove:
		return model.PRStatusApproved, doc.CurrentStage, nil

	case workflow.ActionPurchaseApprove:
		return model.PRStatusCompleted, doc.CurrentStage, nil

	case workflow.ActionReject:
		return model.PRStatusRejected, doc.CurrentStage, nil

	case workflow.ActionReview:
		if doc.WorkflowID == nil {
			return "", "", fmt.Errorf("%w: review requires a workflow", ErrInvalidTransition)
		}
		prev, err := s.workflows.PreviousStages(ctx, *doc.WorkflowID, doc.CurrentStage)
		if err != nil {
			return "", "", fmt.Errorf("failed to list previous stages: %w", err)
		}
		for _, st := range prev {
			if st.Name == req.DestinationStage {
				return model.PRStatusInProgress, st.Name, nil
			}
		}
		return "", "", fmt.Errorf("%w: %q is not a previous stage", ErrInvalidTransition, req.DestinationStage)

	case workflow.ActionSendBack:
		if doc.WorkflowID == nil {
			return "", "", fmt.Errorf("%w: send_back requires a workflow", ErrInvalidTransition)
		}
		prev, err := s.workflows.PreviousStages(ctx, *doc.WorkflowID, doc.CurrentStage)
		if err != nil {
			return "", "", fmt.Errorf("failed to list previous stages: %w", err)
		}
		if len(prev) == 0 {
			return "", "", fmt.Errorf("%w: no stage to send back to", ErrInvalidTransition)
		}
		return model.PRStatusInProgress, prev[len(prev)-1].Name, nil
	}
	return "", "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
}

// buildPayload serializes the transition payload for the audit trail.
// Approvals snapshot full line pricing; the remaining transitions record one
// stage entry per line.
func (s *workflowActionService) buildPayload(doc *model.PurchaseRequest, action workflow.Action, reason string) (string, error) {
	var body interface{}
	switch action {
	case workflow.ActionApprove, workflow.ActionPurchaseApprove:
		body = map[string]interface{}{
			"role":  action.Role(),
			"lines": workflow.BuildApprovePayload(doc.Lines),
		}
	default:
		body = map[string]interface{}{
			"role":  action.Role(),
			"lines": workflow.BuildStagePayload(doc.Lines, action.StageStatus(), reason),
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode transition payload: %w", err)
	}
	return string(raw), nil
}

// notifyRequestor informs the document's requestor of decisions that end or
// bounce the approval round. Submit and review produce no notification.
func (s *workflowActionService) notifyRequestor(ctx context.Context, doc *model.PurchaseRequest, action workflow.Action, reason string) {
	if doc.RequestorID == nil || s.notifier == nil {
		return
	}
	link := fmt.Sprintf("/%s/purchase-requests/%s", doc.BuCode, doc.ID)
	switch action {
	case workflow.ActionApprove:
		s.notifier.Notify(ctx, *doc.RequestorID, "Purchase request approved",
			fmt.Sprintf("%s has been approved", doc.PRNo), model.NotifySuccess, link)
	case workflow.ActionPurchaseApprove:
		s.notifier.Notify(ctx, *doc.RequestorID, "Purchase request completed",
			fmt.Sprintf("%s has been purchase-approved", doc.PRNo), model.NotifySuccess, link)
	case workflow.ActionReject:
		s.notifier.Notify(ctx, *doc.RequestorID, "Purchase request rejected",
			fmt.Sprintf("%s was rejected: %s", doc.PRNo, reason), model.NotifyError, link)
	case workflow.ActionSendBack:
		s.notifier.Notify(ctx, *doc.RequestorID, "Purchase request sent back",
			fmt.Sprintf("%s needs changes: %s", doc.PRNo, reason), model.NotifyWarning, link)
	}
}
