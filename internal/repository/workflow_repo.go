package repository

import (
	"context"

	"procurement/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkflowRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Workflow, error)
	ListActive(ctx context.Context, buCode string) ([]model.Workflow, error)
	PreviousStages(ctx context.Context, workflowID uuid.UUID, currentStage string) ([]model.WorkflowStage, error)
}

type workflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Workflow, error) {
	var wf model.Workflow
	err := GetDB(ctx, r.db).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_no ASC") }).
		First(&wf, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

func (r *workflowRepository) ListActive(ctx context.Context, buCode string) ([]model.Workflow, error) {
	var wfs []model.Workflow
	err := GetDB(ctx, r.db).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_no ASC") }).
		Where("bu_code = ? AND is_active = true", buCode).
		Order("name ASC").
		Find(&wfs).Error
	return wfs, err
}

// PreviousStages lists the stages strictly before the named one, the
// candidate destinations for a review action. An unknown current stage
// yields an empty list.
func (r *workflowRepository) PreviousStages(ctx context.Context, workflowID uuid.UUID, currentStage string) ([]model.WorkflowStage, error) {
	var current model.WorkflowStage
	err := GetDB(ctx, r.db).
		First(&current, "workflow_id = ? AND name = ?", workflowID, currentStage).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return []model.WorkflowStage{}, nil
		}
		return nil, err
	}

	var stages []model.WorkflowStage
	err = GetDB(ctx, r.db).
		Where("workflow_id = ? AND sequence_no < ?", workflowID, current.SequenceNo).
		Order("sequence_no ASC").
		Find(&stages).Error
	return stages, err
}
