package repository

import (
	"context"
	"fmt"
	"time"

	"procurement/internal/model"
	"procurement/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListPRParams carries pagination, sorting and filtering for the document
// list. Sort columns are whitelisted in the implementation.
type ListPRParams struct {
	Page   int
	Limit  int
	Sort   string
	Order  string // asc or desc
	Search string // matches pr_no, department_name, description
	Status string
}

type PurchaseRequestRepository interface {
	Create(ctx context.Context, pr *model.PurchaseRequest) error
	Save(ctx context.Context, pr *model.PurchaseRequest) error
	FindByID(ctx context.Context, buCode string, id uuid.UUID) (*model.PurchaseRequest, error)
	List(ctx context.Context, buCode string, p ListPRParams) ([]model.PurchaseRequest, int64, error)
	ApplyChanges(ctx context.Context, prID uuid.UUID, cs workflow.ChangeSet) error
	SaveLine(ctx context.Context, line *model.PurchaseRequestLine) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status, currentStage string) error
	AppendHistory(ctx context.Context, entry *model.WorkflowHistory) error
	NextNumber(ctx context.Context) (string, error)
	CountByStatus(ctx context.Context, buCode string) (map[string]int64, error)
}

type purchaseRequestRepository struct {
	db *gorm.DB
}

func NewPurchaseRequestRepository(db *gorm.DB) PurchaseRequestRepository {
	return &purchaseRequestRepository{db: db}
}

func (r *purchaseRequestRepository) Create(ctx context.Context, pr *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Create(pr).Error
}

func (r *purchaseRequestRepository) Save(ctx context.Context, pr *model.PurchaseRequest) error {
	return GetDB(ctx, r.db).Omit("Lines", "History").Save(pr).Error
}

func (r *purchaseRequestRepository) FindByID(ctx context.Context, buCode string, id uuid.UUID) (*model.PurchaseRequest, error) {
	var pr model.PurchaseRequest
	err := GetDB(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_no ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Workflow.Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_no ASC") }).
		Preload("Requestor").
		First(&pr, "id = ? AND bu_code = ?", id, buCode).Error
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

var prSortColumns = map[string]string{
	"pr_no":      "pr_no",
	"pr_date":    "pr_date",
	"status":     "status",
	"department": "department_name",
	"created_at": "created_at",
}

func (r *purchaseRequestRepository) List(ctx context.Context, buCode string, p ListPRParams) ([]model.PurchaseRequest, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseRequest{}).Where("bu_code = ?", buCode)

	if p.Status != "" {
		query = query.Where("status = ?", p.Status)
	}
	if p.Search != "" {
		like := "%" + p.Search + "%"
		query = query.Where("pr_no ILIKE ? OR department_name ILIKE ? OR description ILIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort := prSortColumns[p.Sort]
	if sort == "" {
		sort = "created_at"
	}
	order := "DESC"
	if p.Order == "asc" {
		order = "ASC"
	}

	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}

	var prs []model.PurchaseRequest
	if err := query.
		Preload("Requestor").
		Order(sort + " " + order).
		Offset((p.Page - 1) * p.Limit).
		Limit(p.Limit).
		Find(&prs).Error; err != nil {
		return nil, 0, err
	}
	return prs, total, nil
}

// ApplyChanges persists one three-bucket change set: inserts new lines after
// the current highest sequence number, saves patched clones over their
// originals, and deletes removed lines. Callers run it inside a transaction.
func (r *purchaseRequestRepository) ApplyChanges(ctx context.Context, prID uuid.UUID, cs workflow.ChangeSet) error {
	db := GetDB(ctx, r.db)

	var maxSeq int
	row := db.Model(&model.PurchaseRequestLine{}).
		Where("purchase_request_id = ?", prID).
		Select("COALESCE(MAX(sequence_no), 0)").
		Row()
	if err := row.Scan(&maxSeq); err != nil {
		return fmt.Errorf("failed to read line sequence: %w", err)
	}

	for i := range cs.Add {
		line := cs.Add[i]
		line.ID = uuid.Nil // server assigns the id
		line.PurchaseRequestID = prID
		maxSeq++
		line.SequenceNo = maxSeq
		if err := db.Create(&line).Error; err != nil {
			return fmt.Errorf("failed to insert line: %w", err)
		}
	}
	for i := range cs.Update {
		line := cs.Update[i]
		line.PurchaseRequestID = prID
		if err := db.Save(&line).Error; err != nil {
			return fmt.Errorf("failed to update line %s: %w", line.ID, err)
		}
	}
	if len(cs.Remove) > 0 {
		if err := db.Where("purchase_request_id = ? AND id IN ?", prID, cs.Remove).
			Delete(&model.PurchaseRequestLine{}).Error; err != nil {
			return fmt.Errorf("failed to delete lines: %w", err)
		}
	}
	return nil
}

func (r *purchaseRequestRepository) SaveLine(ctx context.Context, line *model.PurchaseRequestLine) error {
	return GetDB(ctx, r.db).Save(line).Error
}

func (r *purchaseRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, currentStage string) error {
	return GetDB(ctx, r.db).Model(&model.PurchaseRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "current_stage": currentStage}).Error
}

func (r *purchaseRequestRepository) AppendHistory(ctx context.Context, entry *model.WorkflowHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// NextNumber generates a PR-YYYYMMDD-NNNNN document number. An advisory lock
// on the day prefix prevents concurrent duplicates.
func (r *purchaseRequestRepository) NextNumber(ctx context.Context) (string, error) {
	db := GetDB(ctx, r.db)
	prefix := "PR-" + time.Now().Format("20060102") + "-"

	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.PurchaseRequest{}).
		Unscoped().
		Where("pr_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (r *purchaseRequestRepository) CountByStatus(ctx context.Context, buCode string) (map[string]int64, error) {
	type bucket struct {
		Status string
		Count  int64
	}
	var rows []bucket
	if err := GetDB(ctx, r.db).Model(&model.PurchaseRequest{}).
		Select("status, COUNT(*) as count").
		Where("bu_code = ?", buCode).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, b := range rows {
		out[b.Status] = b.Count
	}
	return out, nil
}
