package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Document status constants for the purchase request lifecycle.
// draft -> submit -> in_progress -> approved/rejected/completed.
// voided and approved are terminal with respect to workflow actions.
const (
	PRStatusDraft      = "draft"
	PRStatusSubmit     = "submit"
	PRStatusInProgress = "in_progress"
	PRStatusApproved   = "approved"
	PRStatusRejected   = "rejected"
	PRStatusCompleted  = "completed"
	PRStatusVoided     = "voided"
)

// Per-line stage status constants. A line starts as pending and accumulates
// approval events as the document moves through workflow stages.
const (
	StagePending  = "pending"
	StageApproved = "approved"
	StageReview   = "review"
	StageRejected = "rejected"
	StageSubmit   = "submit"
	StageSendBack = "send_back"
)

// IsTerminalStatus reports whether workflow action buttons are disabled for
// the given document status.
func IsTerminalStatus(status string) bool {
	switch status {
	case PRStatusApproved, PRStatusRejected, PRStatusCompleted, PRStatusVoided:
		return true
	}
	return false
}

// StageEvent is one entry in a line's append-only approval history.
type StageEvent struct {
	Seq     int    `json:"seq"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StageHistory is the ordered approval history of a single line, persisted
// as a jsonb column. New events are appended, never edited in place.
type StageHistory []StageEvent

// UnmarshalJSON tolerates the legacy bare-string form of stages_status by
// treating anything that is not an array as an empty history (the line then
// reads as pending).
func (h *StageHistory) UnmarshalJSON(data []byte) error {
	var events []StageEvent
	if err := json.Unmarshal(data, &events); err != nil {
		*h = nil
		return nil
	}
	*h = events
	return nil
}

// Value implements driver.Valuer for the jsonb column.
func (h StageHistory) Value() (driver.Value, error) {
	if h == nil {
		h = StageHistory{}
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner for the jsonb column.
func (h *StageHistory) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return h.UnmarshalJSON(v)
	case string:
		return h.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported stage history type %T", value)
	}
}

// PurchaseRequest is the document header. Lines carry the monetary detail;
// History records every workflow transition applied to the document.
type PurchaseRequest struct {
	ID             uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PRNo           string                `gorm:"type:varchar(30);uniqueIndex;not null" json:"pr_no"`
	BuCode         string                `gorm:"type:varchar(30);not null;index" json:"bu_code"`
	Status         string                `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	WorkflowID     *uuid.UUID            `gorm:"type:uuid;index" json:"workflow_id"`
	Workflow       *Workflow             `gorm:"foreignKey:WorkflowID" json:"workflow,omitempty"`
	CurrentStage   string                `gorm:"type:varchar(100)" json:"current_stage"`
	DepartmentID   *uuid.UUID            `gorm:"type:uuid;index" json:"department_id"`
	DepartmentName string                `gorm:"type:varchar(255)" json:"department_name"`
	RequestorID    *uuid.UUID            `gorm:"type:uuid;index" json:"requestor_id"`
	Requestor      *User                 `gorm:"foreignKey:RequestorID" json:"requestor,omitempty"`
	PRDate         time.Time             `gorm:"type:date;not null" json:"pr_date"`
	Description    string                `gorm:"type:text" json:"description"`
	Note           string                `gorm:"type:text" json:"note"`
	Lines          []PurchaseRequestLine `gorm:"foreignKey:PurchaseRequestID" json:"lines"`
	History        []WorkflowHistory     `gorm:"foreignKey:PurchaseRequestID" json:"workflow_history"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	DeletedAt      gorm.DeletedAt        `gorm:"index" json:"-"`
}

// PurchaseRequestLine is one requested product entry. Discount and tax each
// have a rate and an amount; the IsDiscountAdjustment / IsTaxAdjustment flags
// select which of the pair is the authoritative input, the other is derived.
// Base* columns mirror their nominal counterpart in base currency; without a
// currency-conversion feature they hold identical values.
type PurchaseRequestLine struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID  `gorm:"type:uuid;not null;index" json:"purchase_request_id"`
	LocalID           string     `gorm:"-" json:"local_id,omitempty"` // client-generated key for not-yet-persisted lines
	SequenceNo        int        `gorm:"type:int;not null;default:0" json:"sequence_no"`
	LocationID        *uuid.UUID `gorm:"type:uuid;index" json:"location_id"`
	LocationName      string     `gorm:"type:varchar(255)" json:"location_name"`
	ProductID         *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	ProductName       string     `gorm:"type:varchar(255)" json:"product_name"`

	RequestedQty      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"requested_qty"`
	RequestedUnitID   *uuid.UUID      `gorm:"type:uuid" json:"requested_unit_id"`
	RequestedUnitName string          `gorm:"type:varchar(50)" json:"requested_unit_name"`
	RequestedUnitConv decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1" json:"requested_unit_conversion"`
	ApprovedQty       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"approved_qty"`
	ApprovedUnitID    *uuid.UUID      `gorm:"type:uuid" json:"approved_unit_id"`
	ApprovedUnitName  string          `gorm:"type:varchar(50)" json:"approved_unit_name"`
	FocQty            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"foc_qty"`
	FocUnitID         *uuid.UUID      `gorm:"type:uuid" json:"foc_unit_id"`
	FocUnitName       string          `gorm:"type:varchar(50)" json:"foc_unit_name"`

	VendorID       *uuid.UUID      `gorm:"type:uuid;index" json:"vendor_id"`
	VendorName     string          `gorm:"type:varchar(255)" json:"vendor_name"`
	PricelistID    *uuid.UUID      `gorm:"type:uuid" json:"pricelist_id"`
	PricelistPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"pricelist_price"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`

	DiscountRate         decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"discount_rate"`
	DiscountAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	IsDiscountAdjustment bool            `gorm:"not null;default:false" json:"is_discount_adjustment"`
	TaxRate              decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_rate"`
	TaxAmount            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	IsTaxAdjustment      bool            `gorm:"not null;default:false" json:"is_tax_adjustment"`
	TaxProfileID         *uuid.UUID      `gorm:"type:uuid" json:"tax_profile_id"`
	TaxProfileName       string          `gorm:"type:varchar(100)" json:"tax_profile_name"`

	SubTotalPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"sub_total_price"`
	NetAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"net_amount"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_price"`
	BaseSubTotalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_sub_total_price"`
	BaseDiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_discount_amount"`
	BaseNetAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_net_amount"`
	BaseTaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_tax_amount"`
	BaseTotalPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_total_price"`

	DeliveryDate      *time.Time   `gorm:"type:date" json:"delivery_date"`
	DeliveryPointID   *uuid.UUID   `gorm:"type:uuid" json:"delivery_point_id"`
	DeliveryPointName string       `gorm:"type:varchar(255)" json:"delivery_point_name"`
	Comment           string       `gorm:"type:text" json:"comment"`
	StagesStatus      StageHistory `gorm:"type:jsonb" json:"stages_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowHistory records one workflow transition applied to a document.
type WorkflowHistory struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseRequestID uuid.UUID  `gorm:"type:uuid;not null;index" json:"purchase_request_id"`
	Action            string     `gorm:"type:varchar(30);not null" json:"action"`
	ActorID           *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	ActorName         string     `gorm:"type:varchar(255)" json:"actor_name"`
	FromStage         string     `gorm:"type:varchar(100)" json:"from_stage"`
	ToStage           string     `gorm:"type:varchar(100)" json:"to_stage"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
}
