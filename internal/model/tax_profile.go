package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxProfile stores named tax rates with temporal validity. Selecting a
// profile on a line seeds its tax_rate; the line keeps its own copy so
// later profile edits do not rewrite history.
type TaxProfile struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(100);not null;index" json:"name"`
	Rate          decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"` // percentage, e.g. 7 = 7%
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"`
	EffectiveTo   *time.Time      `gorm:"type:date;index" json:"effective_to"` // nullable = currently active
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
