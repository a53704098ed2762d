package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workflow is a configurable approval flow assigned to purchase requests.
// Stages are ordered by SequenceNo; a review action sends the document back
// to one of the stages preceding the current one.
type Workflow struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuCode    string          `gorm:"type:varchar(30);not null;index" json:"bu_code"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	Stages    []WorkflowStage `gorm:"foreignKey:WorkflowID" json:"stages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// WorkflowStage is one named approval step, e.g. "Department Head Approval".
type WorkflowStage struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkflowID uuid.UUID `gorm:"type:uuid;not null;index" json:"workflow_id"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	SequenceNo int       `gorm:"type:int;not null" json:"sequence_no"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
