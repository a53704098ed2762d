package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType enum constants
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notification is a user-facing message produced by workflow transitions.
// Rows are persisted best-effort and mirrored to connected websocket clients.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID *uuid.UUID `gorm:"type:uuid;index" json:"recipient_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Message     string     `gorm:"type:text" json:"message"`
	Type        string     `gorm:"type:varchar(20);not null;default:'info'" json:"type"`
	Link        string     `gorm:"type:varchar(500)" json:"link"` // deep link to the referenced document
	IsRead      bool       `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
