package database

import (
	"procurement/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Location{},
		&model.Vendor{},
		&model.Pricelist{},
		&model.TaxProfile{},
		&model.Workflow{},
		&model.WorkflowStage{},
		&model.PurchaseRequest{},
		&model.PurchaseRequestLine{},
		&model.WorkflowHistory{},
		&model.AuditLog{},
		&model.Notification{},
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to auto-migrate models")
	}

	return db, nil
}
