package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationType enum constants
const (
	LocationTypeInventory = "INVENTORY"
	LocationTypeDirect    = "DIRECT"
)

// Product is the product-master record lines reference. Order/ingredient
// unit maintenance forms live elsewhere; lines only need the inventory unit
// and its conversion factor.
type Product struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU           string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	InventoryUnit string         `gorm:"type:varchar(50);not null;default:'pcs'" json:"inventory_unit"`
	UnitID        *uuid.UUID     `gorm:"type:uuid" json:"unit_id"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Location is a store location or delivery point lines are requested for
type Location struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuCode    string         `gorm:"type:varchar(30);not null;index" json:"bu_code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Type      string         `gorm:"type:varchar(20);not null;default:'INVENTORY'" json:"type"` // INVENTORY, DIRECT
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
