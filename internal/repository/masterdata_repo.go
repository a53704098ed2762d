package repository

import (
	"context"
	"time"

	"procurement/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Product{}).Where("is_active = true")
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("sku ILIKE ? OR name ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	if err := query.Order("name ASC").Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	List(ctx context.Context, buCode string) ([]model.Location, error)
}

type locationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var loc model.Location
	if err := GetDB(ctx, r.db).First(&loc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepository) List(ctx context.Context, buCode string) ([]model.Location, error) {
	var locs []model.Location
	err := GetDB(ctx, r.db).
		Where("bu_code = ? AND is_active = true", buCode).
		Order("name ASC").
		Find(&locs).Error
	return locs, err
}

type VendorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	List(ctx context.Context, buCode string, search string) ([]model.Vendor, error)
	FindActivePricelist(ctx context.Context, vendorID, productID uuid.UUID, at time.Time) (*model.Pricelist, error)
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := GetDB(ctx, r.db).Preload("Pricelists").First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepository) List(ctx context.Context, buCode string, search string) ([]model.Vendor, error) {
	db := GetDB(ctx, r.db)
	query := db.Where("bu_code = ? AND is_active = true", buCode)
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	var vendors []model.Vendor
	err := query.Order("name ASC").Find(&vendors).Error
	return vendors, err
}

// FindActivePricelist returns the vendor's currently valid quote for one
// product, newest effective date first.
func (r *vendorRepository) FindActivePricelist(ctx context.Context, vendorID, productID uuid.UUID, at time.Time) (*model.Pricelist, error) {
	var pl model.Pricelist
	err := GetDB(ctx, r.db).
		Where("vendor_id = ? AND product_id = ? AND effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)",
			vendorID, productID, at, at).
		Order("effective_from DESC").
		First(&pl).Error
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

type TaxProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxProfile, error)
	ListActive(ctx context.Context, at time.Time) ([]model.TaxProfile, error)
}

type taxProfileRepository struct {
	db *gorm.DB
}

func NewTaxProfileRepository(db *gorm.DB) TaxProfileRepository {
	return &taxProfileRepository{db: db}
}

func (r *taxProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxProfile, error) {
	var profile model.TaxProfile
	if err := GetDB(ctx, r.db).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *taxProfileRepository) ListActive(ctx context.Context, at time.Time) ([]model.TaxProfile, error) {
	var profiles []model.TaxProfile
	err := GetDB(ctx, r.db).
		Where("effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", at, at).
		Order("name ASC").
		Find(&profiles).Error
	return profiles, err
}
