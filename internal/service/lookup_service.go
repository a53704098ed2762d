package service

import (
	"context"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"

	"github.com/google/uuid"
)

// LookupService serves the reference-data dropdowns of the request form:
// products, locations, vendors with their active pricelists, tax profiles
// and the workflows a new document can be assigned to.
type LookupService interface {
	Products(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	Locations(ctx context.Context, buCode string) ([]model.Location, error)
	Vendors(ctx context.Context, buCode, search string) ([]model.Vendor, error)
	VendorPricelist(ctx context.Context, vendorID, productID uuid.UUID) (*model.Pricelist, error)
	TaxProfiles(ctx context.Context) ([]model.TaxProfile, error)
	Workflows(ctx context.Context, buCode string) ([]model.Workflow, error)
	ReviewStages(ctx context.Context, workflowID uuid.UUID, currentStage string) ([]model.WorkflowStage, error)
}

type lookupService struct {
	products  repository.ProductRepository
	locations repository.LocationRepository
	vendors   repository.VendorRepository
	taxes     repository.TaxProfileRepository
	workflows repository.WorkflowRepository
}

func NewLookupService(
	products repository.ProductRepository,
	locations repository.LocationRepository,
	vendors repository.VendorRepository,
	taxes repository.TaxProfileRepository,
	workflows repository.WorkflowRepository,
) LookupService {
	return &lookupService{
		products:  products,
		locations: locations,
		vendors:   vendors,
		taxes:     taxes,
		workflows: workflows,
	}
}

func (s *lookupService) Products(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.products.List(ctx, page, limit, search)
}

func (s *lookupService) Locations(ctx context.Context, buCode string) ([]model.Location, error) {
	return s.locations.List(ctx, buCode)
}

func (s *lookupService) Vendors(ctx context.Context, buCode, search string) ([]model.Vendor, error) {
	return s.vendors.List(ctx, buCode, search)
}

func (s *lookupService) VendorPricelist(ctx context.Context, vendorID, productID uuid.UUID) (*model.Pricelist, error) {
	return s.vendors.FindActivePricelist(ctx, vendorID, productID, time.Now())
}

func (s *lookupService) TaxProfiles(ctx context.Context) ([]model.TaxProfile, error) {
	return s.taxes.ListActive(ctx, time.Now())
}

func (s *lookupService) Workflows(ctx context.Context, buCode string) ([]model.Workflow, error) {
	return s.workflows.ListActive(ctx, buCode)
}

// ReviewStages lists the stages a review action may target: every stage
// strictly before the document's current one.
func (s *lookupService) ReviewStages(ctx context.Context, workflowID uuid.UUID, currentStage string) ([]model.WorkflowStage, error) {
	return s.workflows.PreviousStages(ctx, workflowID, currentStage)
}
