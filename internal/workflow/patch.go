package workflow

import (
	"time"

	"procurement/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinePatch is a bundle of field writes applied to a line as one logical
// update. Dependent assignments (product selection resetting vendor and
// price, pricelist selection seeding the price) are expressed as single
// builder calls so a commit is never partial.
type LinePatch struct {
	ops   []func(*model.PurchaseRequestLine)
	money bool
}

// NewLinePatch returns an empty patch.
func NewLinePatch() *LinePatch {
	return &LinePatch{}
}

// Empty reports whether the patch carries no field writes.
func (p *LinePatch) Empty() bool {
	return len(p.ops) == 0
}

func (p *LinePatch) set(fn func(*model.PurchaseRequestLine)) *LinePatch {
	p.ops = append(p.ops, fn)
	return p
}

func (p *LinePatch) setMoney(fn func(*model.PurchaseRequestLine)) *LinePatch {
	p.money = true
	return p.set(fn)
}

func (p *LinePatch) apply(l *model.PurchaseRequestLine) {
	for _, fn := range p.ops {
		fn(l)
	}
}

// WithLocation sets the requesting location.
func (p *LinePatch) WithLocation(id uuid.UUID, name string) *LinePatch {
	return p.set(func(l *model.PurchaseRequestLine) {
		l.LocationID = &id
		l.LocationName = name
	})
}

// WithProduct selects a product and autofills its unit, resetting the
// vendor, pricelist and price which no longer apply to the new product.
func (p *LinePatch) WithProduct(id uuid.UUID, name string, unitID *uuid.UUID, unitName string, conv decimal.Decimal) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) {
		l.ProductID = &id
		l.ProductName = name
		l.RequestedUnitID = unitID
		l.RequestedUnitName = unitName
		if conv.IsPositive() {
			l.RequestedUnitConv = conv
		} else {
			l.RequestedUnitConv = decimal.NewFromInt(1)
		}
		l.VendorID = nil
		l.VendorName = ""
		l.PricelistID = nil
		l.PricelistPrice = decimal.Zero
		l.Price = decimal.Zero
	})
}

// WithRequestedQty sets the requested quantity.
func (p *LinePatch) WithRequestedQty(qty decimal.Decimal) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) { l.RequestedQty = qty })
}

// WithApprovedQty sets the approved quantity, which takes precedence over
// the requested quantity for pricing once positive.
func (p *LinePatch) WithApprovedQty(qty decimal.Decimal, unitID *uuid.UUID, unitName string) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) {
		l.ApprovedQty = qty
		if unitID != nil {
			l.ApprovedUnitID = unitID
			l.ApprovedUnitName = unitName
		}
	})
}

// WithFocQty sets the free-of-charge quantity.
func (p *LinePatch) WithFocQty(qty decimal.Decimal, unitID *uuid.UUID, unitName string) *LinePatch {
	return p.set(func(l *model.PurchaseRequestLine) {
		l.FocQty = qty
		if unitID != nil {
			l.FocUnitID = unitID
			l.FocUnitName = unitName
		}
	})
}

// WithVendor sets the sourcing vendor.
func (p *LinePatch) WithVendor(id uuid.UUID, name string) *LinePatch {
	return p.set(func(l *model.PurchaseRequestLine) {
		l.VendorID = &id
		l.VendorName = name
	})
}

// WithPricelist selects a vendor pricelist entry and seeds the line price
// from it.
func (p *LinePatch) WithPricelist(id uuid.UUID, price decimal.Decimal, currency string) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) {
		l.PricelistID = &id
		l.PricelistPrice = price
		l.Price = price
		if currency != "" {
			l.Currency = currency
		}
	})
}

// WithPrice overrides the unit price.
func (p *LinePatch) WithPrice(price decimal.Decimal) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) { l.Price = price })
}

// WithDiscountRate sets the discount rate input.
func (p *LinePatch) WithDiscountRate(rate decimal.Decimal) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) { l.DiscountRate = rate })
}

// WithDiscountAmount sets the discount amount input.
func (p *LinePatch) WithDiscountAmount(amount decimal.Decimal) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) { l.DiscountAmount = amount })
}

// WithDiscountAdjustment toggles which of rate/amount is the authoritative
// discount input.
func (p *LinePatch) WithDiscountAdjustment(amountDriven bool) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) { l.IsDiscountAdjustment = amountDriven })
}

// WithTaxRate sets the tax rate input.
func (p *LinePatch) WithTaxRate(rate decimal.Decimal) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) { l.TaxRate = rate })
}

// WithTaxAmount sets the tax amount input.
func (p *LinePatch) WithTaxAmount(amount decimal.Decimal) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) { l.TaxAmount = amount })
}

// WithTaxAdjustment toggles which of rate/amount is the authoritative tax
// input.
func (p *LinePatch) WithTaxAdjustment(amountDriven bool) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) { l.IsTaxAdjustment = amountDriven })
}

// WithTaxProfile selects a tax profile and seeds the line's tax rate from it.
func (p *LinePatch) WithTaxProfile(id uuid.UUID, name string, rate decimal.Decimal) *LinePatch {
	return p.setMoney(func(l *model.PurchaseRequestLine) {
		l.TaxProfileID = &id
		l.TaxProfileName = name
		l.TaxRate = rate
	})
}

// WithDeliveryDate sets the requested delivery date.
func (p *LinePatch) WithDeliveryDate(d time.Time) *LinePatch {
	return p.set(func(l *model.PurchaseRequestLine) { l.DeliveryDate = &d })
}

// WithDeliveryPoint sets the delivery point.
func (p *LinePatch) WithDeliveryPoint(id uuid.UUID, name string) *LinePatch {
	return p.set(func(l *model.PurchaseRequestLine) {
		l.DeliveryPointID = &id
		l.DeliveryPointName = name
	})
}

// WithComment sets the line comment.
func (p *LinePatch) WithComment(comment string) *LinePatch {
	return p.set(func(l *model.PurchaseRequestLine) { l.Comment = comment })
}

// QtyValue coerces an optional numeric input to a quantity: absent values
// read as zero.
func QtyValue(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}
