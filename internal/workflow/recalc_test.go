package workflow

import (
	"testing"

	"procurement/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecalculateRateDriven(t *testing.T) {
	tests := []struct {
		name      string
		qty       float64
		price     float64
		discount  float64
		tax       float64
		wantTotal float64
	}{
		{"plain", 10, 4, 0, 0, 40},
		{"discount only", 10, 4, 10, 0, 36},
		{"tax only", 10, 4, 0, 7, 42.8},
		{"both", 10, 4, 10, 7, 38.52},
		{"zero qty", 0, 4, 10, 7, 0},
		{"zero price", 10, 0, 10, 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ln := model.PurchaseRequestLine{
				RequestedQty: decimal.NewFromFloat(tt.qty),
				Price:        decimal.NewFromFloat(tt.price),
				DiscountRate: decimal.NewFromFloat(tt.discount),
				TaxRate:      decimal.NewFromFloat(tt.tax),
			}
			Recalculate(&ln)

			// total = qty*price*(1-d/100)*(1+t/100)
			assert.InDelta(t, tt.wantTotal, ln.TotalPrice.InexactFloat64(), 1e-9)
			assert.False(t, ln.NetAmount.IsNegative())

			// Base mirrors are value-identical without currency conversion.
			assert.True(t, ln.BaseSubTotalPrice.Equal(ln.SubTotalPrice))
			assert.True(t, ln.BaseDiscountAmount.Equal(ln.DiscountAmount))
			assert.True(t, ln.BaseNetAmount.Equal(ln.NetAmount))
			assert.True(t, ln.BaseTaxAmount.Equal(ln.TaxAmount))
			assert.True(t, ln.BaseTotalPrice.Equal(ln.TotalPrice))
		})
	}
}

func TestRecalculateNetClampedAtZero(t *testing.T) {
	ln := model.PurchaseRequestLine{
		RequestedQty: decimal.NewFromInt(2),
		Price:        decimal.NewFromInt(10),
		DiscountRate: decimal.NewFromInt(150), // discount larger than subtotal
		TaxRate:      decimal.NewFromInt(7),
	}
	Recalculate(&ln)

	assert.True(t, ln.NetAmount.IsZero(), "net is floor-clamped at zero")
	assert.True(t, ln.TaxAmount.IsZero(), "tax computed over the clamped net")
	assert.True(t, ln.TotalPrice.IsZero())
	// The discount amount itself still reflects the rate input.
	assert.True(t, ln.DiscountAmount.Equal(decimal.NewFromInt(30)))
}

func TestRecalculateApprovedQtyPrecedence(t *testing.T) {
	ln := model.PurchaseRequestLine{
		RequestedQty: decimal.NewFromInt(10),
		ApprovedQty:  decimal.NewFromInt(6),
		Price:        decimal.NewFromInt(5),
	}
	Recalculate(&ln)
	assert.True(t, ln.SubTotalPrice.Equal(decimal.NewFromInt(30)), "approved qty prices the line once set")

	ln.ApprovedQty = decimal.Zero
	Recalculate(&ln)
	assert.True(t, ln.SubTotalPrice.Equal(decimal.NewFromInt(50)), "falls back to requested qty")
}

func TestRecalculateAmountDrivenDiscount(t *testing.T) {
	ln := model.PurchaseRequestLine{
		RequestedQty:         decimal.NewFromInt(10),
		Price:                decimal.NewFromInt(4),
		IsDiscountAdjustment: true,
		DiscountAmount:       decimal.NewFromInt(4),
	}
	Recalculate(&ln)
	assert.InDelta(t, 10, ln.DiscountRate.InexactFloat64(), 1e-9, "rate derived from amount")
	assert.InDelta(t, 36, ln.NetAmount.InexactFloat64(), 1e-9)
}

func TestRecalculateModeDualityRoundTrip(t *testing.T) {
	ln := model.PurchaseRequestLine{
		RequestedQty: decimal.NewFromInt(7),
		Price:        decimal.NewFromFloat(3.5),
		DiscountRate: decimal.NewFromFloat(12.5),
	}
	Recalculate(&ln)
	wantRate := ln.DiscountRate

	// rate-mode -> amount-mode -> rate-mode reproduces the original rate.
	ln.IsDiscountAdjustment = true
	Recalculate(&ln)
	ln.IsDiscountAdjustment = false
	Recalculate(&ln)
	assert.InDelta(t, wantRate.InexactFloat64(), ln.DiscountRate.InexactFloat64(), 1e-9)
}

func TestRecalculateDivisionGuards(t *testing.T) {
	// Amount-driven modes at zero subtotal/net must not divide.
	ln := model.PurchaseRequestLine{
		IsDiscountAdjustment: true,
		DiscountAmount:       decimal.NewFromInt(5),
		IsTaxAdjustment:      true,
		TaxAmount:            decimal.NewFromInt(5),
	}
	require.NotPanics(t, func() { Recalculate(&ln) })
	assert.True(t, ln.DiscountRate.IsZero(), "rate collapses to 0 at zero subtotal")
	assert.True(t, ln.TaxRate.IsZero(), "rate collapses to 0 at zero net")
}
