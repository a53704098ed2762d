package workflow

import (
	"procurement/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Recalculate derives the monetary fields of a line in fixed order:
//
//  1. qty: the approved quantity takes precedence over the requested one for
//     pricing once set.
//  2. subtotal = qty * price
//  3. discount: amount-driven derives the rate, rate-driven derives the
//     amount (guarded at subtotal = 0).
//  4. net = max(0, subtotal - discount); a discount can never invert the
//     line into a negative.
//  5. tax: same duality as discount, computed over net.
//  6. total = net + tax
//
// Nominal and base-currency fields are written together; without an
// exchange-rate feature the base mirrors hold identical values.
func Recalculate(l *model.PurchaseRequestLine) {
	qty := l.RequestedQty
	if l.ApprovedQty.IsPositive() {
		qty = l.ApprovedQty
	}
	subtotal := qty.Mul(l.Price)

	if l.IsDiscountAdjustment {
		if subtotal.IsPositive() {
			l.DiscountRate = l.DiscountAmount.Mul(hundred).Div(subtotal)
		} else {
			l.DiscountRate = decimal.Zero
		}
	} else {
		l.DiscountAmount = subtotal.Mul(l.DiscountRate).Div(hundred)
	}

	net := subtotal.Sub(l.DiscountAmount)
	if net.IsNegative() {
		net = decimal.Zero
	}

	if l.IsTaxAdjustment {
		if net.IsPositive() {
			l.TaxRate = l.TaxAmount.Mul(hundred).Div(net)
		} else {
			l.TaxRate = decimal.Zero
		}
	} else {
		l.TaxAmount = net.Mul(l.TaxRate).Div(hundred)
	}

	total := net.Add(l.TaxAmount)

	l.SubTotalPrice = subtotal
	l.NetAmount = net
	l.TotalPrice = total
	l.BaseSubTotalPrice = subtotal
	l.BaseDiscountAmount = l.DiscountAmount
	l.BaseNetAmount = net
	l.BaseTaxAmount = l.TaxAmount
	l.BaseTotalPrice = total
}
