package workflow

import (
	"strings"

	"procurement/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LineValidationError names one missing or invalid required field on a line.
type LineValidationError struct {
	LineKey string `json:"line_key"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

// lineRequirements is the field bag checked before save, submit and
// purchase-approve transitions proceed.
type lineRequirements struct {
	LocationID   interface{} `validate:"required"`
	ProductID    interface{} `validate:"required"`
	RequestedQty float64     `validate:"gt=0"`
}

// ValidateLines runs the required-field check over every projected line.
// A non-empty result blocks the transition before any payload is built.
func ValidateLines(lines []model.PurchaseRequestLine) []LineValidationError {
	var errs []LineValidationError
	for _, ln := range lines {
		req := lineRequirements{
			RequestedQty: ln.RequestedQty.InexactFloat64(),
		}
		if ln.LocationID != nil {
			req.LocationID = *ln.LocationID
		}
		if ln.ProductID != nil {
			req.ProductID = *ln.ProductID
		}
		err := validate.Struct(req)
		if err == nil {
			continue
		}
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs = append(errs, LineValidationError{LineKey: lineKey(ln), Field: "line", Reason: err.Error()})
			continue
		}
		for _, fe := range verrs {
			errs = append(errs, LineValidationError{
				LineKey: lineKey(ln),
				Field:   fieldName(fe.Field()),
				Reason:  fe.Tag(),
			})
		}
	}
	return errs
}

func lineKey(ln model.PurchaseRequestLine) string {
	if ln.LocalID != "" {
		return ln.LocalID
	}
	return ln.ID.String()
}

func fieldName(structField string) string {
	switch structField {
	case "LocationID":
		return "location_id"
	case "ProductID":
		return "product_id"
	case "RequestedQty":
		return "requested_qty"
	}
	return strings.ToLower(structField)
}
