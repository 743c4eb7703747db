package types

import (
	"regexp"
	"strings"

	pkgerrors "github.com/farmdirect/farmdirect-backend/pkg/errors"
)

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// DeliveryAddress is captured by value at checkout so historical orders are
// unaffected by later edits to the customer's saved addresses.
type DeliveryAddress struct {
	Line1   string `json:"line1" validate:"required"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required"`
}

// Normalize trims whitespace on every field in place.
func (a *DeliveryAddress) Normalize() {
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
}

// Validate normalizes the address and enforces the checkout address rules,
// returning field-level details on failure.
func (a *DeliveryAddress) Validate() error {
	a.Normalize()

	details := map[string]string{}
	if a.Line1 == "" {
		details["line1"] = "is required"
	}
	if a.City == "" {
		details["city"] = "is required"
	}
	if a.State == "" {
		details["state"] = "is required"
	}
	switch {
	case a.Pincode == "":
		details["pincode"] = "is required"
	case !pincodePattern.MatchString(a.Pincode):
		details["pincode"] = "must be a 6-digit number"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery address").WithDetails(details)
	}
	return nil
}
