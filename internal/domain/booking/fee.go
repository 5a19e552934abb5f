package booking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeePolicy computes the up-front reservation fee for a booking.
type FeePolicy interface {
	// Fee returns the reservation fee for the given monthly rent.
	Fee(monthlyRent decimal.Decimal) (decimal.Decimal, error)
}

// HalfRentFeePolicy charges 50% of one month's rent, the platform's
// standard booking fee.
type HalfRentFeePolicy struct{}

// NewHalfRentFeePolicy creates a HalfRentFeePolicy.
func NewHalfRentFeePolicy() *HalfRentFeePolicy {
	return &HalfRentFeePolicy{}
}

var two = decimal.NewFromInt(2)

// Fee returns rent / 2, rounded to whole shillings.
func (p *HalfRentFeePolicy) Fee(monthlyRent decimal.Decimal) (decimal.Decimal, error) {
	if monthlyRent.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("monthly rent must be positive, got %s", monthlyRent)
	}
	return monthlyRent.Div(two).Round(2), nil
}
