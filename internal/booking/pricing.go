package booking

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate indicates a non-positive nightly rate.
var ErrInvalidRate = errors.New("booking: price per night must be positive")

// Pricing holds the fee schedule applied to every stay.
type Pricing struct {
	CleaningFee    decimal.Decimal
	ServiceFeeRate decimal.Decimal
}

// DefaultPricing charges a cleaning fee of 50 and a service fee of 10% of the nightly rate.
func DefaultPricing() Pricing {
	return Pricing{
		CleaningFee:    decimal.NewFromInt(50),
		ServiceFeeRate: decimal.NewFromFloat(0.10),
	}
}

// Quote is the price breakdown of a prospective stay.
type Quote struct {
	Nights      int
	NightlyRate decimal.Decimal
	Subtotal    decimal.Decimal
	CleaningFee decimal.Decimal
	ServiceFee  decimal.Decimal
	Total       decimal.Decimal
}

// Quote prices a stay. The service fee is a flat share of one night's rate and
// does not scale with the number of nights.
func (p Pricing) Quote(pricePerNight decimal.Decimal, start, end time.Time) (Quote, error) {
	if !pricePerNight.IsPositive() {
		return Quote{}, ErrInvalidRate
	}
	r, err := NewDateRange(start, end)
	if err != nil {
		return Quote{}, err
	}

	nights := r.Nights()
	subtotal := pricePerNight.Mul(decimal.NewFromInt(int64(nights)))
	serviceFee := pricePerNight.Mul(p.ServiceFeeRate)

	return Quote{
		Nights:      nights,
		NightlyRate: pricePerNight,
		Subtotal:    subtotal,
		CleaningFee: p.CleaningFee,
		ServiceFee:  serviceFee,
		Total:       subtotal.Add(p.CleaningFee).Add(serviceFee),
	}, nil
}
