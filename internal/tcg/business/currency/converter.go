// Package currency converts upstream prices into the local currency.
package currency

import (
	"fmt"
	"math"
)

// DefaultRate is used when no positive rate is configured.
const DefaultRate = 0.037

// Unavailable is the display value for listings without a usable price.
const Unavailable = "unavailable"

type Converter struct {
	rate float64
}

func NewConverter(rate float64) *Converter {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = DefaultRate
	}
	return &Converter{rate: rate}
}

func (c *Converter) Rate() float64 {
	return c.rate
}

// ToLocal converts an amount in upstream units. The result is not rounded.
func (c *Converter) ToLocal(amount int64) float64 {
	return ToLocalWithRate(amount, c.rate)
}

func ToLocalWithRate(amount int64, rate float64) float64 {
	return float64(amount) * rate
}

// ToMinor rounds a local amount to minor units, clamping negatives to zero.
func ToMinor(local float64) int64 {
	if local <= 0 || math.IsNaN(local) {
		return 0
	}
	minor := math.Round(local * 100)
	if minor >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(minor)
}

// Format renders minor units as "$12.34 BRL", or Unavailable for zero.
func Format(minor int64, code string) string {
	if minor <= 0 {
		return Unavailable
	}
	return fmt.Sprintf("$%d.%02d %s", minor/100, minor%100, code)
}
