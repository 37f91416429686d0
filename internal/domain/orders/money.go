package orders

import "math"

// Money represents currency in minor units to avoid float issues.
type Money int64

// NewMoneyFromFloat creates Money from a decimal amount, rounding to the nearest minor unit.
func NewMoneyFromFloat(f float64) Money {
	return Money(math.Round(f * 100.0))
}

func (m Money) ToFloat() float64 { return float64(m) / 100.0 }
