package utils

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to cents.
func Round2(value float64) float64 {
	f, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return f
}

// Pay multiplies hours by an hourly rate and rounds to cents.
func Pay(hours, rate float64) float64 {
	f, _ := decimal.NewFromFloat(hours).Mul(decimal.NewFromFloat(rate)).Round(2).Float64()
	return f
}
