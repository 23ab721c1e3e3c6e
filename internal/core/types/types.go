// Package types provides common value types shared across the domain.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroMoney returns zero Money value.
func ZeroMoney() Money {
	return decimal.Zero
}

// Quantity is a whole-unit part count. Parts are discrete items,
// fractional results from BOM factors are always rounded up before
// they become a Quantity.
type Quantity int64

// Factor is a BOM multiplier (quantity per unit, loss rate).
// Kept as decimal so loss-rate arithmetic stays exact.
type Factor = decimal.Decimal

// NewFactorFromString creates a Factor from a string.
func NewFactorFromString(s string) (Factor, error) {
	return decimal.NewFromString(s)
}

// MustFactor creates a Factor from a string, panics on error.
// Use only for constants and tests.
func MustFactor(s string) Factor {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// CeilQuantity converts a decimal requirement to a whole-unit Quantity,
// always rounding up. Under-ordering is the unsafe direction.
func CeilQuantity(d decimal.Decimal) Quantity {
	return Quantity(d.Ceil().IntPart())
}

func (q Quantity) Int64() int64 { return int64(q) }

// Decimal converts the quantity to a decimal for factor arithmetic.
func (q Quantity) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(q)) }

func (q Quantity) IsZero() bool     { return q == 0 }
func (q Quantity) IsPositive() bool { return q > 0 }
func (q Quantity) IsNegative() bool { return q < 0 }

// Abs returns the absolute value.
func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}
