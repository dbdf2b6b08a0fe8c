package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to minor units.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Values with more
// than two fractional digits are rounded half away from zero. Negative values
// are rejected; the direction of an entry carries its sign.
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12.345") -> 1235
//	ParseAmount("0")      -> 0
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, &ValidationError{Field: "amount", Message: "amount is required"}
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") {
		return Money{}, &ValidationError{Field: "amount", Message: "malformed amount " + quote(s)}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, &ValidationError{Field: "amount", Message: "malformed amount " + quote(s)}
	}
	return FromDecimal(d)
}

// FromDecimal converts a major-unit decimal to Money.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, &ValidationError{Field: "amount", Message: "amount cannot be negative"}
	}
	cents := d.Round(2).Mul(hundred)
	if !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, &ValidationError{Field: "amount", Message: "amount out of range"}
	}
	return Money{Cents: cents.IntPart()}, nil
}

// FromFloat converts a JSON number in major units. Rounding is half away from zero.
func FromFloat(f float64) (Money, error) {
	return FromDecimal(decimal.NewFromFloat(f))
}

const maxCents = 1<<53 - 1

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the major-unit value for JSON output. Arithmetic stays in cents.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Rupiah formats the amount as "Rp 1.234.567" (whole units, dot thousands).
func (m Money) Rupiah() string {
	d := m.Decimal().Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	digits := d.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp " + b.String()
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return &ValidationError{Field: "amount", Message: "amount cannot be negative"}
	}
	return nil
}

// Positive reports an error unless the amount is strictly greater than zero.
func (m Money) Positive() error {
	if m.Cents <= 0 {
		return &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}
