// Package core provides the domain types shared by every layer: calendar
// dates in the backend's wire format, validated monetary amounts, and the
// entity structs the query layer moves around.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern is the canonical amount shape after normalization: up to 15
// integer digits, optionally a dot and up to 4 fraction digits.
var amountPattern = regexp.MustCompile(`^[0-9]{1,15}(\.[0-9]{1,4})?$`)

// Amount is a positive monetary value with at most 4 fraction digits.
// Decimal keeps the wire representation exact; float rounding would not.
type Amount struct {
	decimal.Decimal
}

// NormalizeAmount strips everything except digits and dots, so currency
// symbols and grouping separators in display strings never reach the
// pattern check.
func NormalizeAmount(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseAmount normalizes and validates a user-entered amount string.
// Rejects zero, negatives, more than 15 integer digits, and more than
// 4 fraction digits.
func ParseAmount(s string) (Amount, error) {
	trimmed := strings.TrimSpace(s)
	// A leading sign is a sign, not display noise the strip may discard.
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "+") {
		return Amount{}, ErrInvalidAmount
	}
	n := NormalizeAmount(trimmed)
	if !amountPattern.MatchString(n) {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(n)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Decimal: d}, nil
}

func (a Amount) Validate() error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// String returns the wire representation, e.g. "1234.5".
func (a Amount) String() string {
	return a.Decimal.String()
}

// Display returns the amount with thousands separators for table output,
// e.g. "1,234,567.89".
func (a Amount) Display() string {
	s := a.Decimal.String()
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return intPart + fracPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(fracPart)
	return b.String()
}
