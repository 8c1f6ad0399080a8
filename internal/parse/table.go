package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	tableNumberRe = regexp.MustCompile(`^[A-Za-z0-9-]{1,10}$`)
	storeCodeRe   = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)
)

var (
	ErrInvalidTableNumber = errors.New("invalid table number")
	ErrInvalidStoreCode   = errors.New("invalid store code")
	ErrInvalidPrice       = errors.New("invalid price")
)

// MaxPrice bounds prices accepted by the admin menu form.
var MaxPrice = decimal.NewFromInt(10_000_000)

// TableNumber trims and validates a human-entered table number and returns it uppercased.
func TableNumber(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !tableNumberRe.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTableNumber, raw)
	}
	return strings.ToUpper(s), nil
}

// SameTable compares two table numbers the way the resolver does.
func SameTable(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// StoreCode validates a store code.
func StoreCode(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !storeCodeRe.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStoreCode, raw)
	}
	return s, nil
}

// Price parses a form price. Thousands separators are accepted, negatives are not.
func Price(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if d.IsNegative() || d.GreaterThan(MaxPrice) {
		return decimal.Zero, fmt.Errorf("%w: %s out of range", ErrInvalidPrice, d)
	}
	return d, nil
}
