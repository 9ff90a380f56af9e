// Package pricing parses price inputs and computes listing prices in cents.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Marketplace price bounds in cents.
const (
	MinPriceCents = 3
	MaxPriceCents = 10_000_000
)

var (
	ErrInvalidPriceInput = errors.New("invalid price input")
	ErrZeroChange        = errors.New("price will not change")
	ErrUnchanged         = errors.New("new price equals current price")
	ErrPriceTooLow       = errors.New("price below marketplace minimum")
	ErrPriceTooHigh      = errors.New("price above marketplace maximum")
	ErrPercentNotAllowed = errors.New("percent adjustments are only valid for repricing")
)

// Kind is how an Adjustment changes a price.
type Kind int

const (
	// Absolute sets the price to Value dollars.
	Absolute Kind = iota
	// Delta adds Value dollars to the current price.
	Delta
	// Percent scales the current price by Value percent.
	Percent
)

func (k Kind) String() string {
	switch k {
	case Absolute:
		return "absolute"
	case Delta:
		return "delta"
	case Percent:
		return "percent"
	default:
		return "unknown"
	}
}

// Adjustment is a parsed price input.
type Adjustment struct {
	Value decimal.Decimal
	Kind  Kind
}

// ParseAdjustment accepts "N%", "+N", "-N" or a bare dollar amount.
func ParseAdjustment(input string) (Adjustment, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Adjustment{}, fmt.Errorf("%w: price field must be filled", ErrInvalidPriceInput)
	}

	if strings.HasSuffix(input, "%") {
		number := strings.TrimSpace(strings.TrimSuffix(input, "%"))
		if number == "" {
			return Adjustment{}, fmt.Errorf("%w: enter a number before the '%%' symbol", ErrInvalidPriceInput)
		}
		pct, err := parseNumber(number)
		if err != nil {
			return Adjustment{}, err
		}
		if pct.IsZero() {
			return Adjustment{}, ErrZeroChange
		}
		return Adjustment{Kind: Percent, Value: pct}, nil
	}

	v, err := parseNumber(input)
	if err != nil {
		return Adjustment{}, err
	}

	if input[0] == '+' || input[0] == '-' {
		return Adjustment{Kind: Delta, Value: v}, nil
	}
	return Adjustment{Kind: Absolute, Value: v}, nil
}

// ParseSellPrice parses the price for a new listing. Only absolute dollar
// amounts are accepted.
func ParseSellPrice(input string) (int, error) {
	if strings.Contains(input, "%") {
		return 0, ErrPercentNotAllowed
	}

	adj, err := ParseAdjustment(input)
	if err != nil {
		return 0, err
	}
	if adj.Kind != Absolute {
		return 0, fmt.Errorf("%w: %q is not a price", ErrInvalidPriceInput, input)
	}

	cents := dollarsToCents(adj.Value)
	if err := Validate(cents); err != nil {
		return 0, err
	}
	return cents, nil
}

// Apply computes the new price for a listing currently at currentCents.
// Results are rounded half away from zero to whole cents.
func (a Adjustment) Apply(currentCents int) (int, error) {
	current := decimal.NewFromInt(int64(currentCents))

	var cents int
	switch a.Kind {
	case Percent:
		cents = roundCents(current.Mul(hundred.Add(a.Value)).Shift(-2))
	case Delta:
		cents = roundCents(current.Add(a.Value.Shift(2)))
	case Absolute:
		cents = dollarsToCents(a.Value)
	default:
		return 0, fmt.Errorf("%w: unknown adjustment kind %d", ErrInvalidPriceInput, a.Kind)
	}

	if cents == currentCents {
		return 0, ErrUnchanged
	}
	if err := Validate(cents); err != nil {
		return 0, err
	}
	return cents, nil
}

func (a Adjustment) String() string {
	switch a.Kind {
	case Percent:
		return a.Value.String() + "%"
	case Delta:
		if a.Value.IsNegative() {
			return a.Value.StringFixed(2) + "$"
		}
		return "+" + a.Value.StringFixed(2) + "$"
	default:
		return a.Value.StringFixed(2) + "$"
	}
}

// Validate checks cents against the marketplace bounds.
func Validate(cents int) error {
	if cents < MinPriceCents {
		return fmt.Errorf("%w: price cannot be lower than %s", ErrPriceTooLow, FormatCents(MinPriceCents))
	}
	if cents > MaxPriceCents {
		return fmt.Errorf("%w: maximum allowed price is %s", ErrPriceTooHigh, FormatCents(MaxPriceCents))
	}
	return nil
}

// FormatCents renders cents as "12.34$".
func FormatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d$", sign, cents/100, cents%100)
}

var hundred = decimal.NewFromInt(100)

func parseNumber(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidPriceInput, s)
	}
	return v, nil
}

// Dollars converts cents to an exact dollar amount.
func Dollars(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

func dollarsToCents(dollars decimal.Decimal) int {
	return roundCents(dollars.Mul(hundred))
}

// roundCents clamps amounts far outside the bounds so IntPart cannot overflow;
// Validate rejects them either way.
func roundCents(cents decimal.Decimal) int {
	switch {
	case cents.GreaterThan(decimal.NewFromInt(MaxPriceCents)):
		return MaxPriceCents + 1
	case cents.LessThan(decimal.NewFromInt(-MaxPriceCents)):
		return -MaxPriceCents - 1
	}
	return int(cents.Round(0).IntPart())
}
