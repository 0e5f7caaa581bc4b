package bill

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TENDER PREMIUM
// =============================================================================

// Direction says whether the tender premium is added to or subtracted from a
// subtotal.
type Direction int

const (
	// Above adds the premium.
	Above Direction = iota

	// Below subtracts the premium.
	Below
)

// ParseDirection accepts "above" or "below", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above":
		return Above, nil
	case "below":
		return Below, nil
	default:
		return Above, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// String returns "above" or "below".
func (d Direction) String() string {
	if d == Below {
		return "below"
	}
	return "above"
}

// MarshalText implements encoding.TextMarshaler so Direction renders as its
// name in JSON, XML and YAML.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var hundred = decimal.NewFromInt(100)

// PremiumSpec is the tender premium applied uniformly to every total of one
// run. The core assumes Percent is non-negative; callers validate first.
type PremiumSpec struct {
	Percent   decimal.Decimal
	Direction Direction
}

// NewPremiumSpec builds a spec from a percent and a direction name.
func NewPremiumSpec(percent float64, direction string) (PremiumSpec, error) {
	d, err := ParseDirection(direction)
	if err != nil {
		return PremiumSpec{}, err
	}
	return PremiumSpec{Percent: fromFloat(percent), Direction: d}, nil
}

// Fraction returns Percent/100, the form renderers print as "5.00%".
func (p PremiumSpec) Fraction() decimal.Decimal {
	return p.Percent.Div(hundred)
}

// Amount returns the signed premium on base, rounded to a whole unit.
func (p PremiumSpec) Amount(base decimal.Decimal) decimal.Decimal {
	amount := base.Mul(p.Percent).Div(hundred)
	if p.Direction == Below {
		amount = amount.Neg()
	}
	return roundUnit(amount)
}

// Apply returns base plus its signed premium, rounded to a whole unit.
func (p PremiumSpec) Apply(base decimal.Decimal) decimal.Decimal {
	return roundUnit(base.Add(p.Amount(base)))
}

// roundUnit rounds to a whole currency unit, half to even.
func roundUnit(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(0)
}
