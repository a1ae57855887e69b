package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/folioledger/backend/src/fixedpoint"
)

// Scaled is a fixed-point amount held as value*10^4. It marshals to JSON as
// the unscaled decimal number (52667 -> 5.2667) and accepts either a JSON
// number or a decimal string on input, so callers never see or supply raw
// scaled integers.
type Scaled int64

func (s Scaled) MarshalJSON() ([]byte, error) {
	return []byte(fixedpoint.Unscale(int64(s)).String()), nil
}

func (s *Scaled) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "null" || raw == "" {
		return fmt.Errorf("amount must be a number")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid decimal amount %q", raw)
	}
	*s = Scaled(fixedpoint.Scale(d))
	return nil
}

// Decimal returns the exact unscaled value.
func (s Scaled) Decimal() decimal.Decimal {
	return fixedpoint.Unscale(int64(s))
}

// Float returns the unscaled value as a float64 for presentation.
func (s Scaled) Float() float64 {
	return fixedpoint.UnscaleFloat(int64(s))
}
