// Package money provides fixed-point currency amounts in minor units.
package money

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cents is a currency amount in minor units (e.g. kobo, cents).
// Amounts are kept as integers end to end so that equality checks
// against gateway-reported amounts are exact.
type Cents int64

// FromMinorUnits converts a raw gateway amount into Cents.
func FromMinorUnits(amount int64) Cents {
	return Cents(amount)
}

// Mul scales the amount by an integer factor, e.g. a unit price by a
// quantity.
func (c Cents) Mul(factor int64) Cents {
	return Cents(int64(c) * factor)
}

// String renders the amount as a decimal with exactly two fractional
// digits, e.g. 10223 -> "102.23".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the amount as a two-decimal string.
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either a two-decimal string or a bare number
// of major units.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var f json.Number
		if numErr := json.Unmarshal(data, &f); numErr != nil {
			return fmt.Errorf("invalid money value: %s", string(data))
		}
		s = f.String()
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse converts a decimal string such as "102.23" into Cents.
// At most two fractional digits are accepted.
func Parse(value string) (Cents, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty money value")
	}

	negative := false
	if strings.HasPrefix(value, "-") {
		negative = true
		value = value[1:]
	}

	whole := value
	frac := ""
	if i := strings.IndexByte(value, '.'); i >= 0 {
		whole, frac = value[:i], value[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("money value %q has more than two fractional digits", value)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	wholeUnits, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money value %q", value)
	}
	fracUnits, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money value %q", value)
	}

	cents := wholeUnits*100 + fracUnits
	if negative {
		cents = -cents
	}
	return Cents(cents), nil
}
