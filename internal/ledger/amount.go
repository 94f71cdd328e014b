package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// ParseAmount parses a decimal token amount from user or config input.
// Scientific notation, signs, and more fractional digits than the native
// token supports are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, scriperr.WithDetails(scriperr.ErrInvalidAmount,
			map[string]string{"input": s, "reason": "empty"})
	}
	if strings.ContainsAny(trimmed, "eE+-") {
		return decimal.Zero, scriperr.WithDetails(scriperr.ErrInvalidAmount,
			map[string]string{"input": s, "reason": "sign or exponent"})
	}
	if strings.Count(trimmed, ".") > 1 {
		return decimal.Zero, scriperr.WithDetails(scriperr.ErrInvalidAmount,
			map[string]string{"input": s, "reason": "multiple decimal points"})
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, scriperr.Wrap(scriperr.ErrInvalidAmount, "parsing %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, scriperr.WithDetails(scriperr.ErrInvalidAmount,
			map[string]string{"input": s, "reason": "negative"})
	}
	if -d.Exponent() > NativeDecimals {
		return decimal.Zero, scriperr.WithDetails(scriperr.ErrInvalidAmount,
			map[string]string{"input": s, "reason": "too many decimal places"})
	}
	return d, nil
}

// ParsePositiveAmount is ParseAmount with an additional non-zero check,
// for places where zero is meaningless, like a funding top-up.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, scriperr.WithDetails(scriperr.ErrInvalidAmount,
			map[string]string{"input": s, "reason": "zero"})
	}
	return d, nil
}

// FormatAmount renders an amount the way the rest of the tool prints
// balances: plain decimal, no exponent, trailing zeros trimmed.
func FormatAmount(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// FormatWithSymbol renders an amount followed by the native token symbol.
func FormatWithSymbol(d decimal.Decimal) string {
	return FormatAmount(d) + " " + NativeSymbol
}
