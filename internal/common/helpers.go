package common

import (
	"fmt"
	"math"
	"strings"

	"github.com/AlexZinkM/amm-config/internal/model"

	"github.com/shopspring/decimal"
)

const (
	SOLDecimals = 9 // SOL has 9 decimals (lamports)

	// BasisPointsPerPercent is the protocol's fixed scaling factor between a
	// fee percentage and the integer rate stored on-chain.
	BasisPointsPerPercent = 100
	basisPointDecimals    = 2

	// maxPercentDigits is the widest integer part a fee percent may have
	// before its basis-point rate cannot fit in a u64.
	maxPercentDigits = 20
)

var (
	hundred   = decimal.NewFromInt(BasisPointsPerPercent)
	maxUint64 = decimal.RequireFromString("18446744073709551615")
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return formatWithDecimals(lamports, SOLDecimals)
}

// BasisPointsToPercent renders an on-chain rate as a percentage, e.g. 150 -> "1.50"
func BasisPointsToPercent(bp uint64) string {
	return formatWithDecimals(bp, basisPointDecimals)
}

// ParsePercent parses operator input such as "0.5" or "2" into an exact decimal.
// NaN and infinities never parse; negative values are rejected. Values too
// small to reach one basis point come back as zero.
func ParsePercent(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, model.Errorf(model.KindInvalidAmount, "parse fee percent", "empty value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, model.Errorf(model.KindInvalidAmount, "parse fee percent", "%q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, model.Errorf(model.KindInvalidAmount, "parse fee percent", "%s is negative", s)
	}
	d, ok := boundPercent(d)
	if !ok {
		return decimal.Zero, model.Errorf(model.KindInvalidAmount, "parse fee percent", "%s overflows the on-chain rate", s)
	}
	return d, nil
}

// PercentFromFloat converts a float percentage, rejecting NaN and infinities
func PercentFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, model.Errorf(model.KindInvalidAmount, "convert fee percent", "%v is not finite", f)
	}
	return decimal.NewFromFloat(f), nil
}

// PercentToBasisPoints multiplies a percentage by 100 and truncates toward zero.
// The conversion is lossy: 1.505 becomes 150. On-chain fee math depends on the
// exact integer produced here.
func PercentToBasisPoints(percent decimal.Decimal) (uint64, error) {
	if percent.IsNegative() {
		return 0, model.Errorf(model.KindInvalidAmount, "convert fee percent", "fee percent is negative")
	}
	percent, ok := boundPercent(percent)
	if !ok {
		return 0, model.Errorf(model.KindInvalidAmount, "convert fee percent", "fee percent overflows the on-chain rate")
	}
	scaled := percent.Mul(hundred).Truncate(0)
	if scaled.GreaterThan(maxUint64) {
		return 0, model.Errorf(model.KindInvalidAmount, "convert fee percent", "%s overflows the on-chain rate", percent)
	}
	return scaled.BigInt().Uint64(), nil
}

// boundPercent checks the magnitude of a non-negative percent from its
// coefficient length and exponent alone. Arithmetic on a decimal rescales to
// its exponent, so 1e-999999999 must never reach Mul or Truncate. Values below
// 0.01 collapse to zero; ok is false when the rate would overflow a u64.
func boundPercent(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsZero() {
		return decimal.Zero, true
	}
	// d < 10^magnitude
	magnitude := len(d.Coefficient().Text(10)) + int(d.Exponent())
	switch {
	case magnitude > maxPercentDigits:
		return decimal.Zero, false
	case magnitude <= -basisPointDecimals:
		return decimal.Zero, true
	}
	return d, true
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := fmt.Sprintf("%d", value)

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}
