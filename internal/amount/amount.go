package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Monetary amounts move between two representations: human-readable decimal
// units and integer base units scaled by a token's decimal count. All
// conversions run on decimal.Decimal so no base units are lost or invented
// the way binary floats would at the 6th-18th fractional digit.

// ToBaseUnits converts a decimal token amount into base units, truncating
// toward zero. The result is what goes on the wire as a decimal-string
// integer (amounts can exceed 2^53, so it is never a float).
func ToBaseUnits(amt decimal.Decimal, decimals int32) *big.Int {
	return amt.Shift(decimals).Truncate(0).BigInt()
}

// FromBaseUnits converts integer base units back into decimal token units.
// The division by 10^decimals is exact.
func FromBaseUnits(baseUnits *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(baseUnits, -decimals)
}

// ParseBaseUnits parses a decimal-string integer of base units, as returned
// by upstream quote APIs, into decimal token units.
func ParseBaseUnits(baseUnits string, decimals int32) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(baseUnits)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid base unit amount %q: %w", baseUnits, err)
	}
	if !d.IsInteger() {
		return decimal.Decimal{}, fmt.Errorf("invalid base unit amount %q: not an integer", baseUnits)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("invalid base unit amount %q: negative", baseUnits)
	}
	return d.Shift(-decimals), nil
}

// RoundUpFive rounds up (ceiling) to 5 fractional digits. The rounded value
// is quoted to the payment processor as the destination amount; rounding up
// guarantees the purchase always covers the bridge's required amount.
func RoundUpFive(d decimal.Decimal) decimal.Decimal {
	return d.RoundCeil(5)
}

// FixTwo renders a value with 2 fractional digits using standard
// round-to-nearest. Only used for display fields (fees, totals) where
// rounding bias does not matter.
func FixTwo(d decimal.Decimal) string {
	return d.StringFixed(2)
}
