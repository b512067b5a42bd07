package ledger

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Credits are stored in smallest units with 18 decimal places, the way wei
// relates to ether. The HTTP layer converts to and from human-readable
// decimal strings with these helpers.
const creditDecimals = 18

// FormatAmount renders a smallest-unit amount as a decimal token string.
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	num, err := decimal.NewFromString(amount.String())
	if err != nil {
		return "0"
	}
	unit := decimal.New(1, creditDecimals)
	return num.DivRound(unit, creditDecimals).String()
}

// ParseAmount parses a decimal token string into smallest units. Fractions
// finer than 18 decimals are rejected rather than silently truncated.
func ParseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}

	scaled := d.Mul(decimal.New(1, creditDecimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, creditDecimals)
	}

	out, ok := new(big.Int).SetString(scaled.Truncate(0).String(), 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	return out, nil
}
