package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for asset")
)

// Amount is an on-chain quantity in the token's smallest unit.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount copies raw. A nil raw is treated as zero. Panics on a nil or negative input
// since reserves and quotes from the chain are never negative.
func NewAmount(a *Asset, raw *big.Int) Amount {
	if a == nil {
		panic(ErrNilAsset)
	}
	if raw == nil {
		raw = new(big.Int)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), asset: a}
}

func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a Amount) Asset() *Asset { return a.asset }

func (a Amount) IsZero() bool { return a.raw == nil || a.raw.Sign() == 0 }

// ToDecimal scales to whole units, e.g. 1e18 raw WBNB is 1.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

func (a Amount) String() string {
	if a.asset == nil {
		return "0"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal(), a.asset.Symbol())
}

// FromDecimal converts whole units to an Amount. Precision beyond the token's
// decimals is an error rather than silently truncated.
func FromDecimal(a *Asset, d decimal.Decimal) (Amount, error) {
	if a == nil {
		return Amount{}, ErrNilAsset
	}
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	scaled := d.Shift(int32(a.Decimals()))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, fmt.Errorf("%w: %s has %d", ErrTooManyDecimals, a.Symbol(), a.Decimals())
	}
	return NewAmount(a, scaled.BigInt()), nil
}
