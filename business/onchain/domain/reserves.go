// Package domain holds constant-product pool math for on-chain price and liquidity.
package domain

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-scanner/internal/asset"
)

// ErrEmptyPool is returned when either side of a pair has no reserves.
var ErrEmptyPool = errors.New("pool has zero reserves")

// ErrTokenNotInPair is returned when a token is neither token0 nor token1.
var ErrTokenNotInPair = errors.New("token not in pair")

// PairReserves is a V2 pair's state as read in one call.
type PairReserves struct {
	Pair     common.Address
	Token0   common.Address
	Token1   common.Address
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// ReserveOf returns the raw reserve held for token.
func (r PairReserves) ReserveOf(token common.Address) (*big.Int, error) {
	switch token {
	case r.Token0:
		return r.Reserve0, nil
	case r.Token1:
		return r.Reserve1, nil
	}
	return nil, ErrTokenNotInPair
}

// SpotPrice returns how many quote units one base unit is worth, from reserves alone.
func (r PairReserves) SpotPrice(base, quote *asset.Asset) (decimal.Decimal, error) {
	baseRaw, err := r.ReserveOf(base.Address())
	if err != nil {
		return decimal.Zero, err
	}
	quoteRaw, err := r.ReserveOf(quote.Address())
	if err != nil {
		return decimal.Zero, err
	}
	if baseRaw == nil || quoteRaw == nil || baseRaw.Sign() == 0 || quoteRaw.Sign() == 0 {
		return decimal.Zero, ErrEmptyPool
	}

	baseAmt := asset.NewAmount(base, baseRaw).ToDecimal()
	quoteAmt := asset.NewAmount(quote, quoteRaw).ToDecimal()
	return quoteAmt.DivRound(baseAmt, 18), nil
}

// Depth returns the pool's holding of token in whole units.
func (r PairReserves) Depth(token *asset.Asset) (decimal.Decimal, error) {
	raw, err := r.ReserveOf(token.Address())
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return asset.NewAmount(token, raw).ToDecimal(), nil
}
