// Package asset models on-chain tokens and their raw amounts.
// Amounts are big.Int in the smallest unit; decimal.Decimal appears only at
// the boundary where reserves become prices.
package asset

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID identifies a token by chain and contract address. Symbols are
// display metadata: two BSC tokens may share a ticker.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewTokenAssetID creates the ID of a BEP20/ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("asset: zero token address")
	}
	return AssetID{chainID: chainID, address: addr}
}

func (id AssetID) ChainID() uint64 { return id.chainID }

func (id AssetID) Address() common.Address { return id.address }

// Equals reports whether both IDs name the same contract on the same chain.
func (id AssetID) Equals(other AssetID) bool {
	return id == other
}

func (id AssetID) String() string {
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

// Asset is a token with its display symbol and decimals.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewToken validates and builds a token asset.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) (*Asset, error) {
	switch {
	case symbol == "":
		return nil, errors.New("asset: empty symbol")
	case address == (common.Address{}):
		return nil, fmt.Errorf("asset: %s has zero address", symbol)
	case decimals > 30:
		return nil, fmt.Errorf("asset: %s has suspicious decimals %d", symbol, decimals)
	}
	return &Asset{
		id:       NewTokenAssetID(chainID, address),
		symbol:   symbol,
		name:     name,
		decimals: decimals,
	}, nil
}

// MustNewToken is NewToken for package-level well-known assets.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	a, err := NewToken(chainID, address, symbol, name, decimals)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Asset) ID() AssetID { return a.id }

func (a *Asset) Symbol() string { return a.symbol }

// Name falls back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

func (a *Asset) Decimals() uint8 { return a.decimals }

func (a *Asset) ChainID() uint64 { return a.id.chainID }

func (a *Asset) Address() common.Address { return a.id.address }

func (a *Asset) String() string { return a.symbol }
