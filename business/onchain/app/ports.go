// Package app contains the on-chain price service and its port definitions.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/liquidity-scanner/business/onchain/domain"
)

// PairReader reads V2 pair state from the chain.
type PairReader interface {
	// PairFor returns the pair address for two tokens, or the zero address if none exists.
	PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
	Reserves(ctx context.Context, pair common.Address) (domain.PairReserves, error)
}
