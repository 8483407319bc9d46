// Package di contains dependency injection tokens for the on-chain context.
package di

import (
	"github.com/fd1az/liquidity-scanner/business/onchain/app"
	"github.com/fd1az/liquidity-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PriceService = di.NewToken[*app.PriceService]("onchain.PriceService")
)

// Private dependency tokens - internal to onchain module
var (
	PairReader = di.NewToken[app.PairReader]("onchain:pairReader")
)

// Helper functions for type-safe access
func GetPriceService(c di.ServiceRegistry) *app.PriceService {
	return di.GetToken(c, PriceService)
}

func GetPairReader(c di.ServiceRegistry) app.PairReader {
	return di.GetToken(c, PairReader)
}
