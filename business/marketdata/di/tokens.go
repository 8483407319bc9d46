// Package di contains dependency injection tokens for the market data context.
package di

import (
	"github.com/fd1az/liquidity-scanner/business/marketdata/app"
	"github.com/fd1az/liquidity-scanner/business/marketdata/infra/lbank"
	"github.com/fd1az/liquidity-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	MarketDataService = di.NewToken[*app.MarketDataService]("marketdata.MarketDataService")
)

// Private dependency tokens - internal to marketdata module
var (
	Store       = di.NewToken[*app.Store]("marketdata:store")
	LBankClient = di.NewToken[*lbank.Client]("marketdata:lbankClient")
	Feeds       = di.NewToken[[]app.Feed]("marketdata:feeds")
	Listings    = di.NewToken[[]app.ListingSource]("marketdata:listings")
)

// Helper functions for type-safe access
func GetMarketDataService(c di.ServiceRegistry) *app.MarketDataService {
	return di.GetToken(c, MarketDataService)
}

func GetStore(c di.ServiceRegistry) *app.Store {
	return di.GetToken(c, Store)
}

func GetLBankClient(c di.ServiceRegistry) *lbank.Client {
	return di.GetToken(c, LBankClient)
}

func GetFeeds(c di.ServiceRegistry) []app.Feed {
	return di.GetToken(c, Feeds)
}

func GetListings(c di.ServiceRegistry) []app.ListingSource {
	return di.GetToken(c, Listings)
}
