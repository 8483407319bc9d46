// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/liquidity-scanner/business/arbitrage/app"
	"github.com/fd1az/liquidity-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scanner  = di.NewToken[*app.Scanner]("arbitrage.Scanner")
	Reporter = di.NewToken[app.Reporter]("arbitrage.Reporter")
)

// Private dependency tokens - internal to arbitrage module
var (
	Caches     = di.NewToken[app.DispatcherCaches]("arbitrage:caches")
	Dispatcher = di.NewToken[*app.Dispatcher]("arbitrage:dispatcher")
)

// Helper functions for type-safe access
func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetCaches(c di.ServiceRegistry) app.DispatcherCaches {
	return di.GetToken(c, Caches)
}

func GetDispatcher(c di.ServiceRegistry) *app.Dispatcher {
	return di.GetToken(c, Dispatcher)
}
