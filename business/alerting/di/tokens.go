// Package di contains dependency injection tokens for the alerting context.
package di

import (
	"github.com/fd1az/liquidity-scanner/business/alerting/app"
	"github.com/fd1az/liquidity-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Notifier = di.NewToken[*app.Notifier]("alerting.Notifier")
)

// Private dependency tokens - internal to alerting module
var (
	Senders = di.NewToken[[]app.Sender]("alerting:senders")
)

func GetNotifier(c di.ServiceRegistry) *app.Notifier {
	return di.GetToken(c, Notifier)
}

func GetSenders(c di.ServiceRegistry) []app.Sender {
	return di.GetToken(c, Senders)
}
