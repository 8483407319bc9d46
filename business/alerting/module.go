// Package alerting implements the alerting bounded context: Discord and Telegram delivery.
package alerting

import (
	"context"

	"github.com/fd1az/liquidity-scanner/business/alerting/app"
	alertDI "github.com/fd1az/liquidity-scanner/business/alerting/di"
	"github.com/fd1az/liquidity-scanner/business/alerting/infra/discord"
	"github.com/fd1az/liquidity-scanner/business/alerting/infra/telegram"
	"github.com/fd1az/liquidity-scanner/internal/config"
	"github.com/fd1az/liquidity-scanner/internal/di"
	"github.com/fd1az/liquidity-scanner/internal/logger"
	"github.com/fd1az/liquidity-scanner/internal/monolith"
)

// Module implements the alerting bounded context.
type Module struct{}

// RegisterServices registers alerting services. Nothing is registered when no
// sender is configured; the scanner then runs without a dispatcher.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, alertDI.Senders, func(sr di.ServiceRegistry) []app.Sender {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var senders []app.Sender
		if cfg.Alerts.DiscordWebhookURL != "" {
			w, err := discord.NewWebhook(cfg.Alerts.DiscordWebhookURL, cfg.Alerts.SendTimeout, log)
			if err != nil {
				panic("failed to create discord webhook: " + err.Error())
			}
			senders = append(senders, w)
		}
		if cfg.Alerts.TelegramBotToken != "" && cfg.Alerts.TelegramChatID != "" {
			b, err := telegram.NewBot(telegram.Config{
				BaseURL: cfg.Alerts.TelegramBaseURL,
				Token:   cfg.Alerts.TelegramBotToken,
				ChatID:  cfg.Alerts.TelegramChatID,
				Timeout: cfg.Alerts.SendTimeout,
			}, log)
			if err != nil {
				panic("failed to create telegram bot: " + err.Error())
			}
			senders = append(senders, b)
		}
		return senders
	})

	di.RegisterToken(c, alertDI.Notifier, func(sr di.ServiceRegistry) *app.Notifier {
		log := sr.Get("logger").(logger.LoggerInterface)
		n, err := app.NewNotifier(alertDI.GetSenders(sr), log)
		if err != nil {
			panic("failed to create notifier: " + err.Error())
		}
		return n
	})

	return nil
}

// Startup logs the configured senders.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	if !mono.Config().Alerts.Enabled() {
		log.Warn(ctx, "no alert sender configured, alerts disabled")
		return nil
	}
	n := alertDI.GetNotifier(mono.Services())
	log.Info(ctx, "alerting module started", "senders", n.Senders())
	return nil
}
