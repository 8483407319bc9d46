// Package onchain implements the on-chain bounded context: PancakeSwap prices and pool depth on BSC.
package onchain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/liquidity-scanner/business/onchain/app"
	onchainDI "github.com/fd1az/liquidity-scanner/business/onchain/di"
	"github.com/fd1az/liquidity-scanner/business/onchain/infra/pancake"
	"github.com/fd1az/liquidity-scanner/internal/asset"
	"github.com/fd1az/liquidity-scanner/internal/config"
	"github.com/fd1az/liquidity-scanner/internal/di"
	"github.com/fd1az/liquidity-scanner/internal/logger"
	"github.com/fd1az/liquidity-scanner/internal/monolith"
)

// Module implements the on-chain bounded context.
type Module struct{}

// RegisterServices registers all on-chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, onchainDI.PairReader, func(sr di.ServiceRegistry) app.PairReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		reader, err := pancake.NewReader(ethClient, cfg.Pancake.FactoryAddressHex(), log)
		if err != nil {
			panic("failed to create pancake reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, onchainDI.PriceService, func(sr di.ServiceRegistry) *app.PriceService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		native, err := registry.Resolve(asset.ChainIDBSC, cfg.Pancake.WBNBAddressHex(), "WBNB", 18)
		if native == nil {
			panic("invalid wrapped native asset: " + err.Error())
		}
		stable, err := registry.Resolve(asset.ChainIDBSC, cfg.Pancake.StableAddressHex(), "STABLE", uint8(cfg.Pancake.StableDecimals))
		if stable == nil {
			panic("invalid stable asset: " + err.Error())
		}

		svc, err := app.NewPriceService(onchainDI.GetPairReader(sr), app.Config{
			Native:         native,
			Stable:         stable,
			NativePriceTTL: cfg.Pancake.NativePriceTTL,
			CallTimeout:    cfg.Pancake.CallTimeout,
		}, tokenRefs(cfg, registry, log), log)
		if err != nil {
			panic("failed to create onchain price service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup warms the native/USD reference so the first tick doesn't pay for it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := onchainDI.GetPriceService(mono.Services())
	mono.OnClose(func() error {
		svc.Close()
		return nil
	})

	price, err := svc.NativePriceUSD(ctx)
	if err != nil {
		log.Warn(ctx, "native price warmup failed, will retry on first tick", "error", err)
	} else {
		log.Info(ctx, "onchain module started", "native_usd", price.String())
	}
	return nil
}

func tokenRefs(cfg *config.Config, registry *asset.Registry, log logger.LoggerInterface) []app.TokenRef {
	refs := make([]app.TokenRef, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		if t.Address == "" {
			log.Warn(context.Background(), "token has no contract address, on-chain lookups disabled", "symbol", t.Symbol)
			continue
		}

		token, err := registry.Resolve(asset.ChainIDBSC, common.HexToAddress(t.Address), t.Symbol, uint8(t.Decimals))
		if token == nil {
			log.Error(context.Background(), "invalid token, on-chain lookups disabled", "symbol", t.Symbol, "error", err)
			continue
		}
		if err != nil {
			log.Warn(context.Background(), "token not added to asset registry", "symbol", t.Symbol, "error", err)
		}

		ref := app.TokenRef{Symbol: t.Symbol, Token: token}
		if t.Pair != "" {
			ref.Pair = common.HexToAddress(t.Pair)
		}
		refs = append(refs, ref)
	}
	return refs
}
