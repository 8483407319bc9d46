// Command extract writes the base symbols LBank quotes against USDT to a CSV file.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/liquidity-scanner/business/marketdata/infra/lbank"
	"github.com/fd1az/liquidity-scanner/internal/config"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const defaultOutput = "lbank_usdt_currencies.csv"

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	output := flag.String("out", defaultOutput, "Output CSV path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, output string) error {
	cfg, err := config.LoadVenues(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(os.Stderr, logger.LevelInfo, "extract", nil)

	client, err := lbank.NewClient(lbank.ClientConfig{
		BaseURL:        cfg.LBank.RESTURL,
		LegacyURL:      cfg.LBank.LegacyURL,
		Depth:          cfg.LBank.Depth,
		Timeout:        cfg.LBank.RequestTimeout,
		RequestsPerMin: cfg.LBank.RequestsPerMin,
	}, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	symbols, err := client.CurrencyPairs(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := writeSymbols(f, symbols); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Info(ctx, "currencies written", "file", output, "count", len(symbols))
	return nil
}

func writeSymbols(f *os.File, symbols []string) error {
	w := csv.NewWriter(f)
	if err := w.Write([]string{"tokenName"}); err != nil {
		return err
	}
	for _, s := range symbols {
		if err := w.Write([]string{s}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
