// Package main is the entry point for the DEX/CEX liquidity scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/alerting"
	"github.com/fd1az/liquidity-scanner/business/arbitrage"
	arbitrageApp "github.com/fd1az/liquidity-scanner/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/liquidity-scanner/business/arbitrage/di"
	"github.com/fd1az/liquidity-scanner/business/marketdata"
	mdDI "github.com/fd1az/liquidity-scanner/business/marketdata/di"
	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/business/onchain"
	"github.com/fd1az/liquidity-scanner/internal/apm"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/config"
	"github.com/fd1az/liquidity-scanner/internal/health"
	"github.com/fd1az/liquidity-scanner/internal/logger"
	"github.com/fd1az/liquidity-scanner/internal/metrics"
	"github.com/fd1az/liquidity-scanner/internal/monolith"
	"github.com/fd1az/liquidity-scanner/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("liquidity-scanner %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}
	cfg.App.TUIMode = tuiMode

	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, parseLevel(cfg.App.LogLevel), cfg.App.Name, traceID)
	log.Info(ctx, "starting liquidity scanner",
		"version", version,
		"environment", cfg.App.Environment,
		"tokens", len(cfg.Tokens),
	)

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer func() {
		if cerr := mono.Close(); cerr != nil {
			log.Error(ctx, "error during shutdown", "error", cerr)
		}
	}()

	// Dependency order: alerting and the data contexts before arbitrage.
	modules := []monolith.Module{
		&marketdata.Module{},
		&onchain.Module{},
		&alerting.Module{},
		&arbitrage.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	start := func() (*arbitrageApp.Scanner, error) {
		if err := mono.StartModules(ctx); err != nil {
			return nil, fmt.Errorf("failed to start modules: %w", err)
		}
		scanner := arbitrageDI.GetScanner(mono.Services())
		startHealth(ctx, cfg, mono, scanner, log)
		return scanner, nil
	}

	if tuiMode {
		err = runTUI(ctx, start, cfg.Venues(), log)
	} else {
		err = runCLI(ctx, start, log)
	}
	return err
}

func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	tp, err := apm.NewTraceProvider(apm.Config{
		Provider:    apm.Provider(cfg.Telemetry.TraceExporter),
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	}, log)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("trace exporter"))
	}

	metricOpts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithPrometheus(),
	}
	if cfg.Telemetry.OTLPEndpoint != "" && apm.Provider(cfg.Telemetry.TraceExporter) == apm.OTLPGRPCProvider {
		headers, err := apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)
		if err != nil {
			_ = tp.Stop()
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err),
				apperror.WithContext("otlp headers"))
		}
		metricOpts = append(metricOpts, metrics.WithOTLP(cfg.Telemetry.OTLPEndpoint, headers, 0))
	}

	mp, err := metrics.NewMetricProvider(ctx, metricOpts...)
	if err != nil {
		_ = tp.Stop()
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("metric provider"))
	}

	go metrics.ServePrometheusMetrics(ctx, log, metrics.WithPort(cfg.Telemetry.PrometheusPort))

	return func() {
		_ = mp.Shutdown(context.Background())
		_ = tp.Stop()
	}, nil
}

func startHealth(ctx context.Context, cfg *config.Config, mono monolith.Monolith, scanner *arbitrageApp.Scanner, log logger.LoggerInterface) {
	srv := health.NewServer(cfg.Health.Port, version, log)

	svc := mdDI.GetMarketDataService(mono.Services())
	if slices.Contains(svc.Venues(), md.VenueBitmart) {
		srv.RegisterCheck("bitmart", health.ConnectedCheck(func() bool {
			return svc.FeedStatus()[md.VenueBitmart]
		}))
	}
	interval := scanner.Interval()
	srv.RegisterCheck("scanner", health.FreshnessCheck(scanner.LastTick, 3*interval, 3*interval))

	if err := srv.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
		return
	}
	log.Info(ctx, "health server started", "port", cfg.Health.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(shutdownCtx)
	}()
}

func runCLI(ctx context.Context, start func() (*arbitrageApp.Scanner, error), log logger.LoggerInterface) error {
	scanner, err := start()
	if err != nil {
		return err
	}
	log.Info(ctx, "all modules started, beginning scan loop", "interval", scanner.Interval())

	err = scanner.Run(ctx)
	log.Info(ctx, "shutting down")
	return err
}

func runTUI(ctx context.Context, start func() (*arbitrageApp.Scanner, error), venues []string, log logger.LoggerInterface) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		// Wait for the welcome screen to finish before dialing anything.
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		ui.Send(ui.StartupMsg{Step: "chain", Status: "connecting"})
		scanner, err := start()
		if err != nil {
			ui.Send(ui.StartupMsg{Step: "chain", Status: "failed", Message: err.Error()})
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		ui.Send(ui.StartupMsg{Step: "chain", Status: "connected"})
		for _, v := range []string{config.VenueBitmart, config.VenueLBank} {
			if !slices.Contains(venues, v) {
				ui.Send(ui.StartupMsg{Step: v, Status: "done", Message: "not configured"})
			}
		}

		errCh <- scanner.Run(ctx)
		p.Quit()
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			return nil
		}
		return err
	default:
		log.Info(ctx, "tui closed")
		return nil
	}
}
