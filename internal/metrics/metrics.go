// Package metrics sets up the global OpenTelemetry meter provider and the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/liquidity-scanner/internal/logger"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

func buildReader(ctx context.Context, rc readerCfg) (sdkmetric.Reader, error) {
	switch rc.kind {
	case ReaderPrometheus:
		return prometheus.New()

	case ReaderOTLP:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithHeaders(rc.headers)}
		if rc.endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpointURL(rc.endpoint))
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		var readerOpts []sdkmetric.PeriodicReaderOption
		if rc.interval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(rc.interval))
		}
		return sdkmetric.NewPeriodicReader(exp, readerOpts...), nil
	}
	return nil, fmt.Errorf("unknown metric reader %q", rc.kind)
}

// NewMetricProvider builds the configured readers and installs the provider globally.
func NewMetricProvider(ctx context.Context, options ...OptionFn) (MetricProvider, error) {
	var cfg Config
	for _, opt := range options {
		opt(&cfg)
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName))),
	}
	for _, rc := range cfg.readers {
		reader, err := buildReader(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("%s reader: %w", rc.kind, err)
		}
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// ServePrometheusMetrics serves the scrape endpoint until ctx is cancelled.
func ServePrometheusMetrics(ctx context.Context, log logger.LoggerInterface, opts ...ServeOptionFn) {
	cfg := serveConfig{port: 9090, path: "/metrics"}
	for _, o := range opts {
		o(&cfg)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.path, promhttp.Handler())
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "serving prometheus metrics", "port", cfg.port, "path", cfg.path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "metrics server stopped", "error", err)
	}
}
