package metrics

import "time"

// Reader selects where meter data goes.
type Reader string

const (
	// ReaderPrometheus exposes a pull endpoint through promhttp.
	ReaderPrometheus Reader = "prometheus"
	// ReaderOTLP pushes to a collector over gRPC.
	ReaderOTLP Reader = "otlp-grpc"
)

type readerCfg struct {
	kind     Reader
	endpoint string
	headers  map[string]string
	interval time.Duration
}

type Config struct {
	ServiceName string
	readers     []readerCfg
}

type OptionFn func(*Config)

func WithServiceName(name string) OptionFn {
	return func(c *Config) { c.ServiceName = name }
}

func WithPrometheus() OptionFn {
	return func(c *Config) {
		c.readers = append(c.readers, readerCfg{kind: ReaderPrometheus})
	}
}

// WithOTLP pushes every interval. A zero interval uses the SDK default.
func WithOTLP(endpoint string, headers map[string]string, interval time.Duration) OptionFn {
	return func(c *Config) {
		c.readers = append(c.readers, readerCfg{
			kind:     ReaderOTLP,
			endpoint: endpoint,
			headers:  headers,
			interval: interval,
		})
	}
}

type serveConfig struct {
	port int
	path string
}

type ServeOptionFn func(*serveConfig)

func WithPort(port int) ServeOptionFn {
	return func(c *serveConfig) {
		if port > 0 {
			c.port = port
		}
	}
}

func WithPath(path string) ServeOptionFn {
	return func(c *serveConfig) { c.path = path }
}
