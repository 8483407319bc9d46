// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/asset"
	"github.com/fd1az/liquidity-scanner/internal/config"
	"github.com/fd1az/liquidity-scanner/internal/di"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

// Monolith is the application container: config, logger, the BSC client and the DI registry.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
	// OnClose registers a shutdown hook. Hooks run in reverse order.
	OnClose(fn func() error)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
	modules       []Module

	mu      sync.Mutex
	closers []func() error
}

// New dials the BSC node and creates the container with the shared services
// registered under "config", "logger", "ethClient" and "assetRegistry".
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	ethClient, err := ethclient.Dial(cfg.Chain.HTTPURL)
	if err != nil {
		return nil, apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("dial "+cfg.Chain.HTTPURL))
	}

	a := &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: asset.DefaultRegistry(),
		container:     di.NewContainer(),
	}
	a.container.Register("config", cfg)
	a.container.Register("logger", log)
	a.container.Register("ethClient", ethClient)
	a.container.Register("assetRegistry", a.assetRegistry)
	a.OnClose(func() error {
		ethClient.Close()
		return nil
	})
	return a, nil
}

func (a *app) Config() *config.Config { return a.config }

func (a *app) Logger() logger.LoggerInterface { return a.logger }

func (a *app) EthClient() *ethclient.Client { return a.ethClient }

func (a *app) AssetRegistry() *asset.Registry { return a.assetRegistry }

func (a *app) Services() di.ServiceRegistry { return a.container }

func (a *app) OnClose(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// RegisterModules registers modules in order and remembers them for StartModules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("%s: %w", moduleName(m), err)
		}
		a.modules = append(a.modules, m)
	}
	return nil
}

// StartModules starts registered modules in registration order.
func (a *app) StartModules(ctx context.Context) error {
	for _, m := range a.modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("%s: %w", moduleName(m), err)
		}
	}
	return nil
}

// Close runs shutdown hooks, last registered first.
func (a *app) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func moduleName(m Module) string {
	t := reflect.TypeOf(m)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}
