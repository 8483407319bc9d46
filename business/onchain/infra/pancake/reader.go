// Package pancake reads PancakeSwap V2 factory and pair contracts over JSON-RPC.
package pancake

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/onchain/app"
	"github.com/fd1az/liquidity-scanner/business/onchain/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/circuitbreaker"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const tracerName = "pancake"

// Ensure Reader implements PairReader.
var _ app.PairReader = (*Reader)(nil)

type pairTokens struct {
	token0 common.Address
	token1 common.Address
}

// Reader implements app.PairReader against PancakeSwap V2.
type Reader struct {
	caller     ethereum.ContractCaller
	factory    common.Address
	factoryABI abi.ABI
	pairABI    abi.ABI

	// token0/token1 never change for a deployed pair.
	tokens   map[common.Address]pairTokens
	tokensMu sync.RWMutex

	cb     *circuitbreaker.CircuitBreaker[[]byte]
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewReader creates a reader. caller is usually an *ethclient.Client.
func NewReader(caller ethereum.ContractCaller, factory common.Address, log logger.LoggerInterface) (*Reader, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("pancake-rpc")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &Reader{
		caller:     caller,
		factory:    factory,
		factoryABI: factoryABI,
		pairABI:    pairABI,
		tokens:     make(map[common.Address]pairTokens),
		cb:         circuitbreaker.New[[]byte](cbCfg),
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// PairFor calls factory.getPair. A zero address means the pair does not exist.
func (r *Reader) PairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	ctx, span := r.tracer.Start(ctx, "pancake.get_pair",
		trace.WithAttributes(
			attribute.String("token_a", tokenA.Hex()),
			attribute.String("token_b", tokenB.Hex()),
		),
	)
	defer span.End()

	out, err := r.call(ctx, r.factory, r.factoryABI, "getPair", tokenA, tokenB)
	if err != nil {
		span.RecordError(err)
		return common.Address{}, err
	}

	pair, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext("getPair: unexpected output type"))
	}
	return pair, nil
}

// Reserves reads getReserves plus the pair's token ordering.
func (r *Reader) Reserves(ctx context.Context, pair common.Address) (domain.PairReserves, error) {
	ctx, span := r.tracer.Start(ctx, "pancake.get_reserves",
		trace.WithAttributes(attribute.String("pair", pair.Hex())),
	)
	defer span.End()

	tokens, err := r.pairTokens(ctx, pair)
	if err != nil {
		span.RecordError(err)
		return domain.PairReserves{}, err
	}

	out, err := r.call(ctx, pair, r.pairABI, "getReserves")
	if err != nil {
		span.RecordError(err)
		return domain.PairReserves{}, err
	}
	if len(out) < 2 {
		return domain.PairReserves{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("getReserves: unexpected output length %d", len(out))))
	}

	reserve0, ok0 := out[0].(*big.Int)
	reserve1, ok1 := out[1].(*big.Int)
	if !ok0 || !ok1 {
		return domain.PairReserves{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext("getReserves: unexpected output type"))
	}

	span.SetAttributes(
		attribute.String("reserve0", reserve0.String()),
		attribute.String("reserve1", reserve1.String()),
	)

	return domain.PairReserves{
		Pair:     pair,
		Token0:   tokens.token0,
		Token1:   tokens.token1,
		Reserve0: reserve0,
		Reserve1: reserve1,
	}, nil
}

func (r *Reader) pairTokens(ctx context.Context, pair common.Address) (pairTokens, error) {
	r.tokensMu.RLock()
	t, ok := r.tokens[pair]
	r.tokensMu.RUnlock()
	if ok {
		return t, nil
	}

	token0, err := r.address(ctx, pair, "token0")
	if err != nil {
		return pairTokens{}, err
	}
	token1, err := r.address(ctx, pair, "token1")
	if err != nil {
		return pairTokens{}, err
	}

	t = pairTokens{token0: token0, token1: token1}
	r.tokensMu.Lock()
	r.tokens[pair] = t
	r.tokensMu.Unlock()
	return t, nil
}

func (r *Reader) address(ctx context.Context, contract common.Address, method string) (common.Address, error) {
	out, err := r.call(ctx, contract, r.pairABI, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(method+": unexpected output type"))
	}
	return addr, nil
}

// call packs, executes through the breaker and unpacks a view method.
func (r *Reader) call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	result, err := r.cb.Execute(func() ([]byte, error) {
		return r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s on %s", method, to.Hex())),
			apperror.AsTransient())
	}

	out, err := contract.Unpack(method, result)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("decode "+method),
			apperror.AsTransient())
	}
	if len(out) == 0 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(method+": empty output"))
	}
	return out, nil
}
