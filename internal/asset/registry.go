package asset

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type symbolKey struct {
	chain  uint64
	symbol string
}

// Registry maps token contracts to Assets. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byID     map[AssetID]*Asset
	bySymbol map[symbolKey]*Asset
}

func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[AssetID]*Asset),
		bySymbol: make(map[symbolKey]*Asset),
	}
}

// Register adds a; a symbol may appear once per chain.
func (r *Registry) Register(a *Asset) error {
	if a == nil {
		return ErrNilAsset
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(a)
}

func (r *Registry) addLocked(a *Asset) error {
	if _, ok := r.byID[a.ID()]; ok {
		return fmt.Errorf("asset: %s already registered", a.ID())
	}
	sk := symbolKey{a.ChainID(), a.Symbol()}
	if other, ok := r.bySymbol[sk]; ok {
		return fmt.Errorf("asset: symbol %s on chain %d already bound to %s", a.Symbol(), a.ChainID(), other.Address().Hex())
	}
	r.byID[a.ID()] = a
	r.bySymbol[sk] = a
	return nil
}

// Resolve returns the asset at addr, creating and registering it from symbol and
// decimals when unknown. A symbol clash leaves the new asset unregistered but
// still returns it alongside the error.
func (r *Registry) Resolve(chainID uint64, addr common.Address, symbol string, decimals uint8) (*Asset, error) {
	if a, ok := r.Token(chainID, addr); ok {
		return a, nil
	}
	a, err := NewToken(chainID, addr, symbol, symbol, decimals)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[a.ID()]; ok {
		return existing, nil
	}
	return a, r.addLocked(a)
}

// Token looks up by contract address.
func (r *Registry) Token(chainID uint64, addr common.Address) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[NewTokenAssetID(chainID, addr)]
	return a, ok
}

func (r *Registry) BySymbol(chainID uint64, symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.bySymbol[symbolKey{chainID, symbol}]
	return a, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
