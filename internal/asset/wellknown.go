package asset

import "github.com/ethereum/go-ethereum/common"

const (
	ChainIDEthereum = 1
	ChainIDBSC      = 56
)

// PancakeSwap quote assets on BNB Smart Chain.
var (
	AddrWBNBBSC = common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	AddrBUSDBSC = common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56")
	AddrUSDTBSC = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
	AddrUSDCBSC = common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d")
)

var (
	WBNB = MustNewToken(ChainIDBSC, AddrWBNBBSC, "WBNB", "Wrapped BNB", 18)
	BUSD = MustNewToken(ChainIDBSC, AddrBUSDBSC, "BUSD", "Binance USD", 18)
	// BSC-peg stables use 18 decimals, unlike their Ethereum originals.
	USDT = MustNewToken(ChainIDBSC, AddrUSDTBSC, "USDT", "Tether USD", 18)
	USDC = MustNewToken(ChainIDBSC, AddrUSDCBSC, "USDC", "USD Coin", 18)
)

// DefaultRegistry returns a registry seeded with the quote assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{WBNB, BUSD, USDT, USDC} {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}
