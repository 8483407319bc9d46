package asset_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-scanner/internal/asset"
)

var tknAddr = common.HexToAddress("0x0000000000000000000000000000000000000abc")

func TestAmount_ToDecimal(t *testing.T) {
	nineDec := asset.MustNewToken(asset.ChainIDBSC, tknAddr, "TKN", "Token", 9)

	tests := []struct {
		name  string
		asset *asset.Asset
		raw   *big.Int
		want  string
	}{
		{"one wbnb", asset.WBNB, big.NewInt(1e18), "1"},
		{"nine decimals", nineDec, big.NewInt(2_500_000_000), "2.5"},
		{"nil raw is zero", nineDec, nil, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asset.NewAmount(tt.asset, tt.raw).ToDecimal()
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ToDecimal = %s, want %s", got, tt.want)
			}
		})
	}

	if s := asset.NewAmount(asset.WBNB, big.NewInt(15e17)).String(); s != "1.5 WBNB" {
		t.Errorf("String = %q", s)
	}
}

func TestNewAmount_CopiesRaw(t *testing.T) {
	raw := big.NewInt(10)
	amt := asset.NewAmount(asset.BUSD, raw)
	raw.SetInt64(99)
	if amt.Raw().Int64() != 10 {
		t.Errorf("amount aliased caller's big.Int: %s", amt.Raw())
	}
}

func TestFromDecimal(t *testing.T) {
	amt, err := asset.FromDecimal(asset.WBNB, decimal.RequireFromString("1.5"))
	if err != nil {
		t.Fatalf("FromDecimal: %v", err)
	}
	want, _ := new(big.Int).SetString("1500000000000000000", 10)
	if amt.Raw().Cmp(want) != 0 {
		t.Errorf("raw = %s, want %s", amt.Raw(), want)
	}

	cents := asset.MustNewToken(asset.ChainIDBSC, tknAddr, "CNT", "Cents", 2)
	if _, err := asset.FromDecimal(cents, decimal.RequireFromString("1.001")); !errors.Is(err, asset.ErrTooManyDecimals) {
		t.Errorf("err = %v, want ErrTooManyDecimals", err)
	}
	if _, err := asset.FromDecimal(cents, decimal.RequireFromString("-1")); !errors.Is(err, asset.ErrNegativeAmount) {
		t.Errorf("err = %v, want ErrNegativeAmount", err)
	}
}

func TestNewToken_Validation(t *testing.T) {
	tests := []struct {
		name     string
		addr     common.Address
		symbol   string
		decimals uint8
	}{
		{"empty symbol", tknAddr, "", 18},
		{"zero address", common.Address{}, "TKN", 18},
		{"too many decimals", tknAddr, "TKN", 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := asset.NewToken(asset.ChainIDBSC, tt.addr, tt.symbol, tt.symbol, tt.decimals); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := asset.DefaultRegistry()

	if usdt, ok := r.BySymbol(asset.ChainIDBSC, "USDT"); !ok || usdt.Decimals() != 18 {
		t.Fatalf("USDT lookup = %v, %v", usdt, ok)
	}

	// Known address keeps its registered metadata.
	wbnb, err := r.Resolve(asset.ChainIDBSC, asset.AddrWBNBBSC, "WETH", 6)
	if err != nil || wbnb != asset.WBNB {
		t.Fatalf("Resolve(WBNB) = %v, %v", wbnb, err)
	}

	before := r.Len()
	tkn, err := r.Resolve(asset.ChainIDBSC, tknAddr, "TKN", 9)
	if err != nil || tkn.Decimals() != 9 {
		t.Fatalf("Resolve(TKN) = %v, %v", tkn, err)
	}
	if r.Len() != before+1 {
		t.Errorf("Len = %d, want %d", r.Len(), before+1)
	}
	if again, _ := r.Resolve(asset.ChainIDBSC, tknAddr, "TKN", 9); again != tkn {
		t.Error("second Resolve should return the registered asset")
	}

	clash, err := r.Resolve(asset.ChainIDBSC, common.HexToAddress("0x0def"), "TKN", 18)
	if err == nil || clash == nil {
		t.Errorf("symbol clash = %v, %v; want asset and error", clash, err)
	}
	if _, ok := r.Token(asset.ChainIDBSC, common.HexToAddress("0x0def")); ok {
		t.Error("clashing asset should not be registered")
	}
}

func TestAssetID_Identity(t *testing.T) {
	a := asset.NewTokenAssetID(asset.ChainIDBSC, asset.AddrWBNBBSC)
	b := asset.NewTokenAssetID(asset.ChainIDBSC, asset.AddrWBNBBSC)
	if !a.Equals(b) {
		t.Error("same asset should have equal IDs")
	}
	if a.Equals(asset.NewTokenAssetID(asset.ChainIDEthereum, asset.AddrWBNBBSC)) {
		t.Error("different chains should have different IDs")
	}
}
