package domain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-scanner/internal/asset"
)

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad int " + s)
	}
	return v
}

func TestSpotPrice(t *testing.T) {
	tkn := asset.MustNewToken(asset.ChainIDBSC, common.HexToAddress("0x01"), "TKN", "TKN", 9)

	tests := []struct {
		name     string
		reserves PairReserves
		want     string
		wantErr  error
	}{
		{
			// 1000 TKN (9 decimals) against 2 WBNB: 0.002 WBNB per TKN
			name: "token0_is_base",
			reserves: PairReserves{
				Token0: tkn.Address(), Token1: asset.AddrWBNBBSC,
				Reserve0: wei("1000000000000"), Reserve1: wei("2000000000000000000"),
			},
			want: "0.002",
		},
		{
			name: "token1_is_base",
			reserves: PairReserves{
				Token0: asset.AddrWBNBBSC, Token1: tkn.Address(),
				Reserve0: wei("2000000000000000000"), Reserve1: wei("1000000000000"),
			},
			want: "0.002",
		},
		{
			name: "empty_pool",
			reserves: PairReserves{
				Token0: tkn.Address(), Token1: asset.AddrWBNBBSC,
				Reserve0: big.NewInt(0), Reserve1: wei("2000000000000000000"),
			},
			wantErr: ErrEmptyPool,
		},
		{
			name: "token_missing",
			reserves: PairReserves{
				Token0: asset.AddrBUSDBSC, Token1: asset.AddrWBNBBSC,
				Reserve0: big.NewInt(1), Reserve1: big.NewInt(1),
			},
			wantErr: ErrTokenNotInPair,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.reserves.SpotPrice(tkn, asset.WBNB)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SpotPrice: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("SpotPrice = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDepth(t *testing.T) {
	r := PairReserves{
		Token0: asset.AddrWBNBBSC, Token1: common.HexToAddress("0x01"),
		Reserve0: wei("42500000000000000000"), Reserve1: big.NewInt(1),
	}
	got, err := r.Depth(asset.WBNB)
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("Depth = %s, want 42.5", got)
	}
}
