// Package bitmart implements the Bitmart order book feed and currency listing.
package bitmart

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	quoteSuffix = "_USDT"

	tableDepthPrefix    = "spot/depth"
	tableIncreasePrefix = "spot/depth/increase"

	depthTypeSnapshot = "snapshot"

	successCode = 1000
)

// MarketSymbol converts a token symbol to Bitmart's market id (TKN -> TKN_USDT).
func MarketSymbol(symbol string) string {
	return strings.ToUpper(symbol) + quoteSuffix
}

// BaseSymbol converts a Bitmart market id back to the token symbol.
func BaseSymbol(market string) string {
	return strings.TrimSuffix(strings.ToUpper(market), quoteSuffix)
}

// DepthChannel returns the full-book channel for a depth of 5, 20 or 50.
func DepthChannel(depth int) string {
	switch depth {
	case 5, 20, 50:
	default:
		depth = 20
	}
	return fmt.Sprintf("spot/depth%d", depth)
}

// IncreaseChannel returns the incremental depth channel.
func IncreaseChannel() string {
	return "spot/depth/increase100"
}

// wsRequest is a subscribe/unsubscribe request.
type wsRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

// wsEvent is any frame pushed by the public stream.
type wsEvent struct {
	Table        string          `json:"table"`
	Data         json.RawMessage `json:"data"`
	Event        string          `json:"event"`
	ErrorCode    string          `json:"errorCode"`
	ErrorMessage string          `json:"errorMessage"`
}

// depthData is one book message. Type is only set on the incremental channel.
type depthData struct {
	Symbol    string     `json:"symbol"`
	Asks      [][]string `json:"asks"`
	Bids      [][]string `json:"bids"`
	Timestamp int64      `json:"ms_t"`
	Type      string     `json:"type"`
	Version   int64      `json:"version"`
}

// currenciesResponse is GET /spot/v1/currencies.
type currenciesResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Trace   string `json:"trace"`
	Data    struct {
		Currencies []currency `json:"currencies"`
	} `json:"data"`
}

type currency struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	WithdrawEnabled bool   `json:"withdraw_enabled"`
	DepositEnabled  bool   `json:"deposit_enabled"`
}

// APIError is a non-success Bitmart envelope.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bitmart API error %d: %s", e.Code, e.Message)
}
