package lbank

import (
	"encoding/json"
	"fmt"
	"strings"
)

const quoteSuffix = "_usdt"

// MarketSymbol converts "TKN" to LBank's "tkn_usdt".
func MarketSymbol(symbol string) string {
	return strings.ToLower(symbol) + quoteSuffix
}

// BaseSymbolFromPair returns the upper-cased base of a USDT pair, or false for other quotes.
func BaseSymbolFromPair(pair string) (string, bool) {
	pair = strings.ToLower(pair)
	if !strings.HasSuffix(pair, quoteSuffix) {
		return "", false
	}
	base := strings.TrimSuffix(pair, quoteSuffix)
	if base == "" {
		return "", false
	}
	return strings.ToUpper(base), true
}

// depthResponse is the v2 depth.do payload.
type depthResponse struct {
	Result    any       `json:"result"` // "true" or true depending on gateway
	ErrorCode int       `json:"error_code"`
	Msg       string    `json:"msg"`
	Data      depthData `json:"data"`
	TS        int64     `json:"ts"`
}

type depthData struct {
	Asks      [][]json.Number `json:"asks"`
	Bids      [][]json.Number `json:"bids"`
	Timestamp int64           `json:"timestamp"`
}

func (r *depthResponse) ok() bool {
	switch v := r.Result.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return r.ErrorCode == 0
}

// rows converts number-or-string pairs into the string rows domain.ParseLevels expects.
func rows(levels [][]json.Number) [][]string {
	out := make([][]string, 0, len(levels))
	for _, l := range levels {
		row := make([]string, len(l))
		for i, n := range l {
			row[i] = n.String()
		}
		out = append(out, row)
	}
	return out
}

// APIError represents an LBank error payload.
type APIError struct {
	ErrorCode int    `json:"error_code"`
	Msg       string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lbank API error %d: %s", e.ErrorCode, e.Msg)
}
