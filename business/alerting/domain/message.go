// Package domain contains alert messages for the alerting context.
package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	arb "github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
)

// Kind classifies an alert.
type Kind string

const (
	KindProfit    Kind = "profit"
	KindLiquidity Kind = "liquidity"
)

// Field is one labelled line of an alert.
type Field struct {
	Name  string
	Value string
}

// Message is a channel-neutral alert. Senders render it in their own format.
type Message struct {
	Kind   Kind
	Title  string
	Fields []Field
	At     time.Time
}

// ProfitMessage describes a profitable direction for one token on one venue.
func ProfitMessage(ev *arb.TokenEvaluation, d arb.Direction, threshold float64) Message {
	fields := []Field{
		{Name: "Direction", Value: d.String()},
		{Name: "Profit", Value: percent(ev.Profit(d))},
		{Name: "Threshold", Value: percent(threshold)},
		{Name: "PancakeSwap price", Value: usd(ev.OnChainPrice)},
	}
	if d == arb.DirectionForward {
		fields = append(fields, Field{Name: ev.Venue.DisplayName() + " bid", Value: usd(ev.BestBid)})
	} else {
		fields = append(fields, Field{Name: ev.Venue.DisplayName() + " ask", Value: usd(ev.BestAsk)})
	}
	fields = append(fields,
		Field{Name: "Spread ratio", Value: plain(ev.SpreadRatio)},
		Field{Name: "Pool liquidity", Value: plain(ev.OnChainLiquidity)},
	)
	if !ev.Tax.IsZero() {
		fields = append(fields, Field{Name: "Token tax", Value: ev.Tax.String() + "%"})
	}

	return Message{
		Kind:   KindProfit,
		Title:  fmt.Sprintf("%s on %s: %s %s", ev.Symbol, ev.Venue.DisplayName(), d.Short(), percent(ev.Profit(d))),
		Fields: fields,
		At:     ev.EvaluatedAt,
	}
}

// LiquidityMessage warns that a token's pool is below the liquidity threshold.
func LiquidityMessage(ev *arb.TokenEvaluation) Message {
	return Message{
		Kind:  KindLiquidity,
		Title: fmt.Sprintf("%s: low PancakeSwap liquidity", ev.Symbol),
		Fields: []Field{
			{Name: "Pool liquidity", Value: plain(ev.OnChainLiquidity)},
			{Name: "Venue", Value: ev.Venue.DisplayName()},
			{Name: "PancakeSwap price", Value: usd(ev.OnChainPrice)},
			{Name: "Best profit", Value: percent(ev.MaxProfit())},
		},
		At: ev.EvaluatedAt,
	}
}

func percent(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(f, 'f', 2, 64) + "%"
}

func usd(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return "$" + d.Decimal.String()
}

func plain(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return d.Decimal.Round(4).String()
}
