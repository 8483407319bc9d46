package infra

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	"github.com/fd1az/liquidity-scanner/pkg/ui/components"
)

const absent = "-"

func formatPercent(f float64) string {
	switch {
	case math.IsNaN(f):
		return absent
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return absent
	}
	return d.Decimal.StringFixed(6)
}

func formatRatio(d decimal.NullDecimal) string {
	if !d.Valid {
		return absent
	}
	return d.Decimal.StringFixed(3)
}

// formatMovable is "F", "R", "FR" or "-".
func formatMovable(ev *domain.TokenEvaluation) string {
	s := ""
	if ev.ForwardMovable {
		s += "F"
	}
	if ev.ReverseMovable {
		s += "R"
	}
	if s == "" {
		return absent
	}
	return s
}

func evaluationRow(ev *domain.TokenEvaluation) components.EvaluationRow {
	return components.EvaluationRow{
		Symbol:    ev.Symbol,
		Venue:     ev.Venue.DisplayName(),
		Price:     formatPrice(ev.OnChainPrice),
		Bid:       formatPrice(ev.BestBid),
		Ask:       formatPrice(ev.BestAsk),
		Forward:   formatPercent(ev.ForwardProfit),
		Reverse:   formatPercent(ev.ReverseProfit),
		Ratio:     formatRatio(ev.SpreadRatio),
		Movable:   formatMovable(ev),
		Liquidity: ev.Liquidity.String(),
	}
}

func evaluationRows(evals []*domain.TokenEvaluation) []components.EvaluationRow {
	rows := make([]components.EvaluationRow, 0, len(evals))
	for _, ev := range evals {
		rows = append(rows, evaluationRow(ev))
	}
	return rows
}
