package domain

import (
	"math"
	"sort"
)

// RankByMaxProfit returns evals sorted by descending MaxProfit. The sort is
// stable; finite values come first, then infinities, then NaN.
func RankByMaxProfit(evals []*TokenEvaluation) []*TokenEvaluation {
	ranked := make([]*TokenEvaluation, len(evals))
	copy(ranked, evals)

	sort.SliceStable(ranked, func(i, j int) bool {
		return profitLess(ranked[i].MaxProfit(), ranked[j].MaxProfit())
	})
	return ranked
}

// profitLess orders a before b.
func profitLess(a, b float64) bool {
	ra, rb := profitRank(a), profitRank(b)
	if ra != rb {
		return ra < rb
	}
	if ra == 0 {
		return a > b
	}
	return false
}

func profitRank(f float64) int {
	switch {
	case math.IsNaN(f):
		return 2
	case math.IsInf(f, 0):
		return 1
	}
	return 0
}

// SelectForDisplay picks the rows to show. Debug mode shows everything,
// otherwise only rows passing the display filter, capped at topN (0 = no cap).
func SelectForDisplay(ranked []*TokenEvaluation, threshold float64, topN int, debug bool) []*TokenEvaluation {
	if debug {
		return ranked
	}

	out := make([]*TokenEvaluation, 0, min(len(ranked), max(topN, 0)))
	for _, e := range ranked {
		if !e.IsProfitableAndRatioProfitable(threshold) {
			continue
		}
		out = append(out, e)
		if topN > 0 && len(out) == topN {
			break
		}
	}
	return out
}
