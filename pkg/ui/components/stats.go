package components

import (
	"fmt"
	"time"

	"github.com/fd1az/liquidity-scanner/pkg/ui/theme"
)

// Stats holds scan statistics for display.
type Stats struct {
	Ticks           int64
	Evaluations     int
	Displayed       int
	ProfitAlerts    int64
	LiquidityAlerts int64
	TickErrors      int64
	LastTick        time.Duration
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := theme.Dim
	valueStyle := theme.Value
	errorStyle := theme.Fail.Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.TickErrors))
	if s.stats.TickErrors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.TickErrors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Ticks: %s  │  Evaluations: %s  │  Shown: %s  │  Last tick: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Ticks)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Evaluations)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Displayed)),
			valueStyle.Render(s.stats.LastTick.Round(time.Millisecond).String()),
		) +
		fmt.Sprintf("Profit alerts: %s  │  Liquidity alerts: %s  │  Tick errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.ProfitAlerts)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.LiquidityAlerts)),
			errorsDisplay,
		)
}
