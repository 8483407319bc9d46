// Package infra contains presentation adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/app"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "DEX ⇄ CEX Liquidity Scanner Started")
	fmt.Fprintln(r.out, "===================================")
	return nil
}

// Report prints the display selection of one tick as a table.
func (r *ConsoleReporter) Report(ctx context.Context, res *app.ScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Tick %s  %s  (%s)\n",
		res.TickID, res.StartedAt.Format(time.RFC3339), res.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.out, "Evaluations: %d  Shown: %d  Profit alerts: %d  Liquidity alerts: %d  Errors: %d\n",
		len(res.Ranked), len(res.Display), res.Alerts.ProfitAlerts, res.Alerts.LiquidityAlerts, len(res.Errors))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")

	if len(res.Display) == 0 {
		fmt.Fprintln(r.out, "No opportunities above threshold.")
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Token", "Venue", "DEX $", "Bid", "Ask", "Fwd %", "Rev %", "Ratio", "Move", "Liq")
		for _, row := range evaluationRows(res.Display) {
			t.Row(row.Symbol, row.Venue, row.Price, row.Bid, row.Ask,
				row.Forward, row.Reverse, row.Ratio, row.Movable, row.Liquidity)
		}
		fmt.Fprintln(r.out, t.String())
	}

	if len(res.Errors) > 0 {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "ERRORS")
		for _, e := range res.Errors {
			fmt.Fprintf(r.out, "  • %s\n", e.Error())
		}
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "disconnected"
	if connected {
		status = "connected"
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// Stop prints the shutdown line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Scanner stopped")
	return nil
}
