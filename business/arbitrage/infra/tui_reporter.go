package infra

import (
	"context"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/app"
	"github.com/fd1az/liquidity-scanner/pkg/ui"
)

var _ app.Reporter = (*TUIReporter)(nil)

// TUIReporter forwards scan results to the Bubble Tea program.
type TUIReporter struct {
	debug bool
	send  func(msg any)
}

// NewTUIReporter creates a TUIReporter. debug marks the table as unfiltered.
func NewTUIReporter(debug bool) *TUIReporter {
	return &TUIReporter{
		debug: debug,
		send:  func(msg any) { ui.Send(msg) },
	}
}

// Start is a no-op; the program is started by main.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// Report sends the tick's display rows and errors to the TUI.
func (r *TUIReporter) Report(ctx context.Context, res *app.ScanResult) {
	errs := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		errs = append(errs, e.Error())
	}
	r.send(ui.ScanResultMsg{
		TickID:          res.TickID,
		At:              res.StartedAt.Add(res.Duration),
		Duration:        res.Duration,
		Rows:            evaluationRows(res.Display),
		Total:           len(res.Ranked),
		Debug:           r.debug,
		Errors:          errs,
		ProfitAlerts:    res.Alerts.ProfitAlerts,
		LiquidityAlerts: res.Alerts.LiquidityAlerts,
	})
}

// UpdateConnectionStatus sends a feed status change to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool) {
	r.send(ui.ConnectionStatusMsg{Name: name, Connected: connected})
}

// Stop is a no-op; main owns the program lifecycle.
func (r *TUIReporter) Stop() error {
	return nil
}
