package ui

import (
	"time"

	"github.com/fd1az/liquidity-scanner/pkg/ui/components"
)

// Message types for TUI updates

// ScanResultMsg is sent after every scan tick. Rows are pre-formatted; the UI
// does not compute anything.
type ScanResultMsg struct {
	TickID          string
	At              time.Time
	Duration        time.Duration
	Rows            []components.EvaluationRow
	Total           int
	Debug           bool
	Errors          []string
	ProfitAlerts    int
	LiquidityAlerts int
}

// ConnectionStatusMsg is sent when a feed's connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
