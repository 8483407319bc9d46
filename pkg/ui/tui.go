package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/liquidity-scanner/pkg/ui/components"
	"github.com/fd1az/liquidity-scanner/pkg/ui/theme"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "failed", "done"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const maxErrors = 5

// startupOrder lists the startup steps in display order.
var startupOrder = []string{"config", "chain", "bitmart", "lbank"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	evaluations *components.EvaluationsComponent
	stats       *components.StatsComponent
	feeds       *components.StatusComponent
	keys        KeyMap
	help        help.Model

	phase        Phase
	welcomeStart time.Time

	ready      bool
	quitting   bool
	paused     bool
	width      int
	height     int
	lastUpdate time.Time
	lastTickID string
	errors     []ErrorEntry
	logs       []string

	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		evaluations:  components.NewEvaluationsComponent(20),
		stats:        components.NewStatsComponent(),
		feeds:        components.NewStatusComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		logs:         make([]string, 0, 10),
		errors:       make([]ErrorEntry, 0, maxErrors),
		startupSteps: map[string]*StartupStep{
			"config":  {Name: "Loading configuration", Status: "pending"},
			"chain":   {Name: "Connecting to BSC", Status: "pending"},
			"bitmart": {Name: "Subscribing to Bitmart", Status: "pending"},
			"lbank":   {Name: "Polling LBank", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) leaveWelcome() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Called directly; Send() must not be used from within Update.
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m.leaveWelcome()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.evaluations.Clear()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Up):
			m.evaluations.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.evaluations.ScrollDown()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, maxErrors)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.evaluations.SetHeight(msg.Height - 18)
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.leaveWelcome()
		}
		return m, tickCmd()

	case ScanResultMsg:
		m.startupComplete = true
		if m.phase == PhaseStartup {
			m.phase = PhaseDashboard
		}
		m.lastTickID = msg.TickID
		m.lastUpdate = msg.At

		st := m.stats.Stats()
		st.Ticks++
		st.Evaluations = msg.Total
		st.Displayed = len(msg.Rows)
		st.ProfitAlerts += int64(msg.ProfitAlerts)
		st.LiquidityAlerts += int64(msg.LiquidityAlerts)
		st.TickErrors += int64(len(msg.Errors))
		st.LastTick = msg.Duration
		m.stats.Update(st)

		for _, e := range msg.Errors {
			m.errors = addError(m.errors, e, msg.At)
		}
		// Paused freezes the table only; stats and errors keep counting.
		if !m.paused {
			m.evaluations.Update(msg.Rows, msg.Total, msg.Debug)
		}

	case ConnectionStatusMsg:
		m.feeds.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			LastUpdate: time.Now(),
		})
		m.lastUpdate = time.Now()

		if step, ok := m.startupSteps[strings.ToLower(msg.Name)]; ok {
			if msg.Connected {
				step.Status = "connected"
			} else {
				step.Status = "connecting"
			}
		}
		if step := m.startupSteps["config"]; step != nil {
			step.Status = "done"
		}

	case ErrorMsg:
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = addError(m.errors, msg.Error.Error(), time.Now())

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		allConnected := true
		for _, step := range m.startupSteps {
			if step.Status != "connected" && step.Status != "done" {
				allConnected = false
				break
			}
		}
		if allConnected {
			m.startupComplete = true
		}
	}

	return m, nil
}

func addError(errs []ErrorEntry, message string, at time.Time) []ErrorEntry {
	errs = append(errs, ErrorEntry{Message: message, Timestamp: at})
	if len(errs) > maxErrors {
		errs = errs[len(errs)-maxErrors:]
	}
	return errs
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if !m.startupComplete {
			return m.renderStartupScreen()
		}
	}

	var b strings.Builder

	b.WriteString(theme.Title.Render(" DEX ⇄ CEX Liquidity Scanner "))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	width := m.width - 4
	if width < 40 {
		width = 40
	}
	b.WriteString(theme.Panel.Width(width).Render(m.evaluations.View()))
	b.WriteString("\n")
	b.WriteString(theme.Panel.Width(width).Render(m.stats.View()))
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := theme.Fail
		errorHeader := theme.Fail.Bold(true)
		mutedError := theme.Note

		b.WriteString(errorHeader.Render("TICK ERRORS"))
		b.WriteString(mutedError.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedError.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		pauseStyle := theme.Warn.Bold(true)
		b.WriteString(pauseStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(theme.Help.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := theme.Heading
	goldStyle := theme.Warn.Bold(true)
	mutedStyle := theme.Dim
	greenStyle := theme.Ok

	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ██████╗ ███████╗██╗  ██╗    ██████╗███████╗██╗  ██╗
   ██╔══██╗██╔════╝╚██╗██╔╝   ██╔════╝██╔════╝╚██╗██╔╝
   ██║  ██║█████╗   ╚███╔╝ ⇄  ██║     █████╗   ╚███╔╝
   ██║  ██║██╔══╝   ██╔██╗    ██║     ██╔══╝   ██╔██╗
   ██████╔╝███████╗██╔╝ ██╗   ╚██████╗███████╗██╔╝ ██╗
   ╚═════╝ ╚══════╝╚═╝  ╚═╝    ╚═════╝╚══════╝╚═╝  ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")

	sb.WriteString(mutedStyle.Render("          L I Q U I D I T Y   S C A N N E R"))
	sb.WriteString("\n\n\n")

	sb.WriteString(goldStyle.Render("        BSC pools against Bitmart and LBank books"))
	sb.WriteString("\n\n\n")

	sb.WriteString(greenStyle.Render(fmt.Sprintf("                  Initializing%s", dots)))
	sb.WriteString("\n\n")

	sb.WriteString(mutedStyle.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := theme.Heading.MarginBottom(1)
	headerStyle := theme.Value
	mutedStyle := theme.Dim
	successStyle := theme.Ok
	connectingStyle := theme.Warn
	failedStyle := theme.Fail

	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  DEX ⇄ CEX Liquidity Scanner"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range startupOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon = "✓"
			statusText = "Ready"
			style = successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon = spinners[idx]
			statusText = "Connecting..."
			style = connectingStyle
		case "failed":
			icon = "✗"
			statusText = "Failed"
			style = failedStyle
		default:
			icon = "○"
			statusText = "Pending"
			style = mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")

	if len(m.logs) > 0 {
		for _, l := range m.logs {
			sb.WriteString(mutedStyle.Render("  " + l))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(mutedStyle.Render("  Waiting for the first scan..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if !m.lastUpdate.IsZero() && time.Since(m.lastUpdate) < 500*time.Millisecond {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		scanningStyle := theme.Ok.Bold(true)
		parts = append(parts, scanningStyle.Render(spinners[idx]+" Scanning"))
	}

	if m.lastTickID != "" {
		parts = append(parts, theme.Dim.Render("Tick: "+shortID(m.lastTickID)))
	}

	parts = append(parts, m.feeds.Inline()...)

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, theme.Dim.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// main sets it to begin loading modules.
var OnStartModules func()

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
