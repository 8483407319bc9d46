package components

import (
	"sort"
	"time"

	"github.com/fd1az/liquidity-scanner/pkg/ui/theme"
)

// ConnectionStatus represents a feed's status.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	LastUpdate time.Time
}

// StatusComponent renders feed connection status.
type StatusComponent struct {
	connections []ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{
		connections: make([]ConnectionStatus, 0),
	}
}

// Update updates a connection's status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	for i, conn := range s.connections {
		if conn.Name == status.Name {
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
	sort.Slice(s.connections, func(i, j int) bool {
		return s.connections[i].Name < s.connections[j].Name
	})
}

// Connected reports whether name is known and connected.
func (s *StatusComponent) Connected(name string) bool {
	for _, conn := range s.connections {
		if conn.Name == name {
			return conn.Connected
		}
	}
	return false
}

// Inline renders all connections on one line.
func (s *StatusComponent) Inline() []string {
	parts := make([]string, 0, len(s.connections))
	for _, conn := range s.connections {
		parts = append(parts, theme.Status(conn.Name, conn.Connected))
	}
	return parts
}
