// Package domain contains the core domain types for the arbitrage context.
package domain

// Direction represents the arbitrage trade direction.
type Direction string

const (
	// DirectionForward means buy on the DEX, sell on the venue's bids.
	DirectionForward Direction = "FORWARD"

	// DirectionReverse means buy from the venue's asks, sell on the DEX.
	DirectionReverse Direction = "REVERSE"
)

// String returns a human-readable description of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "DEX → CEX (Buy on PancakeSwap, Sell on venue)"
	case DirectionReverse:
		return "CEX → DEX (Buy on venue, Sell on PancakeSwap)"
	default:
		return "Unknown"
	}
}

// Short returns a compact label for tables.
func (d Direction) Short() string {
	switch d {
	case DirectionForward:
		return "DEX→CEX"
	case DirectionReverse:
		return "CEX→DEX"
	default:
		return "?"
	}
}
