package domain

import (
	"errors"
	"slices"

	"github.com/shopspring/decimal"

	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

// ErrNoVenues is returned for a token without enabled venues.
var ErrNoVenues = errors.New("token must have at least one venue")

// TokenConfiguration is a monitored token. It is immutable for the process lifetime.
type TokenConfiguration struct {
	Symbol     string
	Blockchain string
	// Tax is the token's transfer tax in percent, subtracted from both directions.
	Tax             decimal.Decimal
	Venues          []md.Venue
	ReverseDisabled []md.Venue
}

// NewTokenConfiguration validates and builds a token configuration.
func NewTokenConfiguration(symbol, blockchain string, tax decimal.Decimal, venues, reverseDisabled []md.Venue) (TokenConfiguration, error) {
	if len(venues) == 0 {
		return TokenConfiguration{}, ErrNoVenues
	}
	return TokenConfiguration{
		Symbol:          symbol,
		Blockchain:      blockchain,
		Tax:             tax,
		Venues:          slices.Clone(venues),
		ReverseDisabled: slices.Clone(reverseDisabled),
	}, nil
}

// IsReverseDisabled reports whether reverse trades are excluded on venue.
func (t TokenConfiguration) IsReverseDisabled(venue md.Venue) bool {
	return slices.Contains(t.ReverseDisabled, venue)
}
