package domain

// CurrencyInfo is a venue's listing metadata for one symbol.
type CurrencyInfo struct {
	Symbol          string
	Name            string
	WithdrawEnabled bool
	DepositEnabled  bool
}

// Listing indexes CurrencyInfo by symbol for one venue and tick.
type Listing map[string]CurrencyInfo

// NewListing builds a Listing from a slice.
func NewListing(infos []CurrencyInfo) Listing {
	l := make(Listing, len(infos))
	for _, ci := range infos {
		l[ci.Symbol] = ci
	}
	return l
}

// Lookup returns the info for symbol, if listed.
func (l Listing) Lookup(symbol string) (CurrencyInfo, bool) {
	if l == nil {
		return CurrencyInfo{}, false
	}
	ci, ok := l[symbol]
	return ci, ok
}
