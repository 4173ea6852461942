package portfolio

import "context"

// QuoteProvider answers the last known market price for one symbol of a
// given class. Implementations are expected to batch upstream requests and
// answer per-symbol lookups from a memoized table, since the sources publish
// whole tables rather than per-symbol endpoints.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string, class AssetType) (Quote, error)
}

// ProviderFunc adapts a function to the QuoteProvider interface.
type ProviderFunc func(ctx context.Context, symbol string, class AssetType) (Quote, error)

func (f ProviderFunc) Quote(ctx context.Context, symbol string, class AssetType) (Quote, error) {
	return f(ctx, symbol, class)
}

// MultiProvider routes fund quotes to one provider and everything else to
// another, mirroring the two upstream sources.
type MultiProvider struct {
	Funds   QuoteProvider
	General QuoteProvider
}

func (m MultiProvider) Quote(ctx context.Context, symbol string, class AssetType) (Quote, error) {
	if class == Fund {
		return m.Funds.Quote(ctx, symbol, class)
	}
	return m.General.Quote(ctx, symbol, class)
}
