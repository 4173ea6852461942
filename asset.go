package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/emrek92/Portfoy-Takip/date"
)

// AssetType is the closed set of asset classes the tracker knows about.
// The persisted representation keeps the original Turkish class names so an
// existing database remains readable.
type AssetType int

const (
	Fund AssetType = iota // "fon"
	Equity
	Crypto
	FX
	Commodity
	Index
)

// Refresh TTLs per asset class. Funds are published once per business day by
// TEFAS, everything else trades intraday.
const (
	fundTTL    = 4 * time.Hour
	generalTTL = 15 * time.Minute
)

func (t AssetType) String() string {
	switch t {
	case Fund:
		return "fon"
	case Equity:
		return "hisse"
	case Crypto:
		return "kripto"
	case FX:
		return "doviz"
	case Commodity:
		return "emtia"
	case Index:
		return "endeks"
	default:
		return "unknown"
	}
}

// ParseAssetType parses a persisted asset class name.
func ParseAssetType(s string) (AssetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fon", "fund":
		return Fund, nil
	case "hisse", "equity", "stock":
		return Equity, nil
	case "kripto", "crypto":
		return Crypto, nil
	case "doviz", "döviz", "fx", "currency":
		return FX, nil
	case "emtia", "commodity":
		return Commodity, nil
	case "endeks", "index":
		return Index, nil
	default:
		return 0, fmt.Errorf("unknown asset type: %q", s)
	}
}

// TTL returns the maximum cache age before a price of this class is stale.
func (t AssetType) TTL() time.Duration {
	if t == Fund {
		return fundTTL
	}
	return generalTTL
}

// IsFresh reports whether a price updated at the given time is still within
// the class TTL.
func (t AssetType) IsFresh(updated time.Time, now time.Time) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) < t.TTL()
}

// InferAssetType guesses the class of a symbol from its shape and name. Used
// when importing legacy backups whose rows never recorded a class.
func InferAssetType(symbol, name string) AssetType {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	n := strings.ToLower(name)
	switch {
	case sym == "USD" || sym == "EUR" || sym == "GBP" || sym == "CHF":
		return FX
	case sym == "GA" || sym == "CE" || sym == "ATA" || sym == "RA5" || sym == "22" || sym == "YRG" ||
		strings.Contains(n, "altın") || strings.Contains(n, "bilezik"):
		return Commodity
	case strings.HasSuffix(sym, "-C"):
		return Crypto
	case len(sym) == 3, len(sym) == 4 && strings.ContainsAny(sym, "0123456789"):
		return Fund
	default:
		return Equity
	}
}

// Asset is the persisted cache row for one symbol: last-known price plus
// metadata. It is written only by the refresh coordinator (and seeded on
// transaction insert) and read-shared by the valuation engine.
type Asset struct {
	Symbol       string
	Name         string
	Type         AssetType
	CurrentPrice float64
	DayChangePct float64
	LastUpdated  time.Time
	Market       string
	Sector       string
}

// PriceHistoryPoint is one persisted price observation, unique per symbol and
// calendar day.
type PriceHistoryPoint struct {
	Symbol string
	Price  float64
	Date   date.Date
}
