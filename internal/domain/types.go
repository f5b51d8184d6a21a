// Package domain defines the core value types shared across sentidash:
// assets, mentions, and the aggregate views computed over them.
package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GlobalTicker is the ticker sentinel meaning "aggregate across all assets".
const GlobalTicker = "Global"

// DefaultTrendDays is the trailing window used when no days value is given.
const DefaultTrendDays = 7

// DefaultTopStocksLimit is the number of rows returned by the top-stocks view.
const DefaultTopStocksLimit = 5

// ErrInvalidWindow is returned when a trend window cannot be parsed.
var ErrInvalidWindow = errors.New("invalid trend window")

// Asset is a tradeable instrument identified by a unique ticker.
type Asset struct {
	AssetID int64
	Ticker  string
}

// Mention is a single recorded reference to an asset with a sentiment score
// in [-1, 1].
type Mention struct {
	MentionID      int64
	AssetID        int64
	SentimentScore float64
	CreatedAt      time.Time
}

// Stats holds dashboard-wide aggregate counts.
type Stats struct {
	TotalAssets      int64
	TotalMentions    int64
	AverageSentiment float64 // rounded to 2 decimals, 0 when there are no mentions
}

// TopStock is one row of the most-mentioned assets ranking.
type TopStock struct {
	Ticker       string
	Mentions     int64
	AvgSentiment float64
}

// TrendPoint is the average sentiment for a single calendar day.
type TrendPoint struct {
	Date      string // YYYY-MM-DD
	Sentiment float64
}

// TrendWindow selects how far back trend aggregation looks. When All is set
// Days is ignored.
type TrendWindow struct {
	All  bool
	Days int
}

// String renders the window the way it is accepted on the wire.
func (w TrendWindow) String() string {
	if w.All {
		return "all"
	}
	return strconv.Itoa(w.Days)
}

// maxWindowDays is the widest window whose span still fits in a time.Duration.
const maxWindowDays = math.MaxInt64 / int64(24*time.Hour)

// Since returns the inclusive lower bound of the window relative to now, and
// false when the window is unbounded. Windows too wide to express as a
// duration are treated as unbounded.
func (w TrendWindow) Since(now time.Time) (time.Time, bool) {
	if w.All || int64(w.Days) > maxWindowDays {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(w.Days) * 24 * time.Hour), true
}

// ParseTrendWindow parses a days parameter. An empty string yields the
// default window, "all" disables the time filter, and any other value must be
// a non-negative integer.
func ParseTrendWindow(s string) (TrendWindow, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TrendWindow{Days: DefaultTrendDays}, nil
	}
	if strings.EqualFold(s, "all") {
		return TrendWindow{All: true}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return TrendWindow{}, ErrInvalidWindow
	}
	return TrendWindow{Days: n}, nil
}

// IsGlobalTicker reports whether ticker means "no asset filter".
func IsGlobalTicker(ticker string) bool {
	return ticker == "" || ticker == GlobalTicker
}

// RoundSentiment rounds v half away from zero to 2 decimal places.
func RoundSentiment(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
