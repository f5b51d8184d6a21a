// Package httpapi provides the read-only JSON API backing the sentiment
// dashboard: tickers, aggregate stats, top-mentioned stocks and trends.
package httpapi

import (
	"sentidash/internal/domain"
)

// StatsJSON is the JSON representation of dashboard-wide statistics.
type StatsJSON struct {
	TotalAssets      int64   `json:"totalAssets"`
	TotalMentions    int64   `json:"totalMentions"`
	AverageSentiment float64 `json:"averageSentiment"`
}

// TopStockJSON is one row of the top-mentioned ranking.
type TopStockJSON struct {
	Ticker       string  `json:"ticker"`
	Mentions     int64   `json:"mentions"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// TrendPointJSON is the mean sentiment for one calendar day.
type TrendPointJSON struct {
	Date      string  `json:"date"`
	Sentiment float64 `json:"sentiment"`
}

// HealthResponse reports database reachability.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func convertStats(s domain.Stats) StatsJSON {
	return StatsJSON{
		TotalAssets:      s.TotalAssets,
		TotalMentions:    s.TotalMentions,
		AverageSentiment: s.AverageSentiment,
	}
}

func convertTopStocks(stocks []domain.TopStock) []TopStockJSON {
	out := make([]TopStockJSON, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, TopStockJSON{
			Ticker:       s.Ticker,
			Mentions:     s.Mentions,
			AvgSentiment: s.AvgSentiment,
		})
	}
	return out
}

func convertTrend(points []domain.TrendPoint) []TrendPointJSON {
	out := make([]TrendPointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, TrendPointJSON{Date: p.Date, Sentiment: p.Sentiment})
	}
	return out
}
