package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sentidash/internal/domain"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// newTestStore opens a SQLite store in a temp dir with the schema applied and
// the clock pinned to testNow.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sentidash.db")

	s, err := Open("sqlite", dbPath, PoolOptions{})
	if err != nil {
		t.Fatalf("Open(%q) returned error: %v", dbPath, err)
	}
	t.Cleanup(func() {
		if cerr := s.Close(); cerr != nil {
			t.Errorf("Close() returned error: %v", cerr)
		}
	})
	s.now = func() time.Time { return testNow }

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return s
}

func insertAsset(t *testing.T, s *SQLStore, ticker string) int64 {
	t.Helper()
	res, err := s.db.Exec(`INSERT INTO assets (ticker) VALUES (?)`, ticker)
	if err != nil {
		t.Fatalf("inserting asset %s: %v", ticker, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("LastInsertId: %v", err)
	}
	return id
}

func insertMention(t *testing.T, s *SQLStore, assetID int64, score float64, at time.Time) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO asset_mentions (asset_id, sentiment_score, created_at) VALUES (?, ?, ?)`,
		assetID, score, at.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		t.Fatalf("inserting mention: %v", err)
	}
}

var (
	day0 = time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC)
	day1 = time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)
)

// seedScenario loads AAPL/TSLA with three mentions across two days.
func seedScenario(t *testing.T, s *SQLStore) (aapl, tsla int64) {
	t.Helper()
	aapl = insertAsset(t, s, "AAPL")
	tsla = insertAsset(t, s, "TSLA")
	insertMention(t, s, aapl, 0.5, day0)
	insertMention(t, s, aapl, -0.5, day0.Add(3*time.Hour))
	insertMention(t, s, tsla, 1.0, day1)
	return aapl, tsla
}

func TestSQLStoreOpen(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() returned error: %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever", PoolOptions{}); err == nil {
		t.Fatal("Open with unsupported driver should fail")
	}
}

func TestScenario(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)
	ctx := context.Background()

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := domain.Stats{TotalAssets: 2, TotalMentions: 3, AverageSentiment: 0.33}
	if st != want {
		t.Errorf("Stats = %+v, want %+v", st, want)
	}

	top, err := s.TopStocks(ctx, 5)
	if err != nil {
		t.Fatalf("TopStocks: %v", err)
	}
	wantTop := []domain.TopStock{
		{Ticker: "AAPL", Mentions: 2, AvgSentiment: 0},
		{Ticker: "TSLA", Mentions: 1, AvgSentiment: 1},
	}
	if len(top) != len(wantTop) {
		t.Fatalf("TopStocks returned %d rows, want %d: %+v", len(top), len(wantTop), top)
	}
	for i := range wantTop {
		if top[i] != wantTop[i] {
			t.Errorf("TopStocks[%d] = %+v, want %+v", i, top[i], wantTop[i])
		}
	}

	trends, err := s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{All: true}})
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	wantTrends := []domain.TrendPoint{
		{Date: "2024-06-13", Sentiment: 0},
		{Date: "2024-06-14", Sentiment: 1},
	}
	if len(trends) != len(wantTrends) {
		t.Fatalf("Trends returned %d points, want %d: %+v", len(trends), len(wantTrends), trends)
	}
	for i := range wantTrends {
		if trends[i] != wantTrends[i] {
			t.Errorf("Trends[%d] = %+v, want %+v", i, trends[i], wantTrends[i])
		}
	}
}

func TestListTickers(t *testing.T) {
	s := newTestStore(t)
	for _, tk := range []string{"TSLA", "AAPL", "MSFT", "GOOGL"} {
		insertAsset(t, s, tk)
	}
	ctx := context.Background()

	got, err := s.ListTickers(ctx)
	if err != nil {
		t.Fatalf("ListTickers: %v", err)
	}
	want := []string{"AAPL", "GOOGL", "MSFT", "TSLA"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ListTickers = %v, want %v", got, want)
	}

	again, err := s.ListTickers(ctx)
	if err != nil {
		t.Fatalf("ListTickers (second call): %v", err)
	}
	if strings.Join(again, ",") != strings.Join(got, ",") {
		t.Errorf("ListTickers not idempotent: %v then %v", got, again)
	}
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tickers, err := s.ListTickers(ctx)
	if err != nil {
		t.Fatalf("ListTickers: %v", err)
	}
	if tickers == nil || len(tickers) != 0 {
		t.Errorf("ListTickers = %#v, want empty non-nil slice", tickers)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st != (domain.Stats{}) {
		t.Errorf("Stats = %+v, want zero", st)
	}

	top, err := s.TopStocks(ctx, 5)
	if err != nil {
		t.Fatalf("TopStocks: %v", err)
	}
	if top == nil || len(top) != 0 {
		t.Errorf("TopStocks = %#v, want empty non-nil slice", top)
	}

	trends, err := s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{Days: 7}})
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	if trends == nil || len(trends) != 0 {
		t.Errorf("Trends = %#v, want empty non-nil slice", trends)
	}
}

func TestStatsCountsIdleAssets(t *testing.T) {
	s := newTestStore(t)
	a := insertAsset(t, s, "AAPL")
	insertAsset(t, s, "IDLE")
	insertMention(t, s, a, 0.2, day0)
	insertMention(t, s, a, 0.3, day0)
	insertMention(t, s, a, 0.4, day1)

	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalAssets != 2 || st.TotalMentions != 3 {
		t.Errorf("Stats counts = %d/%d, want 2/3", st.TotalAssets, st.TotalMentions)
	}
	if st.AverageSentiment != 0.3 {
		t.Errorf("AverageSentiment = %v, want 0.3", st.AverageSentiment)
	}
}

func TestTopStocksLimitAndOrder(t *testing.T) {
	s := newTestStore(t)
	counts := map[string]int{
		"AAPL": 4, "AMZN": 2, "GOOGL": 3, "MSFT": 3, "NVDA": 1, "TSLA": 5, "META": 2, "IDLE": 0,
	}
	for tk, n := range counts {
		id := insertAsset(t, s, tk)
		for i := 0; i < n; i++ {
			insertMention(t, s, id, 0.1, day0.Add(time.Duration(i)*time.Minute))
		}
	}

	top, err := s.TopStocks(context.Background(), 5)
	if err != nil {
		t.Fatalf("TopStocks: %v", err)
	}
	if len(top) != 5 {
		t.Fatalf("TopStocks returned %d rows, want 5", len(top))
	}
	want := []string{"TSLA", "AAPL", "GOOGL", "MSFT", "AMZN"}
	for i, tk := range want {
		if top[i].Ticker != tk {
			t.Errorf("TopStocks[%d].Ticker = %s, want %s", i, top[i].Ticker, tk)
		}
	}
	for i := range top {
		if top[i].Mentions < 1 {
			t.Errorf("TopStocks[%d] has %d mentions, want >= 1", i, top[i].Mentions)
		}
		if i > 0 && top[i].Mentions > top[i-1].Mentions {
			t.Errorf("TopStocks not sorted by mentions desc at %d: %+v", i, top)
		}
	}

	all, err := s.TopStocks(context.Background(), 100)
	if err != nil {
		t.Fatalf("TopStocks(100): %v", err)
	}
	if len(all) != 7 {
		t.Errorf("TopStocks(100) returned %d rows, want 7 (IDLE has no mentions)", len(all))
	}

	def, err := s.TopStocks(context.Background(), 0)
	if err != nil {
		t.Fatalf("TopStocks(0): %v", err)
	}
	if len(def) != domain.DefaultTopStocksLimit {
		t.Errorf("TopStocks(0) returned %d rows, want %d", len(def), domain.DefaultTopStocksLimit)
	}
}

func TestTrendsFilters(t *testing.T) {
	s := newTestStore(t)
	aapl, tsla := seedScenario(t, s)
	old := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	insertMention(t, s, aapl, 0.9, old)
	insertMention(t, s, tsla, -0.2, old)
	ctx := context.Background()

	// Trailing 7 days, AAPL only: the old mention and TSLA are excluded.
	got, err := s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{Days: 7}, Ticker: "AAPL"})
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	if len(got) != 1 || got[0] != (domain.TrendPoint{Date: "2024-06-13", Sentiment: 0}) {
		t.Errorf("Trends(7, AAPL) = %+v, want [{2024-06-13 0}]", got)
	}

	// All time, AAPL only.
	got, err = s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{All: true}, Ticker: "AAPL"})
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	if len(got) != 2 || got[0].Date != "2024-06-01" || got[0].Sentiment != 0.9 {
		t.Errorf("Trends(all, AAPL) = %+v, want old day first at 0.9", got)
	}

	// Global sentinel behaves like no ticker.
	global, err := s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{All: true}, Ticker: domain.GlobalTicker})
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	none, err := s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{All: true}})
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	if len(global) != 3 || len(none) != 3 {
		t.Fatalf("Trends(all) returned %d/%d points, want 3", len(global), len(none))
	}
	for i := range global {
		if global[i] != none[i] {
			t.Errorf("Global[%d] = %+v, unfiltered = %+v", i, global[i], none[i])
		}
	}
	for i := 1; i < len(global); i++ {
		if global[i].Date <= global[i-1].Date {
			t.Errorf("Trends not ascending by date: %+v", global)
		}
	}
	// 2024-06-01 averages AAPL 0.9 and TSLA -0.2.
	if diff := global[0].Sentiment - 0.35; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Trends[0].Sentiment = %v, want 0.35", global[0].Sentiment)
	}

	// Unknown ticker is empty, not an error.
	got, err = s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{Days: 7}, Ticker: "NOPE"})
	if err != nil {
		t.Fatalf("Trends(NOPE): %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Trends(NOPE) = %#v, want empty non-nil slice", got)
	}

	// A zero-day window ends at now and sees nothing older.
	got, err = s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{Days: 0}})
	if err != nil {
		t.Fatalf("Trends(0): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Trends(0) = %+v, want empty", got)
	}
}

func TestQueryErrorOnClosedDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "closed.db")
	s, err := Open("sqlite", dbPath, PoolOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	ctx := context.Background()
	checks := map[string]error{}
	_, checks["list tickers"] = s.ListTickers(ctx)
	_, checks["stats"] = s.Stats(ctx)
	_, checks["top stocks"] = s.TopStocks(ctx, 5)
	_, checks["trends"] = s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{All: true}})
	checks["ping"] = s.Ping(ctx)

	for op, err := range checks {
		var qe *QueryError
		if !errors.As(err, &qe) {
			t.Errorf("%s: error = %v, want *QueryError", op, err)
			continue
		}
		if qe.Op != op {
			t.Errorf("%s: QueryError.Op = %q", op, qe.Op)
		}
	}
}

func TestQueryErrorMissingSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	s, err := Open("sqlite", dbPath, PoolOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, err = s.Stats(context.Background())
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("Stats without schema: error = %v, want *QueryError", err)
	}
	if !strings.Contains(qe.Error(), "store stats") {
		t.Errorf("QueryError.Error() = %q, want op prefix", qe.Error())
	}
}

func TestTrendsWindowBoundary(t *testing.T) {
	s := newTestStore(t)
	aapl := insertAsset(t, s, "AAPL")
	cutoff := testNow.Add(-7 * 24 * time.Hour)
	insertMention(t, s, aapl, 0.4, cutoff)
	insertMention(t, s, aapl, -0.8, cutoff.Add(-time.Second))

	got, err := s.Trends(context.Background(), TrendQuery{Window: domain.TrendWindow{Days: 7}, Ticker: "AAPL"})
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	want := []domain.TrendPoint{{Date: "2024-06-08", Sentiment: 0.4}}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("Trends(7) = %+v, want %+v", got, want)
	}
}

func TestTrendsISOTimestamps(t *testing.T) {
	s := newTestStore(t)
	aapl := insertAsset(t, s, "AAPL")
	for _, row := range []struct {
		score float64
		at    string
	}{
		{-1, "2024-06-08T11:00:00Z"},
		{0.6, "2024-06-08T12:00:00Z"},
		{0.2, "2024-06-14T09:30:00Z"},
	} {
		if _, err := s.db.Exec(
			`INSERT INTO asset_mentions (asset_id, sentiment_score, created_at) VALUES (?, ?, ?)`,
			aapl, row.score, row.at,
		); err != nil {
			t.Fatalf("inserting mention: %v", err)
		}
	}

	got, err := s.Trends(context.Background(), TrendQuery{Window: domain.TrendWindow{Days: 7}})
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	want := []domain.TrendPoint{
		{Date: "2024-06-08", Sentiment: 0.6},
		{Date: "2024-06-14", Sentiment: 0.2},
	}
	if len(got) != len(want) {
		t.Fatalf("Trends(7) = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Trends[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTrendsWideWindow(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)
	ctx := context.Background()

	for _, days := range []int{36500, 200000, 1000000} {
		got, err := s.Trends(ctx, TrendQuery{Window: domain.TrendWindow{Days: days}})
		if err != nil {
			t.Fatalf("Trends(%d): %v", days, err)
		}
		if len(got) != 2 {
			t.Errorf("Trends(%d) returned %d points, want 2: %+v", days, len(got), got)
		}
	}
}

func TestPostgresTrendsQuery(t *testing.T) {
	s := &SQLStore{dialect: postgresDialect{}, now: func() time.Time { return testNow }}

	q, args := s.trendsQuery(TrendQuery{Window: domain.TrendWindow{Days: 7}, Ticker: "AAPL"})
	for _, frag := range []string{
		"TO_CHAR(DATE(m.created_at), 'YYYY-MM-DD')",
		"JOIN assets a ON a.asset_id = m.asset_id",
		"a.ticker = $1",
		"m.created_at >= $2",
		"GROUP BY 1 ORDER BY 1 ASC",
	} {
		if !strings.Contains(q, frag) {
			t.Errorf("query missing %q:\n%s", frag, q)
		}
	}
	if len(args) != 2 {
		t.Fatalf("got %d args, want 2", len(args))
	}
	if args[0] != "AAPL" {
		t.Errorf("args[0] = %v, want AAPL", args[0])
	}
	wantSince := testNow.Add(-7 * 24 * time.Hour)
	if ts, ok := args[1].(time.Time); !ok || !ts.Equal(wantSince) {
		t.Errorf("args[1] = %v, want %v", args[1], wantSince)
	}

	q, args = s.trendsQuery(TrendQuery{Window: domain.TrendWindow{All: true}, Ticker: "Global"})
	if strings.Contains(q, "WHERE") || strings.Contains(q, "JOIN") || len(args) != 0 {
		t.Errorf("unfiltered query should have no WHERE/JOIN/args:\n%s %v", q, args)
	}
}
