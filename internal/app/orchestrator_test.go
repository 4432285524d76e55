package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"tvratings-parser/internal/browser/browsertest"
	"tvratings-parser/internal/config"
	"tvratings-parser/internal/observability"
	"tvratings-parser/internal/ratings"
	"tvratings-parser/internal/scraper"
	"tvratings-parser/internal/storage/csvstore"
)

const baseURL = "https://ratings.test/public/rating"

func ratingPage(text string) string {
	return `<html><body><div id="channel_rating">` + text + `</div></body></html>`
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Source.BaseURL = baseURL
	cfg.Catalog = ratings.Catalog{
		{Code: "CHV", Slug: "chv"},
		{Code: "CANAL13", Slug: "13"},
		{Code: "MEGA", Slug: "mega"},
	}
	return cfg
}

func fullLauncher() *browsertest.Launcher {
	return &browsertest.Launcher{
		Pages: map[string]string{
			baseURL + "/chv":  ratingPage("6.4"),
			baseURL + "/13":   ratingPage("5.1"),
			baseURL + "/mega": ratingPage("3.2"),
		},
	}
}

type failingSink struct {
	err     error
	appends int
}

func (f *failingSink) Name() string { return "failing" }

func (f *failingSink) Append(context.Context, ratings.Record) error {
	f.appends++
	return f.err
}

func (f *failingSink) Close() error { return nil }

func newTestOrchestrator(t *testing.T, l *browsertest.Launcher, sinks ...*csvstore.Store) (*Orchestrator, *observability.Metrics) {
	t.Helper()
	logger := observability.NewNopLogger()
	metrics := observability.NewMetrics("")
	s := scraper.NewScraper(testConfig(), l, logger)

	o := NewOrchestrator(logger, s, metrics)
	for _, sink := range sinks {
		o.sinks = append(o.sinks, sink)
	}
	o.now = func() time.Time {
		return time.Date(2025, 1, 1, 10, 0, 0, 123456000, time.Local)
	}
	return o, metrics
}

func TestRunOnceAppendsRecordAndClosesSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	l := fullLauncher()
	o, _ := newTestOrchestrator(t, l, csvstore.NewStore(path, observability.NewNopLogger()))

	stats, err := o.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, stats.Fetched)
	require.Empty(t, stats.Failed)
	require.Equal(t, "2025-01-01T10:00:00.123456", stats.Record.Timestamp)

	require.Equal(t, 1, l.Launches)
	require.Equal(t, 0, l.Open())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"TIMESTAMP,CHV,CANAL13,MEGA\n2025-01-01T10:00:00.123456,6.4,5.1,3.2\n",
		string(data),
	)
}

func TestRunOnceZeroFillsFailedChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	l := fullLauncher()
	l.Errors = map[string]error{baseURL + "/13": errors.New("navigation timeout")}
	delete(l.Pages, baseURL+"/mega")

	o, metrics := newTestOrchestrator(t, l, csvstore.NewStore(path, observability.NewNopLogger()))

	stats, err := o.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Fetched)
	require.Equal(t, []string{"CANAL13", "MEGA"}, stats.Failed)

	v, ok := stats.Record.Get("CANAL13")
	require.True(t, ok)
	require.Equal(t, 0.0, v)

	_, rows, err := csvstore.NewStore(path, observability.NewNopLogger()).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{{"2025-01-01T10:00:00.123456", "6.4", "0.0", "0.0"}}, rows)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ChannelFailures.WithLabelValues("CANAL13")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Cycles.WithLabelValues("success")))
}

func TestRunOnceLaunchFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	l := &browsertest.Launcher{FailStart: true}
	o, _ := newTestOrchestrator(t, l, csvstore.NewStore(path, observability.NewNopLogger()))

	_, err := o.RunOnce(context.Background())
	require.ErrorIs(t, err, browsertest.ErrLaunch)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunOnceSinkErrorClosesSession(t *testing.T) {
	l := fullLauncher()
	o, _ := newTestOrchestrator(t, l)
	sinkErr := errors.New("disk full")
	sink := &failingSink{err: sinkErr}
	o.sinks = append(o.sinks, sink)

	_, err := o.RunOnce(context.Background())
	require.ErrorIs(t, err, sinkErr)
	require.Equal(t, 1, sink.appends)
	require.Equal(t, 0, l.Open())
	require.Equal(t, 1, l.PagesClosed)
}

func TestRunOnceCountsChannelFailuresWhenSinkFails(t *testing.T) {
	l := fullLauncher()
	l.Errors = map[string]error{baseURL + "/mega": errors.New("navigation timeout")}
	o, metrics := newTestOrchestrator(t, l)
	o.sinks = append(o.sinks, &failingSink{err: errors.New("disk full")})

	_, err := o.RunOnce(context.Background())
	require.Error(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ChannelFailures.WithLabelValues("MEGA")))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.ChannelFailures.WithLabelValues("CHV")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Cycles.WithLabelValues("failure")))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.Cycles.WithLabelValues("success")))
}

func TestRunOnceSchemaMismatchIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	original := "TIMESTAMP,CHV,TVN\n2025-01-01T09:00:00.000000,1.0,2.0\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	l := fullLauncher()
	o, _ := newTestOrchestrator(t, l, csvstore.NewStore(path, observability.NewNopLogger()))

	_, err := o.RunOnce(context.Background())
	require.ErrorIs(t, err, csvstore.ErrSchemaMismatch)
	require.Equal(t, 0, l.Open())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, original, string(data))
}

func TestRunOnceWritesMetricsFile(t *testing.T) {
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "tvratings.prom")

	logger := observability.NewNopLogger()
	l := fullLauncher()
	s := scraper.NewScraper(testConfig(), l, logger)
	o := NewOrchestrator(logger, s, observability.NewMetrics(metricsPath),
		csvstore.NewStore(filepath.Join(dir, "ratings.csv"), logger))

	_, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `tvratings_cycles_total{result="success"} 1`)
	require.Contains(t, string(data), `tvratings_channel_rating{channel="CHV"} 6.4`)
}

func TestRunContinuousStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	l := fullLauncher()
	o, _ := newTestOrchestrator(t, l, csvstore.NewStore(path, observability.NewNopLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- o.RunContinuous(ctx, time.Hour)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunContinuous did not stop after cancel")
	}

	require.Equal(t, 1, l.Launches)
	require.Equal(t, 0, l.Open())
}

func TestRunContinuousAlreadyCancelled(t *testing.T) {
	l := fullLauncher()
	o, _ := newTestOrchestrator(t, l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, o.RunContinuous(ctx, time.Millisecond))
	require.Zero(t, l.Launches)
}

func TestRunContinuousRepeatsWithFreshSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	l := fullLauncher()
	store := csvstore.NewStore(path, observability.NewNopLogger())
	o, _ := newTestOrchestrator(t, l, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- o.RunContinuous(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		_, rows, err := store.ReadAll()
		return err == nil && len(rows) >= 3
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.GreaterOrEqual(t, l.Launches, 3)
	require.Equal(t, 0, l.Open())
}

func TestRunContinuousStopsOnCycleError(t *testing.T) {
	l := fullLauncher()
	o, _ := newTestOrchestrator(t, l)
	sinkErr := errors.New("disk full")
	sink := &failingSink{err: sinkErr}
	o.sinks = append(o.sinks, sink)

	err := o.RunContinuous(context.Background(), time.Millisecond)
	require.ErrorIs(t, err, sinkErr)
	require.Equal(t, 1, sink.appends)
	require.Equal(t, 1, l.Launches)
	require.Equal(t, 0, l.Open())
}
