package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/common"
	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := common.Default()
	cfg.Redis.URL = "redis://" + mr.Addr() + "/0"
	cfg.Database.DSN = ":memory:"
	cfg.Crawler.Headless = true

	a, err := New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestAppStartStop(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Start(context.Background()))
}

func TestAppScrapeRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>hi</title></head><body><p>hello world</p></body></html>"))
	}))
	t.Cleanup(srv.Close)

	a := newTestApp(t)
	require.NoError(t, a.Start(context.Background()))

	result, err := a.Scrape(context.Background(), srv.URL, models.ScrapeOptions{Formats: []string{"markdown"}}, interfaces.EngineStatic, "", "")
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	require.Equal(t, "hi", result.Record.Title)
}

func TestAppScrapeBestEffortOnBlockedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<html><head><title>blocked</title></head><body>go away</body></html>"))
	}))
	t.Cleanup(srv.Close)

	a := newTestApp(t)
	require.NoError(t, a.Start(context.Background()))

	result, err := a.Scrape(context.Background(), srv.URL, models.ScrapeOptions{Formats: []string{"markdown"}}, interfaces.EngineStatic, "", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "request blocked")
	require.NotNil(t, result.Record)
	require.Equal(t, "blocked", result.Record.Title)
}

func TestAppCrawlSeedsFrontier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><a href=\"/next\">next</a></body></html>"))
	}))
	t.Cleanup(srv.Close)

	a := newTestApp(t)
	require.NoError(t, a.Start(context.Background()))

	job, err := a.Crawl(context.Background(), srv.URL, models.CrawlOptions{MaxDepth: 1, Limit: 5},
		models.ScrapeOptions{Formats: []string{"markdown"}}, interfaces.EngineStatic, "", "")
	require.NoError(t, err)
	require.NotEmpty(t, job.JobID)
	require.Equal(t, models.StatusPending, job.Status)
}
