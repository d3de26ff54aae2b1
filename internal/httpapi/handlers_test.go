package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/app"
	"github.com/anycrawl/anycrawl-core/internal/common"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := common.Default()
	cfg.Redis.URL = "redis://" + mr.Addr() + "/0"
	cfg.Database.DSN = ":memory:"
	cfg.Server.Port = 0

	application, err := app.New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown(context.Background()) })
	require.NoError(t, application.Start(context.Background()))

	s := New(application)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHandleScrapeSuccess(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>ok</title></head><body>content</body></html>"))
	}))
	t.Cleanup(origin.Close)

	_, ts := newTestServer(t)

	body := strings.NewReader(`{"url":"` + origin.URL + `","formats":["markdown"]}`)
	resp, err := http.Post(ts.URL+"/v1/scrape", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
}

func TestHandleScrapeRejectsMissingURL(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/scrape", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCrawlCreateAndStatus(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>content</body></html>"))
	}))
	t.Cleanup(origin.Close)

	_, ts := newTestServer(t)

	body := strings.NewReader(`{"url":"` + origin.URL + `","limit":5}`)
	resp, err := http.Post(ts.URL+"/v1/crawl", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.JobID)
	require.Equal(t, "created", created.Status)

	statusResp, err := http.Get(ts.URL + "/v1/crawl/" + created.JobID + "/status")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	require.Equal(t, http.StatusOK, statusResp.StatusCode)
}

func TestHandleCrawlCancelUnknownJob(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/crawl/does-not-exist", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
