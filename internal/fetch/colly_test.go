package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher(t *testing.T) *CollyFetcher {
	t.Helper()
	f, err := NewCollyFetcher(CollyConfig{
		UserAgent:      "regwatch-test/1.0",
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return f
}

func TestCollyFetcherFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><h1>hello</h1></body></html>`))
	}))
	defer srv.Close()

	page, err := newTestFetcher(t).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Contains(t, string(page.Body), "hello")
	require.Equal(t, "regwatch-test/1.0", gotUA)

	doc, err := page.Document()
	require.NoError(t, err)
	require.Equal(t, "hello", doc.Find("h1").Text())
}

func TestCollyFetcherNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestCollyFetcherSequentialReuse(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	require.Equal(t, 3, hits)
}

func TestCollyFetcherNilLogger(t *testing.T) {
	f, err := NewCollyFetcher(CollyConfig{
		UserAgent:      "regwatch-test/1.0",
		RequestTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, f.logger)
}

func TestCollyFetcherConfigValidation(t *testing.T) {
	_, err := NewCollyFetcher(CollyConfig{RequestTimeout: time.Second}, zap.NewNop())
	require.Error(t, err)

	_, err = NewCollyFetcher(CollyConfig{UserAgent: "ua"}, zap.NewNop())
	require.Error(t, err)
}

func TestCollyFetcherHostBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f, err := NewCollyFetcher(CollyConfig{
		UserAgent:      "regwatch-test/1.0",
		RequestTimeout: 5 * time.Second,
		HostQPS:        20,
	}, zap.NewNop())
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	// Burst of 1 at 20 QPS: the second and third fetch each wait ~50ms.
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
