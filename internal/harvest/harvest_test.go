package harvest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch-crawler/internal/fetch"
	"github.com/regwatch/regwatch-crawler/internal/storage/local"
)

func newTestHarvester(t *testing.T, fetcher fetch.Fetcher, dir string) *Harvester {
	t.Helper()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	h, err := New(Config{
		TriggerKeywords: []string{"reflection paper", "guideline", "consultation", "draft"},
	}, "ema", fetcher, store, nil, nil)
	require.NoError(t, err)
	return h
}

func newStaticFetcher(t *testing.T) *fetch.CollyFetcher {
	t.Helper()
	f, err := fetch.NewCollyFetcher(fetch.CollyConfig{
		UserAgent:      "harvest-test/1.0",
		RequestTimeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return f
}

func TestEligible(t *testing.T) {
	h := newTestHarvester(t, newStaticFetcher(t), t.TempDir())

	assert.True(t, h.Eligible("Draft guideline on biosimilar comparability"))
	assert.True(t, h.Eligible("Reflection Paper on AI in medicine lifecycle"))
	assert.True(t, h.Eligible("Public CONSULTATION opens on new framework"))
	assert.False(t, h.Eligible("CHMP meeting highlights, March 2024"))
	assert.False(t, h.Eligible(""))
}

func TestHarvestDownloadsRelatedDocuments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/paper.pdf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 fake body"))
	})
	mux.HandleFunc("/download/annex", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 annex body"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := fmt.Sprintf(`<html><body>
<h3>Related documents</h3>
<ul>
  <li><a href="%s/docs/paper.pdf">Reflection paper on something</a></li>
  <li><a href="%s/download/annex">Annex 1: methods</a></li>
  <li><a href="%s/about">About this page</a></li>
</ul>
</body></html>`, srv.URL, srv.URL, srv.URL)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	base, _ := url.Parse(srv.URL)

	dir := t.TempDir()
	h := newTestHarvester(t, newStaticFetcher(t), dir)
	attachments := h.Harvest(context.Background(), doc, base)
	require.Len(t, attachments, 2, "the non-document link must be ignored")

	assert.Equal(t, "Reflection paper on something", attachments[0].Title)
	assert.NotEmpty(t, attachments[0].LocalRef)
	assert.Equal(t, int64(len("%PDF-1.4 fake body")), attachments[0].ByteSize)

	data, err := os.ReadFile(attachments[0].LocalRef)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake body", string(data))

	// Stored names carry the index and a sanitized title.
	assert.Equal(t, "attachment_000_Reflection_paper_on_something.pdf", filepath.Base(attachments[0].LocalRef))
	assert.Equal(t, "attachment_001_Annex_1_methods.pdf", filepath.Base(attachments[1].LocalRef))
}

func TestHarvestFailureIsolation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/ok.pdf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 ok"))
	})
	mux.HandleFunc("/docs/gone.pdf", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := fmt.Sprintf(`<html><body>
<h3>Related documents</h3>
<ul>
  <li><a href="%s/docs/gone.pdf">Vanished annex</a></li>
  <li><a href="%s/docs/ok.pdf">Surviving annex</a></li>
</ul>
</body></html>`, srv.URL, srv.URL)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	base, _ := url.Parse(srv.URL)

	h := newTestHarvester(t, newStaticFetcher(t), t.TempDir())
	attachments := h.Harvest(context.Background(), doc, base)
	require.Len(t, attachments, 2)

	assert.Empty(t, attachments[0].LocalRef, "failed download keeps the URL but no local copy")
	assert.NotEmpty(t, attachments[1].LocalRef)
}

func TestHarvestNoSection(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><h3>Contacts</h3><ul><li><a href="/x.pdf">x</a></li></ul></body></html>`,
	))
	require.NoError(t, err)

	h := newTestHarvester(t, newStaticFetcher(t), t.TempDir())
	assert.Nil(t, h.Harvest(context.Background(), doc, nil))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Guideline_on_GCP_rev-4", sanitizeName("Guideline on GCP (rev-4)!", 50))
	assert.Equal(t, "document", sanitizeName("???", 50))
	long := strings.Repeat("a", 80)
	assert.Len(t, sanitizeName(long, 50), 50)
}
