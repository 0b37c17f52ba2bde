package sink

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch-crawler/internal/pipeline"
)

func TestWriteManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	started := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	m := NewManifest(7, started)
	require.NotEmpty(t, m.RunID)

	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m.Sources = []SourceResult{
		{
			Name:  "ema",
			Label: "EMA News",
			Records: []pipeline.Record{
				{
					Title:       "New guideline adopted",
					URL:         "https://www.ema.europa.eu/en/news/item",
					PublishedAt: &published,
					Summary:     "Short lead.",
					BodyExcerpt: "First paragraph.",
				},
			},
		},
		{Name: "who", Label: "WHO News", Records: []pipeline.Record{}, Error: "fetch listing: status 503"},
	}
	m.FinishedAt = started.Add(2 * time.Minute)

	path, err := w.Write(m)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, 7, got.DaysBack)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, "New guideline adopted", got.Sources[0].Records[0].Title)
	require.NotNil(t, got.Sources[0].Records[0].PublishedAt)
	assert.Equal(t, "fetch listing: status 503", got.Sources[1].Error)
	assert.NotNil(t, got.Sources[1].Records, "a failed source still serializes an empty record list")
}

func TestManifestNullTimestampSurvives(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	m := NewManifest(7, time.Now())
	m.Sources = []SourceResult{{
		Name:    "who",
		Label:   "WHO News",
		Records: []pipeline.Record{{Title: "Undated item kept by policy", URL: "https://www.who.int/news/item"}},
	}}

	path, err := w.Write(m)
	require.NoError(t, err)

	var got Manifest
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Nil(t, got.Sources[0].Records[0].PublishedAt)
}

func TestNewWriterRequiresDir(t *testing.T) {
	_, err := NewWriter("")
	require.Error(t, err)
}

func TestRunIDsUnique(t *testing.T) {
	a := NewManifest(7, time.Now())
	b := NewManifest(7, time.Now())
	assert.NotEqual(t, a.RunID, b.RunID)
}
