// Package sink writes extraction run manifests to disk as JSON.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/regwatch/regwatch-crawler/internal/pipeline"
)

// Manifest is the durable record of one extraction run across all sources.
type Manifest struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DaysBack   int            `json:"days_back"`
	Sources    []SourceResult `json:"sources"`
}

// SourceResult holds one source's records, or the error that stopped its
// run. A failed source never hides the others' results.
type SourceResult struct {
	Name    string            `json:"name"`
	Label   string            `json:"label"`
	Records []pipeline.Record `json:"records"`
	Error   string            `json:"error,omitempty"`
}

// NewManifest starts a manifest with a fresh run ID.
func NewManifest(daysBack int, startedAt time.Time) Manifest {
	return Manifest{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		DaysBack:  daysBack,
	}
}

// Writer persists manifests under a base directory.
type Writer struct {
	dir string
}

// NewWriter ensures dir exists and returns a Writer rooted there.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("manifest directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Write serializes the manifest and returns the path of the written file.
func (w *Writer) Write(m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("run_%s.json", m.RunID))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
