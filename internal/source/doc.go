// Package source defines the built-in regulatory news sources. Each
// constructor returns a fully tuned pipeline.SourceConfig; callers may
// override operational knobs (timeouts, pacing, item caps) before building
// a pipeline.
package source
