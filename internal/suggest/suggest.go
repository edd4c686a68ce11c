// Package suggest defines the Suggester collaborator: given a batch of
// scanned files, it proposes a destination per file plus an overall
// confidence. Suggester is opaque and optional — the core compiles and
// runs correctly with no implementation registered, falling back to
// Categorizer's rule-based destinations, the same way the pack treats an
// LLM backend as a pluggable single-method interface rather than a
// concrete dependency.
package suggest

import (
	"context"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/scan"
)

// MaxBatchSize bounds how many records are sent to the Suggester in one
// call.
const MaxBatchSize = 20

// FallbackConfidence is used whenever the Suggester is absent, times out,
// or returns output the Planner cannot parse.
const FallbackConfidence = 0.75

// Destination is one file's suggested destination.
type Destination struct {
	SourcePath string
	Path       string
}

// Batch is what the Suggester returns for one call: a destination per
// filename it was confident about (files it skips keep the rule-based
// destination) plus an overall confidence in [0,1].
type Batch struct {
	Destinations []Destination
	Confidence   float64
}

// Suggester proposes destinations for a batch of FileRecords. Implementations
// live outside this module (an LLM call, a remote service); Suggest must
// respect ctx's deadline and return a parse/connection error rather than
// panicking so the Planner can fall back cleanly.
type Suggester interface {
	Suggest(ctx context.Context, records []scan.FileRecord) (Batch, error)
}

// Unavailable is a Suggester that always fails with Reason, or with
// ErrNoSuggester when Reason is nil,
// usable as an explicit "no AI provider configured" default so the core
// never has to special-case a nil Suggester.
type Unavailable struct {
	Reason error
}

// Suggest always fails, forcing callers onto the rule-based fallback path.
func (u Unavailable) Suggest(ctx context.Context, records []scan.FileRecord) (Batch, error) {
	if u.Reason != nil {
		return Batch{}, u.Reason
	}
	return Batch{}, ErrNoSuggester
}

// ErrNoSuggester is returned by Unavailable.Suggest.
var ErrNoSuggester = unavailableError("no suggester configured")

type unavailableError string

func (e unavailableError) Error() string { return string(e) }
