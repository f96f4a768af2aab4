// Package search defines the web/internal search surfaces the mapping
// engine fans out to, and the concrete backend adapters.
package search

import (
	"context"

	"github.com/reedko/truthtrollers-engine/internal/model"
)

// Searcher is a single search surface (external web or internal corpus).
// Implementations truncate to TopK themselves and must return an empty
// result set, not an error, when credentials are missing.
type Searcher interface {
	// Name returns the backend name for diagnostics
	Name() string

	// Search returns ranked candidate documents for one query.
	Search(ctx context.Context, req Request) ([]model.CandidateDoc, error)
}

// Request is one backend query.
type Request struct {
	Query string

	// TopK caps the number of results for this single query.
	TopK int

	// Prefer biases results toward these domains. With Strict set the
	// backend must return results from these domains only.
	Prefer []string

	// Strict turns Prefer from advisory into a hard allowlist.
	Strict bool

	// Avoid is always passed as an exclusion filter when non-empty.
	Avoid []string
}
