package search

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/reedko/truthtrollers-engine/internal/model"
)

// StubSearcher is a deterministic in-process Searcher for tests and dev
// runs. Results are keyed by query; the Default set answers everything
// else. Call accounting is atomic so tests can assert concurrency.
type StubSearcher struct {
	mu      sync.Mutex
	ByQuery map[string][]model.CandidateDoc
	Default []model.CandidateDoc
	Err     error

	// Delay lets tests inject per-call latency, e.g. to exercise pool
	// ordering under out-of-order completion.
	Delay func(query string)

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
	queries  []string
}

// Name returns the backend name
func (s *StubSearcher) Name() string {
	return "stub"
}

// Search serves canned results for the query.
func (s *StubSearcher) Search(ctx context.Context, req Request) ([]model.CandidateDoc, error) {
	s.calls.Add(1)

	n := s.inFlight.Add(1)
	for {
		old := s.peak.Load()
		if n <= old || s.peak.CompareAndSwap(old, n) {
			break
		}
	}
	defer s.inFlight.Add(-1)

	s.mu.Lock()
	s.queries = append(s.queries, req.Query)
	s.mu.Unlock()

	if s.Delay != nil {
		s.Delay(req.Query)
	}

	if s.Err != nil {
		return nil, s.Err
	}

	docs := s.Default
	if s.ByQuery != nil {
		if canned, ok := s.ByQuery[req.Query]; ok {
			docs = canned
		}
	}

	if req.TopK > 0 && len(docs) > req.TopK {
		docs = docs[:req.TopK]
	}

	out := make([]model.CandidateDoc, len(docs))
	copy(out, docs)
	return out, nil
}

// Calls returns the total number of Search invocations.
func (s *StubSearcher) Calls() int {
	return int(s.calls.Load())
}

// PeakInFlight returns the maximum number of concurrent Search calls observed.
func (s *StubSearcher) PeakInFlight() int {
	return int(s.peak.Load())
}

// Queries returns the queries seen so far, in arrival order.
func (s *StubSearcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}
