package fetch

import (
	"context"
	"fmt"

	"github.com/reedko/truthtrollers-engine/internal/model"
)

// StubFetcher serves canned text keyed by URL, for tests and dev runs.
type StubFetcher struct {
	ByURL   map[string]string
	Default string
	Err     error
}

// GetText returns the canned text for the candidate URL.
func (s *StubFetcher) GetText(ctx context.Context, doc model.CandidateDoc) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if s.ByURL != nil {
		if text, ok := s.ByURL[doc.URL]; ok {
			return text, nil
		}
	}
	if s.Default != "" {
		return s.Default, nil
	}
	return "", fmt.Errorf("no canned text for %s", doc.URL)
}
