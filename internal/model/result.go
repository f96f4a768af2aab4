package model

// ClaimItem is the per-claim slice of a mapping result, ordered by the
// original input index regardless of completion order.
type ClaimItem struct {
	Index      int            `json:"i"`
	Claim      string         `json:"claim"`
	Queries    []string       `json:"queries,omitempty"`
	Candidates []CandidateDoc `json:"candidates,omitempty"`
	Picks      []Pick         `json:"picks"`
	Error      string         `json:"error,omitempty"` // Per-claim degradation marker
}

// Reference aggregates every claim that cites a given URL. URL is the
// dedup key; Claims is a set in insertion order.
type Reference struct {
	URL         string   `json:"url"`
	ContentName string   `json:"content_name"`
	Origin      string   `json:"origin"` // Always "claim" for engine output
	Claims      []string `json:"claims"`
}

// MapMeta carries run diagnostics alongside the mapped claims.
type MapMeta struct {
	ClaimCount     int    `json:"claim_count"`
	QueryCount     int    `json:"query_count"`
	CandidateCount int    `json:"candidate_count"`
	PickCount      int    `json:"pick_count"`
	LLMQueries     bool   `json:"llm_queries"`  // Whether the LLM query path ran
	LLMPicks       bool   `json:"llm_picks"`    // Whether the LLM selection path ran
	QueryFallbacks int    `json:"query_fallbacks,omitempty"`
	PickFallbacks  int    `json:"pick_fallbacks,omitempty"`
	SearchBackend  string `json:"search_backend,omitempty"`
	CacheHit       bool   `json:"cache_hit,omitempty"`
}

// MapResult is the aggregate response for one engine invocation.
type MapResult struct {
	Success    bool        `json:"success"`
	Items      []ClaimItem `json:"items"`
	References []Reference `json:"references"`
	TookMS     int64       `json:"took_ms"`
	Meta       MapMeta     `json:"meta"`
	Error      string      `json:"error,omitempty"`
}
