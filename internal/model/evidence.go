package model

// Stance is the relationship a piece of evidence has to a claim
type Stance string

const (
	StanceSupport      Stance = "support"
	StanceRefute       Stance = "refute"
	StanceNuance       Stance = "nuance"       // Partially supports, with caveats
	StanceInsufficient Stance = "insufficient" // Source does not settle the claim
	StanceNeutral      Stance = "neutral"      // Heuristic placeholder, no LLM judgement
)

// IsPickStance reports whether s is a value the evidence selector is
// allowed to emit. LLM output is validated against this before use.
func (s Stance) IsPickStance() bool {
	switch s {
	case StanceSupport, StanceRefute, StanceNeutral:
		return true
	}
	return false
}

// Pick is a candidate selected as evidence for a claim, with an assigned
// stance. This is the lightweight shape the mapping route returns.
type Pick struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Stance Stance `json:"stance"`
	Why    string `json:"why,omitempty"`
}

// EvidenceItem is the full evidence record built from a pick, optionally
// enriched with a quote and summary from the fetched source text.
type EvidenceItem struct {
	ID          string  `json:"id,omitempty"`
	ClaimID     string  `json:"claim_id,omitempty"`
	CandidateID string  `json:"candidate_id,omitempty"`
	URL         string  `json:"url,omitempty"`
	Title       string  `json:"title,omitempty"`
	Location    string  `json:"location,omitempty"` // Section/paragraph hint
	Quote       string  `json:"quote,omitempty"`
	Summary     string  `json:"summary,omitempty"`
	Stance      Stance  `json:"stance"`
	Quality     float64 `json:"quality"` // Confidence in [0,1]
	PublishedAt string  `json:"published_at,omitempty"`
}

// Verdict is the final adjudication outcome for a claim
type Verdict string

const (
	VerdictTrue        Verdict = "true"
	VerdictFalse       Verdict = "false"
	VerdictMixed       Verdict = "mixed"
	VerdictUnverified  Verdict = "unverified"
	VerdictMisleading  Verdict = "misleading"
)

// Adjudication is the downstream target shape built on top of the
// engine's output. The engine never produces verdicts itself.
type Adjudication struct {
	ClaimID      string   `json:"claim_id"`
	FinalVerdict Verdict  `json:"final_verdict"`
	Confidence   float64  `json:"confidence"`
	Rationale    string   `json:"rationale,omitempty"`
	EvidenceIDs  []string `json:"evidence_ids,omitempty"`
	Counters     []string `json:"counters,omitempty"`
}
