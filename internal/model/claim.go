package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Claim represents an atomic, falsifiable assertion handed to the engine.
// Claims are produced upstream (LLM extraction) and are immutable here.
type Claim struct {
	ID              string `json:"id,omitempty"`
	Text            string `json:"text"`                        // The claim text itself
	Language        string `json:"language,omitempty"`          // BCP-47 tag when known
	SourceContentID string `json:"source_content_id,omitempty"` // Content row the claim came from
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeFactual     ClaimType = "factual"     // Verifiable statements of fact
	ClaimTypeAttribution ClaimType = "attribution" // Claims about who said/did something
	ClaimTypeStatistic   ClaimType = "statistic"   // Numeric/quantified claims
	ClaimTypePrediction  ClaimType = "prediction"  // Forward-looking claims
	ClaimTypeOpinion     ClaimType = "opinion"     // Not checkable, filtered upstream
)

// RawClaim is the wire form of a claim in a mapping request. Callers may
// send either a bare string or an object with optional pre-built queries.
type RawClaim struct {
	Text    string   `json:"text"`
	Queries []string `json:"queries,omitempty"`
}

// UnmarshalJSON accepts both "claim text" and {"text": "...", "queries": [...]}.
func (r *RawClaim) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Text = s
		r.Queries = nil
		return nil
	}

	type rawClaimAlias RawClaim
	var obj rawClaimAlias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("claim must be a string or an object: %w", err)
	}
	*r = RawClaim(obj)
	return nil
}

// IsEmpty reports whether the claim has no usable text.
func (r RawClaim) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// QueryIntent classifies what a generated search query is trying to find
type QueryIntent string

const (
	IntentSupport    QueryIntent = "support"    // Sources likely to confirm the claim
	IntentRefute     QueryIntent = "refute"     // Sources likely to contradict it
	IntentBackground QueryIntent = "background" // Context around the topic
	IntentFactbox    QueryIntent = "factbox"    // Reference/encyclopedic lookups
)

// Query is one search query generated for a claim. Ephemeral, never persisted.
type Query struct {
	ClaimIndex int         `json:"i"`
	Query      string      `json:"query"`
	Intent     QueryIntent `json:"intent,omitempty"`
}
