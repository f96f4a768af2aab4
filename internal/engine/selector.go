package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reedko/truthtrollers-engine/internal/llm"
	"github.com/reedko/truthtrollers-engine/internal/model"
)

const heuristicWhy = "High-ranked search result."

// pickResponse is the strict-JSON contract for the selection call.
type pickResponse struct {
	Pick []struct {
		URL    string `json:"url"`
		Title  string `json:"title"`
		Stance string `json:"stance"`
		Why    string `json:"why"`
	} `json:"pick"`
}

const pickSchemaHint = `{"pick":[{"url":"https://...","title":"...","stance":"support|refute|neutral","why":"one sentence"}]}`

// selectEvidence picks top evidence for one claim. The LLM path degrades
// to the heuristic on any failure, including a syntactically valid but
// empty pick list; this function never returns an error to its caller.
// The bool reports whether the heuristic fallback was used.
func (e *Engine) selectEvidence(ctx context.Context, claimText string, candidates []model.CandidateDoc) ([]model.Pick, bool) {
	if len(candidates) == 0 {
		// Zero evidence is a legitimate outcome, not a failure
		return []model.Pick{}, false
	}

	if e.cfg.PickWithLLM && e.deps.LLM != nil {
		picks, err := e.selectWithLLM(ctx, claimText, candidates)
		if err != nil {
			e.warnf("evidence selection failed for %q: %v", claimText, err)
		} else if len(picks) > 0 {
			return picks, false
		}
	}

	return heuristicPicks(candidates, e.cfg.PicksPerClaim), true
}

// selectWithLLM asks the model to choose and label evidence.
func (e *Engine) selectWithLLM(ctx context.Context, claimText string, candidates []model.CandidateDoc) ([]model.Pick, error) {
	type promptCandidate struct {
		URL     string `json:"url"`
		Title   string `json:"title,omitempty"`
		Snippet string `json:"snippet,omitempty"`
	}
	listed := make([]promptCandidate, len(candidates))
	byURL := make(map[string]model.CandidateDoc, len(candidates))
	for i, c := range candidates {
		listed[i] = promptCandidate{URL: c.URL, Title: c.Title, Snippet: c.Snippet}
		byURL[c.URL] = c
	}

	payload, err := json.Marshal(listed)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}

	user := fmt.Sprintf(`Claim: %q

Candidates:
%s

Pick the %d best evidence sources for this claim. Use only URLs from the candidate list. For each pick, set stance to "support" if the source backs the claim, "refute" if it contradicts it, "neutral" if it is relevant but does not settle it, and give a one-sentence why.`,
		claimText, payload, e.cfg.PicksPerClaim)

	cctx, cancel := e.callContext(ctx)
	defer cancel()

	raw, err := e.deps.LLM.GenerateJSON(cctx, llm.Request{
		System:      "You select supporting and refuting evidence for fact-check claims. You respond with strict JSON only.",
		User:        user,
		SchemaHint:  pickSchemaHint,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("selection call: %w", err)
	}

	var parsed pickResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("selection response: %w", err)
	}

	picks := make([]model.Pick, 0, len(parsed.Pick))
	for _, p := range parsed.Pick {
		candidate, ok := byURL[p.URL]
		if !ok {
			// Hallucinated URL: drop rather than cite a source we never saw
			continue
		}

		stance := model.Stance(p.Stance)
		if !stance.IsPickStance() {
			stance = model.StanceNeutral
		}

		title := p.Title
		if title == "" {
			title = candidate.Title
		}

		picks = append(picks, model.Pick{
			URL:    p.URL,
			Title:  title,
			Stance: stance,
			Why:    p.Why,
		})
		if len(picks) >= e.cfg.PicksPerClaim {
			break
		}
	}

	return picks, nil
}

// heuristicPicks takes the first candidates in their given order and
// labels them neutral.
func heuristicPicks(candidates []model.CandidateDoc, limit int) []model.Pick {
	if limit <= 0 {
		limit = 3
	}
	if len(candidates) < limit {
		limit = len(candidates)
	}

	picks := make([]model.Pick, 0, limit)
	for _, c := range candidates[:limit] {
		picks = append(picks, model.Pick{
			URL:    c.URL,
			Title:  c.Title,
			Stance: model.StanceNeutral,
			Why:    heuristicWhy,
		})
	}
	return picks
}
