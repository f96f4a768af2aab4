package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/worker"
)

const (
	quoteWindow    = 280
	summaryMaxLen  = 300
	qualityLabeled = 0.7
	qualityDefault = 0.3
)

// EnrichEvidence upgrades a claim's picks into full evidence items by
// fetching each source and carving out a quote and summary. Fetch
// failures degrade to bare items; they never fail the batch. Runs under
// the same bounded pool as the mapping stages.
func (e *Engine) EnrichEvidence(ctx context.Context, claimText string, picks []model.Pick) []model.EvidenceItem {
	if e.deps.Fetcher == nil || len(picks) == 0 {
		return bareEvidence(claimText, picks)
	}

	results := worker.MapOrdered(ctx, picks, e.cfg.MaxConcurrency,
		func(ctx context.Context, i int, pick model.Pick) (model.EvidenceItem, error) {
			item := evidenceFromPick(claimText, pick, i)

			cctx, cancel := e.callContext(ctx)
			defer cancel()
			text, err := e.deps.Fetcher.GetText(cctx, model.CandidateDoc{URL: pick.URL, Title: pick.Title})
			if err != nil {
				e.warnf("evidence fetch failed for %s: %v", pick.URL, err)
				return item, nil
			}

			item.Quote = extractQuote(text, claimText)
			item.Summary = summarizeText(text)
			return item, nil
		})

	items := make([]model.EvidenceItem, len(results))
	for i, slot := range results {
		if slot.Err != nil {
			items[i] = evidenceFromPick(claimText, picks[i], i)
			continue
		}
		items[i] = slot.Value
	}
	return items
}

func bareEvidence(claimText string, picks []model.Pick) []model.EvidenceItem {
	items := make([]model.EvidenceItem, len(picks))
	for i, pick := range picks {
		items[i] = evidenceFromPick(claimText, pick, i)
	}
	return items
}

func evidenceFromPick(claimText string, pick model.Pick, i int) model.EvidenceItem {
	quality := qualityLabeled
	if pick.Why == heuristicWhy || pick.Stance == model.StanceNeutral {
		// Placeholder confidence: nothing judged this source yet
		quality = qualityDefault
	}

	return model.EvidenceItem{
		ID:      fmt.Sprintf("ev-%d", i),
		URL:     pick.URL,
		Title:   pick.Title,
		Stance:  pick.Stance,
		Quality: quality,
	}
}

// extractQuote returns a window of source text around the first strong
// overlap with the claim, or the opening of the document when no word
// overlaps.
func extractQuote(text, claimText string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)
	best := -1
	for _, word := range strings.Fields(strings.ToLower(claimText)) {
		if len(word) < 5 {
			continue
		}
		if idx := strings.Index(lower, word); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	if best < 0 {
		best = 0
	}

	start := best - quoteWindow/4
	if start < 0 {
		start = 0
	}
	end := start + quoteWindow
	if end > len(text) {
		end = len(text)
	}

	return strings.TrimSpace(text[start:end])
}

// summarizeText returns the first sentence of the text, capped.
func summarizeText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if i >= 40 {
				return text[:i+1]
			}
		}
	}

	if len(text) > summaryMaxLen {
		return text[:summaryMaxLen]
	}
	return text
}
