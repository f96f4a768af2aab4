package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/reedko/truthtrollers-engine/internal/llm"
	"github.com/reedko/truthtrollers-engine/internal/model"
)

func TestSelectEvidence_EmptyCandidatesSkipsLLM(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		t.Error("LLM must not be called without candidates")
		return nil, nil
	})
	e := newTestEngine(model.EngineConfig{PickWithLLM: true, PicksPerClaim: 3}, Deps{LLM: stub})

	picks, fallback := e.selectEvidence(context.Background(), "claim", nil)
	if len(picks) != 0 {
		t.Errorf("expected no picks, got %d", len(picks))
	}
	if fallback {
		t.Error("zero candidates is not a fallback")
	}
}

func TestSelectEvidence_LLMPicks(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"pick":[
			{"url":"https://x.com/b","stance":"refute","why":"Contradicts the figure."},
			{"url":"https://x.com/a","title":"Override","stance":"support","why":"Backs it."}
		]}`), nil
	})
	e := newTestEngine(model.EngineConfig{PickWithLLM: true, PicksPerClaim: 3}, Deps{LLM: stub})

	picks, fallback := e.selectEvidence(context.Background(), "claim",
		docs("https://x.com/a", "https://x.com/b"))

	if fallback {
		t.Error("LLM path should not report fallback")
	}
	if len(picks) != 2 {
		t.Fatalf("expected 2 picks, got %d", len(picks))
	}
	if picks[0].URL != "https://x.com/b" || picks[0].Stance != model.StanceRefute {
		t.Errorf("unexpected first pick: %+v", picks[0])
	}
	if picks[1].Title != "Override" {
		t.Errorf("LLM title should win, got %q", picks[1].Title)
	}
}

func TestSelectEvidence_HallucinatedURLDropped(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"pick":[
			{"url":"https://invented.example/","stance":"support","why":"made up"},
			{"url":"https://x.com/a","stance":"support","why":"real"}
		]}`), nil
	})
	e := newTestEngine(model.EngineConfig{PickWithLLM: true, PicksPerClaim: 3}, Deps{LLM: stub})

	picks, _ := e.selectEvidence(context.Background(), "claim", docs("https://x.com/a"))

	if len(picks) != 1 || picks[0].URL != "https://x.com/a" {
		t.Errorf("hallucinated URL must be dropped, got %v", picks)
	}
}

func TestSelectEvidence_InvalidStanceCoercedToNeutral(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"pick":[{"url":"https://x.com/a","stance":"definitely-true","why":"w"}]}`), nil
	})
	e := newTestEngine(model.EngineConfig{PickWithLLM: true, PicksPerClaim: 3}, Deps{LLM: stub})

	picks, _ := e.selectEvidence(context.Background(), "claim", docs("https://x.com/a"))

	if len(picks) != 1 || picks[0].Stance != model.StanceNeutral {
		t.Errorf("invalid stance must coerce to neutral, got %v", picks)
	}
}

func TestSelectEvidence_EmptyPickFallsToHeuristic(t *testing.T) {
	// Syntactically valid but empty: treated as selector failure.
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"pick":[]}`), nil
	})
	e := newTestEngine(model.EngineConfig{PickWithLLM: true, PicksPerClaim: 2}, Deps{LLM: stub})

	picks, fallback := e.selectEvidence(context.Background(), "claim",
		docs("https://x.com/a", "https://x.com/b", "https://x.com/c"))

	if !fallback {
		t.Error("expected heuristic fallback")
	}
	if len(picks) != 2 {
		t.Fatalf("expected 2 heuristic picks, got %d", len(picks))
	}
	for _, p := range picks {
		if p.Stance != model.StanceNeutral {
			t.Errorf("heuristic stance must be neutral, got %q", p.Stance)
		}
		if p.Why != heuristicWhy {
			t.Errorf("unexpected heuristic why: %q", p.Why)
		}
	}
}

func TestSelectEvidence_LLMErrorFallsToHeuristic(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return nil, errors.New("provider down")
	})
	e := newTestEngine(model.EngineConfig{PickWithLLM: true, PicksPerClaim: 3}, Deps{LLM: stub})

	picks, fallback := e.selectEvidence(context.Background(), "claim", docs("https://x.com/a"))

	if !fallback || len(picks) != 1 {
		t.Errorf("expected heuristic pick on LLM error, got fallback=%v picks=%v", fallback, picks)
	}
}

func TestSelectEvidence_LLMDisabledUsesHeuristic(t *testing.T) {
	e := newTestEngine(model.EngineConfig{PickWithLLM: false, PicksPerClaim: 3}, Deps{})

	picks, fallback := e.selectEvidence(context.Background(), "claim", docs("https://x.com/a"))

	if !fallback || len(picks) != 1 {
		t.Errorf("expected heuristic pick with LLM disabled, got fallback=%v picks=%v", fallback, picks)
	}
}

func TestHeuristicPicks_PreservesCandidateOrder(t *testing.T) {
	picks := heuristicPicks(docs("https://1", "https://2", "https://3", "https://4"), 3)

	if len(picks) != 3 {
		t.Fatalf("expected 3 picks, got %d", len(picks))
	}
	for i, want := range []string{"https://1", "https://2", "https://3"} {
		if picks[i].URL != want {
			t.Errorf("position %d: expected %s, got %s", i, want, picks[i].URL)
		}
	}
}
