package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/sweetpotato0/voyager/config"
	"github.com/sweetpotato0/voyager/state"
)

func researchState() *state.State {
	st := newState("beach in goa")
	st.Constraints = state.Constraints{Category: "beach", Place: "Goa"}
	return st
}

func runResearch(t *testing.T, llm *scriptedLLM, st *state.State) []string {
	t.Helper()
	p, err := NewResearch(llm, Options{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Expected no error surfaced, got %v", err)
	}
	got, ok := p.Candidates.Value()
	if !ok {
		t.Fatal("Expected candidates to be set")
	}
	return ids(got)
}

func TestResearchRefinesShortlist(t *testing.T) {
	llm := newScriptedLLM(`{"package_ids": ["P5", "P1", "P5", "P9"]}`)
	got := runResearch(t, llm, researchState())
	if !equalStrings(got, []string{"P5", "P1"}) {
		t.Errorf("Expected [P5 P1], got %v", got)
	}
}

func TestResearchMalformedFallsBackToTopThree(t *testing.T) {
	tests := []struct {
		name string
		llm  *scriptedLLM
	}{
		{"prose", newScriptedLLM("Here are some lovely trips for you!")},
		{"truncated", newScriptedLLM(`{"package_ids": ["P1",`)},
		{"unknown ids", newScriptedLLM(`["X1","X2"]`)},
		{"unavailable", &scriptedLLM{err: errors.New("timeout")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runResearch(t, tt.llm, researchState())
			// P1, P2 and P5 tie on place and category; catalog order breaks the tie.
			if !equalStrings(got, []string{"P1", "P2", "P5"}) {
				t.Errorf("Expected matcher top-3 [P1 P2 P5], got %v", got)
			}
		})
	}
}

func TestResearchEmptySelection(t *testing.T) {
	got := runResearch(t, newScriptedLLM(`{"package_ids": []}`), researchState())
	if len(got) != 0 {
		t.Errorf("Expected no candidates, got %v", got)
	}
}

func TestResearchNoMatchSkipsGenerator(t *testing.T) {
	st := newState("somewhere cold")
	st.Constraints = state.Constraints{Category: "desert", Place: "Jaisalmer"}
	llm := newScriptedLLM()

	got := runResearch(t, llm, st)
	if len(got) != 0 {
		t.Errorf("Expected no candidates, got %v", got)
	}
	if llm.calls() != 0 {
		t.Errorf("Expected no generator call, got %d", llm.calls())
	}
}

func TestResearchShortlistLimit(t *testing.T) {
	llm := newScriptedLLM("not json")
	opts := Options{Engine: config.EngineConfig{ResearchLimit: 2, FallbackTop: 5}}
	p, _ := NewResearch(llm, opts).Run(context.Background(), researchState())
	got, _ := p.Candidates.Value()
	if !equalStrings(ids(got), []string{"P1", "P2"}) {
		t.Errorf("Expected the shortlist to cap the fallback, got %v", ids(got))
	}
}
