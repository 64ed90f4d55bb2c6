package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/state"
)

func itineraryState(t *testing.T, id string) *state.State {
	t.Helper()
	st := newState("yes, book it")
	st.CurrentOffer = offering(t, st.Catalog, id)
	st.OfferDecision = state.DecisionAccepted
	st.Stage = state.StagePresentingOffer
	return st
}

func TestItineraryPrimaryPlan(t *testing.T) {
	st := itineraryState(t, "P1")
	llm := newScriptedLLM(`{"itinerary":[{"day":1,"detail":"Start early"},{"day":"3","detail":"Sunset at 6pm"}],"message":"Enjoy Goa!"}`)

	p, err := NewItinerary(llm, Options{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.Apply(p)

	if p.Reply != "Enjoy Goa!" {
		t.Errorf("Expected generator message, got %q", p.Reply)
	}
	if len(st.Itinerary) != 4 {
		t.Fatalf("Expected 4 days, got %d", len(st.Itinerary))
	}
	if st.Itinerary[0].Plan != "primary A" || st.Itinerary[0].Detail != "Start early" || st.Itinerary[2].Detail != "Sunset at 6pm" {
		t.Errorf("Unexpected itinerary %+v", st.Itinerary)
	}
	if st.Stage != state.StageItineraryReady || st.OfferDecision != state.DecisionUndecided || st.AltRound != 0 {
		t.Errorf("Unexpected state %s/%s/%d", st.Stage, st.OfferDecision, st.AltRound)
	}
}

func TestItineraryUsesRequestedDuration(t *testing.T) {
	st := itineraryState(t, "P2")
	st.Constraints.DurationDays = 3
	llm := newScriptedLLM(`{"itinerary":[],"message":""}`)

	p, _ := NewItinerary(llm, Options{}).Run(context.Background(), st)
	st.Apply(p)

	if !equalStrings(planTexts(st.Itinerary), []string{"primary A", "primary C", "primary E"}) {
		t.Errorf("Unexpected plan %v", planTexts(st.Itinerary))
	}
	if p.Reply != itineraryReadyReply {
		t.Errorf("Expected default message, got %q", p.Reply)
	}
}

func TestItineraryAlternativeRounds(t *testing.T) {
	st := itineraryState(t, "P1")
	st.OfferDecision = state.DecisionUndecided
	st.AltRequested = true
	llm := newScriptedLLM(`{"itinerary":[],"message":"Here is a fresh take."}`)

	p, _ := NewItinerary(llm, Options{}).Run(context.Background(), st)
	st.Apply(p)

	if st.AltRound != 1 || st.AltRequested {
		t.Errorf("Expected round 1 served, got round %d requested=%v", st.AltRound, st.AltRequested)
	}
	if !st.Itinerary[0].Alternative || !strings.HasPrefix(st.Itinerary[0].Plan, "alt 1") {
		t.Errorf("Expected alternative plan, got %+v", st.Itinerary[0])
	}

	// P1 has a single alternative per day, so the next request is exhausted.
	st.AltRequested = true
	before := st.Itinerary
	p, _ = NewItinerary(llm, Options{}).Run(context.Background(), st)
	st.Apply(p)

	if p.Reply != alternativesGone {
		t.Errorf("Expected exhaustion reply, got %q", p.Reply)
	}
	if !p.Itinerary.Absent() || len(st.Itinerary) != len(before) || st.AltRequested {
		t.Error("Expected itinerary kept and request cleared")
	}
	if llm.calls() != 1 {
		t.Errorf("Expected exhaustion to skip the generator, got %d calls", llm.calls())
	}
}

func TestItineraryPartialAlternatives(t *testing.T) {
	cat := catalog.MustNew(&catalog.Offering{ID: "Q1", Category: "beach", Place: "Goa", DurationDays: 2, DayPlans: []catalog.DayPlan{
		{Day: 1, Primary: "p1", Alternatives: []string{"a1"}},
		{Day: 2, Primary: "p2"},
	}})
	st := state.New("c", cat)
	st.CurrentOffer, _ = cat.Get("Q1")
	st.AltRequested = true
	llm := newScriptedLLM(`{"itinerary":[],"message":"Updated."}`)

	p, _ := NewItinerary(llm, Options{}).Run(context.Background(), st)

	if !strings.HasPrefix(p.Reply, "Updated.") || !strings.Contains(p.Reply, "day(s) 2") {
		t.Errorf("Expected partial exhaustion note, got %q", p.Reply)
	}
	entries, ok := p.Itinerary.Value()
	if !ok || entries[0].Plan != "a1" || entries[1].Plan != "p2" {
		t.Errorf("Unexpected itinerary %+v", entries)
	}
}

func TestItineraryGeneratorFailure(t *testing.T) {
	tests := []struct {
		name        string
		llm         *scriptedLLM
		alternative bool
	}{
		{"unavailable", &scriptedLLM{err: errors.New("dial tcp: timeout")}, false},
		{"malformed", newScriptedLLM("Day 1: beach. Day 2: fort."), false},
		{"alternative round", &scriptedLLM{err: errors.New("dial tcp: timeout")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := itineraryState(t, "P1")
			if tt.alternative {
				st.OfferDecision = state.DecisionUndecided
				st.AltRequested = true
				st.Stage = state.StageItineraryReady
				st.Itinerary = []state.DayEntry{{Day: 1, Plan: "primary A"}, {Day: 2, Plan: "primary B"}}
			}
			p, err := NewItinerary(tt.llm, Options{}).Run(context.Background(), st)
			if err != nil {
				t.Fatalf("Expected fallback, got error %v", err)
			}
			if p.Reply != itineraryErrorReply {
				t.Errorf("Expected error reply, got %q", p.Reply)
			}
			if d, _ := p.OfferDecision.Value(); d != state.DecisionUndecided {
				t.Errorf("Expected decision reset, got %q", d)
			}
			st.Apply(p)
			if len(st.Itinerary) != 0 {
				t.Errorf("Expected itinerary left unset, got %+v", st.Itinerary)
			}
			if st.Stage != state.StagePresentingOffer || st.AltRequested {
				t.Errorf("Expected the offer presented again, got stage %s requested=%v", st.Stage, st.AltRequested)
			}
		})
	}
}

func TestItineraryWithoutOffer(t *testing.T) {
	llm := newScriptedLLM()
	p, _ := NewItinerary(llm, Options{}).Run(context.Background(), newState("plan it"))
	if p.Reply != noOfferReply {
		t.Errorf("Expected no-offer reply, got %q", p.Reply)
	}
	if llm.calls() != 0 {
		t.Errorf("Expected no generator call, got %d", llm.calls())
	}
}
