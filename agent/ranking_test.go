package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/state"
)

func runRanking(t *testing.T, llm *scriptedLLM, st *state.State) *state.State {
	t.Helper()
	p, err := NewRanking(llm, Options{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.Apply(p)
	return st
}

func TestRankingRejectionPresentsNext(t *testing.T) {
	st := newState("no, something else")
	cat := st.Catalog
	st.CurrentOffer = offering(t, cat, "P1")
	st.RankedQueue = []*catalog.Offering{offering(t, cat, "P2"), offering(t, cat, "P3")}
	st.OfferDecision = state.DecisionRejected
	st.Stage = state.StagePresentingOffer
	llm := newScriptedLLM()

	runRanking(t, llm, st)

	if st.CurrentOffer == nil || st.CurrentOffer.ID != "P2" {
		t.Errorf("Expected current offer P2, got %v", st.CurrentOffer)
	}
	if !equalStrings(ids(st.RankedQueue), []string{"P3"}) {
		t.Errorf("Expected queue [P3], got %v", ids(st.RankedQueue))
	}
	if st.OfferDecision != state.DecisionUndecided {
		t.Errorf("Expected undecided, got %s", st.OfferDecision)
	}
	if st.Stage != state.StagePresentingOffer {
		t.Errorf("Expected presenting_offer, got %s", st.Stage)
	}
	if llm.calls() != 0 {
		t.Errorf("Expected rejection to skip the generator, got %d calls", llm.calls())
	}
}

func TestRankingQueueExhausted(t *testing.T) {
	st := newState("no")
	st.CurrentOffer = offering(t, st.Catalog, "P1")
	st.RankedQueue = []*catalog.Offering{}
	st.OfferDecision = state.DecisionRejected
	st.Stage = state.StagePresentingOffer
	llm := newScriptedLLM()

	runRanking(t, llm, st)

	if st.CurrentOffer != nil {
		t.Errorf("Expected no current offer, got %s", st.CurrentOffer.ID)
	}
	if st.Stage != state.StageOffersExhausted {
		t.Errorf("Expected offers_exhausted, got %s", st.Stage)
	}
	if llm.calls() != 0 {
		t.Errorf("Expected no generator call, got %d", llm.calls())
	}
}

func TestRankingAwaitingDecisionIsNoop(t *testing.T) {
	st := newState("hmm let me think")
	st.CurrentOffer = offering(t, st.Catalog, "P1")
	st.Candidates = []*catalog.Offering{offering(t, st.Catalog, "P2")}
	st.OfferDecision = state.DecisionUndecided
	llm := newScriptedLLM(`{"ranked_packages":[{"package_id":"P2","score":99}]}`)

	for i := 0; i < 2; i++ {
		p, err := NewRanking(llm, Options{}).Run(context.Background(), st)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !p.Empty() {
			t.Errorf("run %d: Expected an empty update", i)
		}
	}
	if llm.calls() != 0 {
		t.Errorf("Expected no generator call, got %d", llm.calls())
	}
}

func TestRankingNoCandidates(t *testing.T) {
	st := newState("")
	llm := newScriptedLLM()
	p, err := NewRanking(llm, Options{}).Run(context.Background(), st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	queue, ok := p.RankedQueue.Value()
	if !ok || len(queue) != 0 {
		t.Errorf("Expected an empty ranked list, got %v (set=%v)", queue, ok)
	}
	if !p.CurrentOffer.Absent() {
		t.Error("Expected no offer change")
	}
	if llm.calls() != 0 {
		t.Errorf("Expected no generator call, got %d", llm.calls())
	}
}

func TestRankingOrdersCandidates(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{"scored", `{"ranked_packages":[{"package_id":"P3","score":60},{"package_id":"P5","score":95,"reasoning":"cheapest"}]}`, []string{"P5", "P3", "P1"}},
		{"fenced", "```json\n{\"ranked_packages\":[{\"package_id\":\"P5\",\"score\":95},{\"package_id\":\"P3\",\"score\":60}]}\n```", []string{"P5", "P3", "P1"}},
		{"bare ids ignore unknown", `["P9","P3"]`, []string{"P3", "P1", "P5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState("")
			cat := st.Catalog
			st.Candidates = []*catalog.Offering{offering(t, cat, "P1"), offering(t, cat, "P3"), offering(t, cat, "P5")}

			runRanking(t, newScriptedLLM(tt.reply), st)

			got := append([]string{st.CurrentOffer.ID}, ids(st.RankedQueue)...)
			if !equalStrings(got, tt.want) {
				t.Errorf("Expected order %v, got %v", tt.want, got)
			}
			if st.Candidates != nil {
				t.Error("Expected candidates consumed")
			}
			if st.Stage != state.StagePresentingOffer || st.OfferDecision != state.DecisionUndecided {
				t.Errorf("Expected presenting_offer/undecided, got %s/%s", st.Stage, st.OfferDecision)
			}
		})
	}
}

func TestRankingFailureKeepsCandidateOrder(t *testing.T) {
	tests := []struct {
		name string
		llm  *scriptedLLM
	}{
		{"malformed", newScriptedLLM("P3 is best, then P1")},
		{"unknown only", newScriptedLLM(`{"ranked_packages":[{"package_id":"ZZ"}]}`)},
		{"unavailable", &scriptedLLM{err: errors.New("503")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState("")
			cat := st.Catalog
			st.Candidates = []*catalog.Offering{offering(t, cat, "P2"), offering(t, cat, "P1")}

			runRanking(t, tt.llm, st)

			if st.CurrentOffer == nil || st.CurrentOffer.ID != "P2" {
				t.Errorf("Expected P2 presented first, got %v", st.CurrentOffer)
			}
			if !equalStrings(ids(st.RankedQueue), []string{"P1"}) {
				t.Errorf("Expected queue [P1], got %v", ids(st.RankedQueue))
			}
		})
	}
}

func TestRankingAfterAcceptanceReranks(t *testing.T) {
	st := newState("")
	cat := st.Catalog
	st.CurrentOffer = offering(t, cat, "P1")
	st.OfferDecision = state.DecisionAccepted
	st.Candidates = []*catalog.Offering{offering(t, cat, "P3")}
	llm := newScriptedLLM(`["P3"]`)

	runRanking(t, llm, st)

	if st.CurrentOffer.ID != "P3" {
		t.Errorf("Expected new candidates to be ranked, got %s", st.CurrentOffer.ID)
	}
	if llm.calls() != 1 {
		t.Errorf("Expected one generator call, got %d", llm.calls())
	}
}
