package router

import (
	"testing"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/message"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

// answered returns a state whose newest user utterance has n replies.
func answered(n int) *state.State {
	st := state.New("c", nil)
	st.Append(message.RoleUser, "hi")
	for i := 0; i < n; i++ {
		st.Append(message.RoleAssistant, "reply")
	}
	return st
}

func TestAfterDialogue(t *testing.T) {
	offer := &catalog.Offering{ID: "P1"}

	tests := []struct {
		name  string
		setup func(st *state.State)
		want  step.ID
	}{
		{"greeting goes to extraction", func(st *state.State) {}, step.Extraction},
		{"info gathering goes to extraction", func(st *state.State) { st.Stage = state.StageInfoGathering }, step.Extraction},
		{"place selected goes to extraction", func(st *state.State) { st.Stage = state.StagePlaceSelected }, step.Extraction},
		{"exhausted offers go to extraction", func(st *state.State) { st.Stage = state.StageOffersExhausted }, step.Extraction},
		{"off topic ends", func(st *state.State) { st.Stage = state.StageOffTopic }, step.End},
		{"itinerary ready ends", func(st *state.State) { st.Stage = state.StageItineraryReady }, step.End},
		{"accepted offer builds itinerary", func(st *state.State) {
			st.Stage = state.StagePresentingOffer
			st.CurrentOffer = offer
			st.OfferDecision = state.DecisionAccepted
		}, step.Itinerary},
		{"rejected offer goes to ranking", func(st *state.State) {
			st.Stage = state.StagePresentingOffer
			st.CurrentOffer = offer
			st.OfferDecision = state.DecisionRejected
		}, step.Ranking},
		{"undecided offer ends", func(st *state.State) {
			st.Stage = state.StagePresentingOffer
			st.CurrentOffer = offer
		}, step.End},
		{"alternative request builds itinerary", func(st *state.State) {
			st.Stage = state.StageAlternativePlan
			st.CurrentOffer = offer
			st.AltRequested = true
		}, step.Itinerary},
		{"alternative request without offer ends", func(st *state.State) {
			st.Stage = state.StageAlternativePlan
			st.AltRequested = true
		}, step.End},
		{"decision without offer is ignored", func(st *state.State) {
			st.Stage = state.StageInfoGathering
			st.OfferDecision = state.DecisionRejected
		}, step.Extraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := answered(1)
			tt.setup(st)
			if got := AfterDialogue(st); got != tt.want {
				t.Errorf("AfterDialogue() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAfterDialogueSecondReplyEndsTurn(t *testing.T) {
	st := answered(2)
	st.Stage = state.StageGreeting
	st.CurrentOffer = &catalog.Offering{ID: "P1"}
	st.OfferDecision = state.DecisionRejected
	if got := AfterDialogue(st); got != step.End {
		t.Errorf("expected end after second reply, got %s", got)
	}
}

func TestAfterExtraction(t *testing.T) {
	tests := []struct {
		name string
		c    state.Constraints
		want step.ID
	}{
		{"category and place", state.Constraints{Category: "beach", Place: "Goa"}, step.Research},
		{"category only", state.Constraints{Category: "beach"}, step.Dialogue},
		{"nothing known", state.Constraints{}, step.End},
		{"place without category", state.Constraints{Place: "Goa"}, step.End},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := state.New("c", nil)
			st.Constraints = tt.c
			if got := AfterExtraction(st); got != tt.want {
				t.Errorf("AfterExtraction() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDefaultTable(t *testing.T) {
	r := Default()
	st := answered(1)

	fixed := map[step.ID]step.ID{
		step.Research:  step.Ranking,
		step.Ranking:   step.Dialogue,
		step.Itinerary: step.Dialogue,
	}
	for from, want := range fixed {
		if got := r.Next(st, from); got != want {
			t.Errorf("Next(%s) = %s, want %s", from, got, want)
		}
	}
	if got := r.Next(st, step.ID("unknown")); got != step.End {
		t.Errorf("unknown step should end the turn, got %s", got)
	}
}

// Every path through the default table from a fresh utterance must end
// within the engine's default step budget.
func TestDefaultTableTerminates(t *testing.T) {
	r := Default()
	st := answered(0)
	st.Constraints = state.Constraints{Category: "beach", Place: "Goa"}

	current := step.Dialogue
	steps := 0
	for current != step.End {
		steps++
		if steps > 6 {
			t.Fatalf("routing did not terminate within 6 steps")
		}
		if current == step.Dialogue {
			st.Append(message.RoleAssistant, "reply")
		}
		current = r.Next(st, current)
	}
	if steps != 5 {
		t.Errorf("expected dialogue-extraction-research-ranking-dialogue (5 steps), got %d", steps)
	}
}
