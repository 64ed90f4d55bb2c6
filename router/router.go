// Package router decides which reasoning step runs next. It reads declared
// session-state fields only and never calls a step.
package router

import (
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

// Router selects the step that follows last.
type Router interface {
	Next(st *state.State, last step.ID) step.ID
}

// Rule maps the session state after a step to the next step.
type Rule func(st *state.State) step.ID

// Table is a lookup table keyed by the step that just ran. A missing entry
// ends the turn.
type Table map[step.ID]Rule

// Next implements Router.
func (t Table) Next(st *state.State, last step.ID) step.ID {
	rule, ok := t[last]
	if !ok || rule == nil {
		return step.End
	}
	return rule(st)
}

// Fixed returns a rule that always yields id.
func Fixed(id step.ID) Rule {
	return func(*state.State) step.ID { return id }
}

// gatheringStages are the stages in which a fresh utterance may carry new
// constraints.
var gatheringStages = map[state.Stage]bool{
	state.StageGreeting:         true,
	state.StageInfoGathering:    true,
	state.StageCategorySelected: true,
	state.StagePlaceSelected:    true,
	state.StageOffersExhausted:  true,
}

// AfterDialogue routes a dialogue reply. Only the first reply to a user
// utterance may lead anywhere; later replies in the same turn end it. An
// offer verdict or an alternative request takes precedence over extraction.
func AfterDialogue(st *state.State) step.ID {
	if st.RepliesSinceInput() > 1 {
		return step.End
	}
	if st.CurrentOffer != nil {
		switch st.OfferDecision {
		case state.DecisionAccepted:
			return step.Itinerary
		case state.DecisionRejected:
			return step.Ranking
		}
		if st.AltRequested {
			return step.Itinerary
		}
	}
	if !gatheringStages[st.Stage] {
		return step.End
	}
	return step.Extraction
}

// AfterExtraction starts a search once both category and place are known and
// otherwise returns to the dialogue to ask for what is missing.
func AfterExtraction(st *state.State) step.ID {
	switch {
	case st.Constraints.Category != "" && st.Constraints.Place != "":
		return step.Research
	case st.Constraints.Category != "":
		return step.Dialogue
	default:
		return step.End
	}
}

// Default returns the conversation routing table.
func Default() Table {
	return Table{
		step.Dialogue:   AfterDialogue,
		step.Extraction: AfterExtraction,
		step.Research:   Fixed(step.Ranking),
		step.Ranking:    Fixed(step.Dialogue),
		step.Itinerary:  Fixed(step.Dialogue),
	}
}
