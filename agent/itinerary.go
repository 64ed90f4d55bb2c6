package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/voyager/prompt"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

// Replies of the itinerary step.
const (
	noOfferReply        = "There is no package selected yet. Pick a package first and I'll plan the days."
	alternativesGone    = "I've suggested all possible alternatives for this package."
	itineraryErrorReply = "Error generating the itinerary."
	itineraryReadyReply = "Your itinerary is ready!"
)

// Itinerary builds the day-by-day plan of the accepted offer, or the next
// alternative version of it when the user asked for one.
type Itinerary struct {
	base
}

// NewItinerary creates the itinerary step.
func NewItinerary(llm LLMClient, opts Options) *Itinerary {
	return &Itinerary{base: newBase(step.Itinerary, llm, opts)}
}

type itineraryReply struct {
	Itinerary []struct {
		Day    flexNumber `json:"day"`
		Detail string     `json:"detail"`
	} `json:"itinerary"`
	Message string `json:"message"`
}

// Run implements step.Step.
func (it *Itinerary) Run(ctx context.Context, st *state.State) (*state.Patch, error) {
	p := &state.Patch{}
	offer := st.CurrentOffer
	if offer == nil {
		p.Reply = noOfferReply
		p.AltRequested = state.Clear[bool]()
		return p, nil
	}

	round := 0
	if st.AltRequested {
		round = st.AltRound + 1
	}
	days := st.Constraints.DurationDays
	if days <= 0 {
		days = offer.DurationDays
	}
	if days <= 0 {
		days = len(offer.DayPlans)
	}

	entries, missing := BuildPlan(offer, days, round)
	if round > 0 && len(missing) == len(entries) {
		it.logger.InfoContext(ctx, "alternatives exhausted", "package_id", offer.ID, "round", round)
		p.Reply = alternativesGone
		p.AltRequested = state.Clear[bool]()
		p.OfferDecision = state.Set(state.DecisionUndecided)
		p.Stage = state.Set(state.StageItineraryReady)
		return p, nil
	}

	message, err := it.detail(ctx, st, entries, round)
	if err != nil {
		it.fallback(ctx, err)
		// no plan survives a failed generation; the offer is up for a
		// fresh decision
		p.Reply = itineraryErrorReply
		p.Itinerary = state.Clear[[]state.DayEntry]()
		p.Stage = state.Set(state.StagePresentingOffer)
		p.OfferDecision = state.Set(state.DecisionUndecided)
		p.AltRequested = state.Clear[bool]()
		return p, nil
	}

	if message == "" {
		message = itineraryReadyReply
	}
	if len(missing) > 0 {
		message += fmt.Sprintf("\n\nNo further alternatives exist for day(s) %s, so they keep their original plan.", joinInts(missing))
	}
	p.Reply = message
	p.Itinerary = state.Set(entries)
	p.Stage = state.Set(state.StageItineraryReady)
	p.OfferDecision = state.Set(state.DecisionUndecided)
	p.AltRequested = state.Clear[bool]()
	p.AltRound = state.Set(round)
	return p, nil
}

// detail asks the generator for per-day details and fills them into
// entries. It returns the closing message.
func (it *Itinerary) detail(ctx context.Context, st *state.State, entries []state.DayEntry, round int) (string, error) {
	system, err := it.render(prompt.Itinerary, map[string]any{
		"Offer":       describeOffer(st.CurrentOffer, st.Constraints.PartyType),
		"Days":        len(entries),
		"Party":       st.Constraints.PartyType,
		"Alternative": round > 0,
		"Round":       round,
		"Plan":        describeItinerary(entries),
	})
	if err != nil {
		return "", err
	}
	raw, err := it.generate(ctx, system, nil, "Write the itinerary.")
	if err != nil {
		return "", err
	}
	reply, err := decodeJSON[itineraryReply](raw)
	if err != nil {
		return "", err
	}
	for i, d := range reply.Itinerary {
		idx := i
		if d.Day.set {
			idx = int(d.Day.value) - 1
		}
		if idx >= 0 && idx < len(entries) {
			entries[idx].Detail = strings.TrimSpace(d.Detail)
		}
	}
	return strings.TrimSpace(reply.Message), nil
}

var _ step.Step = (*Itinerary)(nil)
