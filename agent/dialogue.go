package agent

import (
	"context"
	"strings"

	errorspkg "github.com/sweetpotato0/voyager/errors"
	"github.com/sweetpotato0/voyager/prompt"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

// DialogueApology is surfaced when neither the generator nor its raw text can
// produce a message.
const DialogueApology = "Sorry, I couldn't process that just now. Could you say it again?"

// followUpInstruction asks for a reply that reflects what the other steps
// just changed, without re-reading the user's message.
const followUpInstruction = "The conversation facts were just updated. Tell the user what changed and what comes next. Keep the stage as it is."

// Dialogue classifies the conversation stage and writes the user-facing
// reply. While an offer waits for a verdict it also reads the user's
// decision.
type Dialogue struct {
	base
}

// NewDialogue creates the dialogue step.
func NewDialogue(llm LLMClient, opts Options) *Dialogue {
	return &Dialogue{base: newBase(step.Dialogue, llm, opts)}
}

type dialogueReply struct {
	Stage    string `json:"stage"`
	Message  string `json:"message"`
	Decision string `json:"decision,omitempty"`
}

// Run implements step.Step.
func (d *Dialogue) Run(ctx context.Context, st *state.State) (*state.Patch, error) {
	fresh := st.AwaitingReply()
	askDecision := fresh && st.Stage == state.StagePresentingOffer && st.CurrentOffer != nil

	system, err := d.render(prompt.Dialogue, d.vars(st, askDecision))
	if err != nil {
		return nil, err
	}
	instruction := ""
	if !fresh {
		instruction = followUpInstruction
	}

	patch := &state.Patch{}
	raw, err := d.generate(ctx, system, d.history(st), instruction)
	if err != nil {
		d.fallback(ctx, err)
		patch.Reply = DialogueApology
		return patch, nil
	}

	reply, err := decodeJSON[dialogueReply](raw)
	if err != nil || strings.TrimSpace(reply.Message) == "" {
		if err == nil {
			err = errorspkg.ErrMalformedResponse
		}
		d.fallback(ctx, err)
		// the raw text is the best reply we have; the stage stays put
		patch.Reply = strings.TrimSpace(raw)
		return patch, nil
	}
	patch.Reply = strings.TrimSpace(reply.Message)

	stage, known := state.ParseStage(strings.ToLower(strings.TrimSpace(reply.Stage)))
	if fresh && known && stage != st.Stage {
		patch.Stage = state.Set(stage)
	}
	if askDecision {
		if decision, ok := parseDecision(reply.Decision); ok && decision != st.OfferDecision {
			patch.OfferDecision = state.Set(decision)
		}
	}
	if fresh && known && stage == state.StageAlternativePlan && st.CurrentOffer != nil {
		patch.AltRequested = state.Set(true)
	}
	return patch, nil
}

func (d *Dialogue) vars(st *state.State, askDecision bool) map[string]any {
	c := st.Constraints
	offer := ""
	if st.CurrentOffer != nil {
		offer = describeOffer(st.CurrentOffer, c.PartyType)
	}
	return map[string]any{
		"Stage":           string(st.Stage),
		"Category":        c.Category,
		"Place":           c.Place,
		"Budget":          formatOptional(c.Budget),
		"Duration":        c.DurationDays,
		"Party":           c.PartyType,
		"Categories":      st.Catalog.Categories(),
		"Places":          st.AvailablePlaces,
		"Offer":           offer,
		"OffersExhausted": st.Stage == state.StageOffersExhausted,
		"Itinerary":       describeItinerary(st.Itinerary),
		"AskDecision":     askDecision,
	}
}

func formatOptional(v float64) string {
	if v <= 0 {
		return ""
	}
	return formatAmount(v)
}

// parseDecision maps the generator's verdict, tolerating common synonyms.
func parseDecision(s string) (state.Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accepted", "accept", "yes":
		return state.DecisionAccepted, true
	case "rejected", "reject", "no":
		return state.DecisionRejected, true
	case "undecided", "":
		return state.DecisionUndecided, true
	default:
		return "", false
	}
}

var _ step.Step = (*Dialogue)(nil)
