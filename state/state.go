// Package state defines the per-conversation record that every reasoning step
// reads and that the engine mutates by applying step patches.
package state

import (
	"time"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/message"
)

// Stage labels where the conversation stands.
type Stage string

const (
	StageGreeting         Stage = "greeting"
	StageInfoGathering    Stage = "info_gathering"
	StageCategorySelected Stage = "category_selected"
	StagePlaceSelected    Stage = "place_selected"
	StagePresentingOffer  Stage = "presenting_offer"
	StageOffersExhausted  Stage = "offers_exhausted"
	StageAlternativePlan  Stage = "alternative_plan"
	StageItineraryReady   Stage = "itinerary_ready"
	StageOffTopic         Stage = "off_topic"
)

var stages = []Stage{
	StageGreeting,
	StageInfoGathering,
	StageCategorySelected,
	StagePlaceSelected,
	StagePresentingOffer,
	StageOffersExhausted,
	StageAlternativePlan,
	StageItineraryReady,
	StageOffTopic,
}

// Stages lists every known stage in conversation order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// ParseStage reports whether s names a known stage.
func ParseStage(s string) (Stage, bool) {
	for _, st := range stages {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Decision is the user's verdict on the current offer.
type Decision string

const (
	DecisionUndecided Decision = "undecided"
	DecisionAccepted  Decision = "accepted"
	DecisionRejected  Decision = "rejected"
)

// Constraints are the accumulated user preferences. Zero values mean unset.
type Constraints struct {
	Category     string   `json:"category,omitempty"`
	Place        string   `json:"place,omitempty"`
	Budget       float64  `json:"budget,omitempty"`
	DurationDays int      `json:"duration_days,omitempty"`
	PartyType    string   `json:"party_type,omitempty"`
	Activities   []string `json:"activities,omitempty"`
}

// Clone copies the constraints.
func (c Constraints) Clone() Constraints {
	c.Activities = cloneSlice(c.Activities)
	return c
}

// DayEntry is one day of a built itinerary.
type DayEntry struct {
	Day         int    `json:"day"`
	Plan        string `json:"plan"`
	Detail      string `json:"detail,omitempty"`
	Alternative bool   `json:"alternative,omitempty"`
}

// State is the session record of one conversation.
//
// The turn log is append-only and written only by the engine. Offerings are
// shared with the catalog and never mutated through the state.
type State struct {
	ID              string
	TurnLog         []*message.Message
	Stage           Stage
	Constraints     Constraints
	Catalog         *catalog.Catalog
	AvailablePlaces []string
	Candidates      []*catalog.Offering
	RankedQueue     []*catalog.Offering
	CurrentOffer    *catalog.Offering
	OfferDecision   Decision
	Itinerary       []DayEntry
	AltRequested    bool
	// AltRound counts alternative variants already served for the current
	// offer; 0 means the primary plan is showing.
	AltRound  int
	UpdatedAt time.Time
}

// New creates an empty conversation record bound to a catalog.
func New(id string, cat *catalog.Catalog) *State {
	return &State{
		ID:            id,
		Stage:         StageGreeting,
		Catalog:       cat,
		OfferDecision: DecisionUndecided,
		UpdatedAt:     time.Now(),
	}
}

// Clone returns a copy that can be modified without affecting s. The catalog
// and the offerings it holds are shared.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.TurnLog = message.CloneMessages(s.TurnLog)
	c.Constraints = s.Constraints.Clone()
	c.AvailablePlaces = cloneSlice(s.AvailablePlaces)
	c.Candidates = cloneSlice(s.Candidates)
	c.RankedQueue = cloneSlice(s.RankedQueue)
	c.Itinerary = cloneSlice(s.Itinerary)
	return &c
}

// Append adds an entry to the turn log.
func (s *State) Append(role message.Role, content string) *message.Message {
	msg := message.NewMessage(role, content)
	s.TurnLog = append(s.TurnLog, msg)
	s.UpdatedAt = msg.CreatedAt
	return msg
}

// LastUserMessage returns the newest user entry, or nil.
func (s *State) LastUserMessage() *message.Message {
	for i := len(s.TurnLog) - 1; i >= 0; i-- {
		if s.TurnLog[i].Role == message.RoleUser {
			return s.TurnLog[i]
		}
	}
	return nil
}

// AwaitingReply reports whether the newest entry is an unanswered user
// utterance.
func (s *State) AwaitingReply() bool {
	last := message.Last(s.TurnLog)
	return last != nil && last.Role == message.RoleUser
}

// RepliesSinceInput counts assistant entries after the newest user entry.
func (s *State) RepliesSinceInput() int {
	n := 0
	for i := len(s.TurnLog) - 1; i >= 0; i-- {
		if s.TurnLog[i].Role == message.RoleUser {
			break
		}
		if s.TurnLog[i].Role == message.RoleAssistant {
			n++
		}
	}
	return n
}

// LastReply returns the newest assistant entry, or nil.
func (s *State) LastReply() *message.Message {
	for i := len(s.TurnLog) - 1; i >= 0; i-- {
		if s.TurnLog[i].Role == message.RoleAssistant {
			return s.TurnLog[i]
		}
	}
	return nil
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
