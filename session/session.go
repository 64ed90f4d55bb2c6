// Package session persists conversation state between turns. A Record is the
// serializable snapshot of a state.State; offerings are stored by package id
// and resolved against the catalog when the record is restored.
package session

import (
	"time"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/message"
	"github.com/sweetpotato0/voyager/state"
)

// Record is the stored form of one conversation.
type Record struct {
	ID              string             `json:"id"`
	Messages        []*message.Message `json:"messages"`
	Stage           state.Stage        `json:"stage"`
	Constraints     state.Constraints  `json:"constraints"`
	AvailablePlaces []string           `json:"available_places,omitempty"`
	CandidateIDs    []string           `json:"candidate_ids,omitempty"`
	QueueIDs        []string           `json:"queue_ids,omitempty"`
	OfferID         string             `json:"offer_id,omitempty"`
	Decision        state.Decision     `json:"decision"`
	Itinerary       []state.DayEntry   `json:"itinerary,omitempty"`
	AltRequested    bool               `json:"alt_requested,omitempty"`
	AltRound        int                `json:"alt_round,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Snapshot captures st as a record.
func Snapshot(st *state.State) *Record {
	if st == nil {
		return nil
	}
	r := &Record{
		ID:              st.ID,
		Messages:        message.CloneMessages(st.TurnLog),
		Stage:           st.Stage,
		Constraints:     st.Constraints.Clone(),
		AvailablePlaces: cloneStrings(st.AvailablePlaces),
		CandidateIDs:    offeringIDs(st.Candidates),
		QueueIDs:        offeringIDs(st.RankedQueue),
		Decision:        st.OfferDecision,
		Itinerary:       cloneDays(st.Itinerary),
		AltRequested:    st.AltRequested,
		AltRound:        st.AltRound,
		UpdatedAt:       st.UpdatedAt,
	}
	if st.CurrentOffer != nil {
		r.OfferID = st.CurrentOffer.ID
	}
	if len(st.TurnLog) > 0 {
		r.CreatedAt = st.TurnLog[0].CreatedAt
	} else {
		r.CreatedAt = st.UpdatedAt
	}
	return r
}

// Restore rebuilds the state recorded in r over cat. Package ids the catalog
// no longer holds are dropped and returned so the caller can report them.
func (r *Record) Restore(cat *catalog.Catalog) (*state.State, []string) {
	st := state.New(r.ID, cat)
	st.TurnLog = message.CloneMessages(r.Messages)
	if r.Stage != "" {
		st.Stage = r.Stage
	}
	st.Constraints = r.Constraints.Clone()
	st.AvailablePlaces = cloneStrings(r.AvailablePlaces)
	if r.Decision != "" {
		st.OfferDecision = r.Decision
	}
	st.Itinerary = cloneDays(r.Itinerary)
	st.AltRequested = r.AltRequested
	st.AltRound = r.AltRound
	if !r.UpdatedAt.IsZero() {
		st.UpdatedAt = r.UpdatedAt
	}

	var missing []string
	resolve := func(ids []string) []*catalog.Offering {
		if ids == nil {
			return nil
		}
		out := make([]*catalog.Offering, 0, len(ids))
		for _, id := range ids {
			if o, ok := cat.Get(id); ok {
				out = append(out, o)
			} else {
				missing = append(missing, id)
			}
		}
		return out
	}
	st.Candidates = resolve(r.CandidateIDs)
	st.RankedQueue = resolve(r.QueueIDs)
	if r.OfferID != "" {
		if o, ok := cat.Get(r.OfferID); ok {
			st.CurrentOffer = o
		} else {
			missing = append(missing, r.OfferID)
			st.CurrentOffer = nil
			st.OfferDecision = state.DecisionUndecided
			st.Itinerary = nil
		}
	}
	return st, missing
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Messages = message.CloneMessages(r.Messages)
	c.Constraints = r.Constraints.Clone()
	c.AvailablePlaces = cloneStrings(r.AvailablePlaces)
	c.CandidateIDs = cloneStrings(r.CandidateIDs)
	c.QueueIDs = cloneStrings(r.QueueIDs)
	c.Itinerary = cloneDays(r.Itinerary)
	return &c
}

func offeringIDs(offerings []*catalog.Offering) []string {
	if offerings == nil {
		return nil
	}
	ids := make([]string, 0, len(offerings))
	for _, o := range offerings {
		if o != nil {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneDays(in []state.DayEntry) []state.DayEntry {
	if in == nil {
		return nil
	}
	out := make([]state.DayEntry, len(in))
	copy(out, in)
	return out
}
