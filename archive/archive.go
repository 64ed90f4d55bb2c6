// Package archive records every itinerary a conversation produces, so that
// finished plans outlive the session that built them.
package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sweetpotato0/voyager/state"
)

// Entry is one archived itinerary.
type Entry struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversation_id"`
	PackageID      string           `json:"package_id"`
	PackageName    string           `json:"package_name,omitempty"`
	Place          string           `json:"place"`
	Round          int              `json:"round"`
	Days           []state.DayEntry `json:"days"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Store defines the interface for archive backends. List with an empty
// conversation id returns every entry; entries come newest first.
type Store interface {
	Add(ctx context.Context, entry *Entry) error
	List(ctx context.Context, conversationID string) ([]*Entry, error)
	Count(ctx context.Context) (int, error)
}

// FromState builds the entry for the itinerary currently held by st, or
// returns nil when there is none.
func FromState(st *state.State) *Entry {
	if st == nil || st.CurrentOffer == nil || len(st.Itinerary) == 0 {
		return nil
	}
	days := make([]state.DayEntry, len(st.Itinerary))
	copy(days, st.Itinerary)
	return &Entry{
		ID:             NewID(),
		ConversationID: st.ID,
		PackageID:      st.CurrentOffer.ID,
		PackageName:    st.CurrentOffer.Name,
		Place:          st.CurrentOffer.Place,
		Round:          st.AltRound,
		Days:           days,
		CreatedAt:      time.Now(),
	}
}

// Prepare fills in a missing id and creation time before a backend writes e.
func Prepare(e *Entry) error {
	if e == nil {
		return fmt.Errorf("archive entry cannot be nil")
	}
	if e.ConversationID == "" {
		return fmt.Errorf("archive entry needs a conversation id")
	}
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}

// idGenerator hands out time-based ids, adding a counter when two ids are
// requested within the same nanosecond.
type idGenerator struct {
	mu      sync.Mutex
	counter int64
	lastTs  int64
}

var defaultIDGenerator = &idGenerator{}

// NewID generates a unique archive entry id.
func NewID() string {
	return defaultIDGenerator.generate()
}

func (g *idGenerator) generate() string {
	now := time.Now().UnixNano()

	g.mu.Lock()
	defer g.mu.Unlock()
	if now > g.lastTs {
		g.lastTs = now
		g.counter = 0
		return fmt.Sprintf("itn_%d", now)
	}
	g.counter++
	return fmt.Sprintf("itn_%d_%d", g.lastTs, g.counter)
}
