package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/contrib/session/inmemory"
	errorspkg "github.com/sweetpotato0/voyager/errors"
	"github.com/sweetpotato0/voyager/message"
	"github.com/sweetpotato0/voyager/session"
	"github.com/sweetpotato0/voyager/state"
)

func testCatalog() *catalog.Catalog {
	return catalog.MustNew(
		&catalog.Offering{ID: "P1", Category: "beach", Place: "Goa", DurationDays: 2},
		&catalog.Offering{ID: "P2", Category: "beach", Place: "Goa", DurationDays: 3},
		&catalog.Offering{ID: "P3", Category: "hills", Place: "Manali", DurationDays: 4},
	)
}

func sampleState(cat *catalog.Catalog) *state.State {
	st := state.New("conv", cat)
	st.Append(message.RoleUser, "beach in goa")
	st.Append(message.RoleAssistant, "Here is P1")
	st.Stage = state.StagePresentingOffer
	st.Constraints = state.Constraints{Category: "beach", Place: "Goa", Budget: 30000, Activities: []string{"surfing"}}
	st.AvailablePlaces = []string{"Goa"}
	st.CurrentOffer, _ = cat.Get("P1")
	p2, _ := cat.Get("P2")
	st.RankedQueue = []*catalog.Offering{p2}
	st.Itinerary = []state.DayEntry{{Day: 1, Plan: "beach"}}
	st.AltRound = 1
	return st
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	cat := testCatalog()
	st := sampleState(cat)

	raw, err := json.Marshal(session.Snapshot(st))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var rec session.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, missing := rec.Restore(cat)

	if len(missing) != 0 {
		t.Errorf("Expected no missing packages, got %v", missing)
	}
	if got.CurrentOffer != st.CurrentOffer {
		t.Error("Expected the offer to resolve to the catalog entry")
	}
	if len(got.RankedQueue) != 1 || got.RankedQueue[0].ID != "P2" {
		t.Errorf("Unexpected queue %v", got.RankedQueue)
	}
	if got.Stage != st.Stage || got.Constraints.Budget != 30000 || got.AltRound != 1 || len(got.TurnLog) != 2 {
		t.Errorf("Unexpected restored state %+v", got)
	}
	if got.Catalog != cat {
		t.Error("Expected the restored state bound to the catalog")
	}
}

func TestRestoreDropsUnknownPackages(t *testing.T) {
	rec := &session.Record{ID: "c", OfferID: "GONE", QueueIDs: []string{"P2", "OLD"}, Decision: state.DecisionRejected, Itinerary: []state.DayEntry{{Day: 1}}}
	st, missing := rec.Restore(testCatalog())

	if len(missing) != 2 {
		t.Errorf("Expected 2 missing ids, got %v", missing)
	}
	if st.CurrentOffer != nil || st.Itinerary != nil || st.OfferDecision != state.DecisionUndecided {
		t.Error("Expected a vanished offer to reset the decision and itinerary")
	}
	if len(st.RankedQueue) != 1 {
		t.Errorf("Expected known ids kept, got %d", len(st.RankedQueue))
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	cat := testCatalog()
	mgr := session.NewManager(inmemory.NewInMemoryStore(), cat)

	st, created, err := mgr.GetOrCreate(ctx, "conv")
	if err != nil || !created {
		t.Fatalf("Expected a new conversation, got created=%v err=%v", created, err)
	}
	if st.Stage != state.StageGreeting {
		t.Errorf("Expected greeting, got %s", st.Stage)
	}

	if err := mgr.Save(ctx, sampleState(cat)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	st, created, err = mgr.GetOrCreate(ctx, "conv")
	if err != nil || created {
		t.Fatalf("Expected the stored conversation, got created=%v err=%v", created, err)
	}
	if st.CurrentOffer == nil || st.CurrentOffer.ID != "P1" {
		t.Errorf("Expected offer P1 restored, got %v", st.CurrentOffer)
	}

	if n, _ := mgr.Count(ctx); n != 1 {
		t.Errorf("Expected 1 session, got %d", n)
	}
	if err := mgr.Delete(ctx, "conv"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := mgr.Load(ctx, "conv"); !errors.Is(err, errorspkg.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := mgr.Save(ctx, state.New("", cat)); !errors.Is(err, errorspkg.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for an id-less state, got %v", err)
	}
}

func TestManagerWithoutStore(t *testing.T) {
	mgr := session.NewManager(nil, testCatalog())
	if _, err := mgr.Load(context.Background(), "x"); err == nil {
		t.Error("Expected error without a store")
	}
}
