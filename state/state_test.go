package state

import (
	"reflect"
	"testing"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/message"
)

func offering(id string) *catalog.Offering {
	return &catalog.Offering{ID: id, Category: "beach", Place: "Goa"}
}

func TestNewState(t *testing.T) {
	s := New("conv-1", nil)
	if s.Stage != StageGreeting {
		t.Errorf("expected greeting stage, got %s", s.Stage)
	}
	if s.OfferDecision != DecisionUndecided {
		t.Errorf("expected undecided, got %s", s.OfferDecision)
	}
	if len(s.TurnLog) != 0 {
		t.Errorf("expected empty turn log")
	}
}

func TestParseStage(t *testing.T) {
	if st, ok := ParseStage("presenting_offer"); !ok || st != StagePresentingOffer {
		t.Errorf("expected presenting_offer, got %q %v", st, ok)
	}
	if _, ok := ParseStage("destination"); ok {
		t.Error("expected unknown stage to be rejected")
	}
}

func TestApplyTriState(t *testing.T) {
	s := New("c", nil)
	s.Constraints = Constraints{Category: "beach", Place: "Goa", Budget: 20000, Activities: []string{"scuba"}}

	t.Run("absent fields are untouched", func(t *testing.T) {
		c := s.Clone()
		c.Apply(&Patch{DurationDays: Set(4)})
		if c.Constraints.Place != "Goa" || c.Constraints.Budget != 20000 {
			t.Errorf("absent fields changed: %+v", c.Constraints)
		}
		if c.Constraints.DurationDays != 4 {
			t.Errorf("expected duration 4, got %d", c.Constraints.DurationDays)
		}
	})

	t.Run("cleared fields reset", func(t *testing.T) {
		c := s.Clone()
		c.Apply(&Patch{Place: Clear[string](), Activities: Clear[[]string]()})
		if c.Constraints.Place != "" || c.Constraints.Activities != nil {
			t.Errorf("expected cleared fields, got %+v", c.Constraints)
		}
		if c.Constraints.Category != "beach" {
			t.Errorf("category should be untouched")
		}
	})

	t.Run("nil patch is a no-op", func(t *testing.T) {
		c := s.Clone()
		c.Apply(nil)
		if !reflect.DeepEqual(c.Constraints, s.Constraints) {
			t.Errorf("nil patch changed constraints")
		}
	})
}

func TestApplyStripsCurrentOfferFromQueue(t *testing.T) {
	a, b, c := offering("A"), offering("B"), offering("C")
	s := New("c", nil)
	s.RankedQueue = []*catalog.Offering{a, b, c}

	s.Apply(&Patch{CurrentOffer: Set(b)})

	if len(s.RankedQueue) != 2 {
		t.Fatalf("expected 2 queued offers, got %d", len(s.RankedQueue))
	}
	for _, o := range s.RankedQueue {
		if o.ID == "B" {
			t.Error("current offer still present in ranked queue")
		}
	}
	if s.RankedQueue[0].ID != "A" || s.RankedQueue[1].ID != "C" {
		t.Errorf("queue order changed: %s, %s", s.RankedQueue[0].ID, s.RankedQueue[1].ID)
	}
}

func TestResetDownstream(t *testing.T) {
	s := New("c", nil)
	s.Constraints = Constraints{Category: "beach", Place: "Goa", Budget: 1, DurationDays: 2, PartyType: "couple", Activities: []string{"x"}}
	s.Candidates = []*catalog.Offering{offering("A")}
	s.RankedQueue = []*catalog.Offering{offering("B")}
	s.CurrentOffer = offering("C")
	s.OfferDecision = DecisionRejected
	s.Itinerary = []DayEntry{{Day: 1, Plan: "beach"}}
	s.AltRound = 2

	p := &Patch{}
	p.ResetDownstream()
	p.Category = Set("hills")
	s.Apply(p)

	want := Constraints{Category: "hills"}
	if !reflect.DeepEqual(s.Constraints, want) {
		t.Errorf("expected %+v, got %+v", want, s.Constraints)
	}
	if s.Candidates != nil || s.RankedQueue != nil || s.CurrentOffer != nil || s.Itinerary != nil {
		t.Error("expected search results and offer cleared")
	}
	if s.OfferDecision != DecisionUndecided || s.AltRound != 0 {
		t.Errorf("expected decision reset, got %s round %d", s.OfferDecision, s.AltRound)
	}
}

func TestPatchEmpty(t *testing.T) {
	var nilPatch *Patch
	if !nilPatch.Empty() {
		t.Error("nil patch should be empty")
	}
	if !(&Patch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	if (&Patch{Reply: "hi"}).Empty() {
		t.Error("patch with reply is not empty")
	}
	if (&Patch{RankedQueue: Set([]*catalog.Offering{})}).Empty() {
		t.Error("explicitly empty queue is still a change")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New("c", nil)
	s.Append(message.RoleUser, "beach")
	s.Constraints.Activities = []string{"scuba"}
	s.RankedQueue = []*catalog.Offering{offering("A")}

	c := s.Clone()
	c.Append(message.RoleAssistant, "where?")
	c.Constraints.Activities[0] = "trek"
	c.RankedQueue[0] = offering("Z")
	c.TurnLog[0].Content = "hills"

	if len(s.TurnLog) != 1 || s.TurnLog[0].Content != "beach" {
		t.Error("turn log shared with clone")
	}
	if s.Constraints.Activities[0] != "scuba" {
		t.Error("activities shared with clone")
	}
	if s.RankedQueue[0].ID != "A" {
		t.Error("ranked queue shared with clone")
	}
}

func TestTurnLogHelpers(t *testing.T) {
	s := New("c", nil)
	if s.AwaitingReply() || s.LastUserMessage() != nil || s.LastReply() != nil {
		t.Error("expected empty helpers on new state")
	}

	s.Append(message.RoleUser, "hi")
	if !s.AwaitingReply() {
		t.Error("expected awaiting reply after user entry")
	}
	if s.RepliesSinceInput() != 0 {
		t.Errorf("expected 0 replies, got %d", s.RepliesSinceInput())
	}

	s.Append(message.RoleAssistant, "hello")
	s.Append(message.RoleAssistant, "which category?")
	if s.AwaitingReply() {
		t.Error("expected no pending input")
	}
	if s.RepliesSinceInput() != 2 {
		t.Errorf("expected 2 replies, got %d", s.RepliesSinceInput())
	}
	if s.LastReply().Content != "which category?" || s.LastUserMessage().Content != "hi" {
		t.Error("unexpected last entries")
	}
}
