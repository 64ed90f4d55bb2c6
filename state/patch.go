package state

import (
	"time"

	"github.com/sweetpotato0/voyager/catalog"
)

type fieldOp uint8

const (
	opAbsent fieldOp = iota
	opSet
	opClear
)

// Field is a tri-state patch entry: absent (the zero value), set to a value,
// or explicitly cleared back to the empty value.
type Field[T any] struct {
	op    fieldOp
	value T
}

// Set returns a field that assigns v.
func Set[T any](v T) Field[T] {
	return Field[T]{op: opSet, value: v}
}

// Clear returns a field that resets the target to its empty value.
func Clear[T any]() Field[T] {
	return Field[T]{op: opClear}
}

// Absent reports whether the field leaves its target untouched.
func (f Field[T]) Absent() bool { return f.op == opAbsent }

// Cleared reports whether the field resets its target.
func (f Field[T]) Cleared() bool { return f.op == opClear }

// Value returns the assigned value and whether the field is a Set.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.op == opSet
}

func (f Field[T]) applyTo(dst *T) {
	switch f.op {
	case opSet:
		*dst = f.value
	case opClear:
		var zero T
		*dst = zero
	}
}

// Patch is the partial update a step returns. Reply, when non-empty, is the
// assistant message the engine appends to the turn log.
type Patch struct {
	Stage           Field[Stage]
	Category        Field[string]
	Place           Field[string]
	Budget          Field[float64]
	DurationDays    Field[int]
	PartyType       Field[string]
	Activities      Field[[]string]
	AvailablePlaces Field[[]string]
	Candidates      Field[[]*catalog.Offering]
	RankedQueue     Field[[]*catalog.Offering]
	CurrentOffer    Field[*catalog.Offering]
	OfferDecision   Field[Decision]
	Itinerary       Field[[]DayEntry]
	AltRequested    Field[bool]
	AltRound        Field[int]

	Reply string
}

// Empty reports whether applying p would change nothing.
func (p *Patch) Empty() bool {
	if p == nil {
		return true
	}
	return p.Reply == "" &&
		p.Stage.Absent() &&
		p.Category.Absent() &&
		p.Place.Absent() &&
		p.Budget.Absent() &&
		p.DurationDays.Absent() &&
		p.PartyType.Absent() &&
		p.Activities.Absent() &&
		p.AvailablePlaces.Absent() &&
		p.Candidates.Absent() &&
		p.RankedQueue.Absent() &&
		p.CurrentOffer.Absent() &&
		p.OfferDecision.Absent() &&
		p.Itinerary.Absent() &&
		p.AltRequested.Absent() &&
		p.AltRound.Absent()
}

// ResetDownstream clears everything that depends on the category: the other
// constraints, search results, the offer, its decision and any itinerary.
// Values set on p afterwards take precedence.
func (p *Patch) ResetDownstream() {
	p.Place = Clear[string]()
	p.Budget = Clear[float64]()
	p.DurationDays = Clear[int]()
	p.PartyType = Clear[string]()
	p.Activities = Clear[[]string]()
	p.AvailablePlaces = Clear[[]string]()
	p.Candidates = Clear[[]*catalog.Offering]()
	p.RankedQueue = Clear[[]*catalog.Offering]()
	p.CurrentOffer = Clear[*catalog.Offering]()
	p.OfferDecision = Set(DecisionUndecided)
	p.Itinerary = Clear[[]DayEntry]()
	p.AltRequested = Clear[bool]()
	p.AltRound = Clear[int]()
}

// Apply merges p into s field by field. Absent fields are untouched, cleared
// fields reset to their empty value. The reply is not appended; that is the
// engine's job. After merging, the current offer is removed from the ranked
// queue so the two never overlap.
func (s *State) Apply(p *Patch) {
	if p == nil {
		return
	}
	p.Stage.applyTo(&s.Stage)
	p.Category.applyTo(&s.Constraints.Category)
	p.Place.applyTo(&s.Constraints.Place)
	p.Budget.applyTo(&s.Constraints.Budget)
	p.DurationDays.applyTo(&s.Constraints.DurationDays)
	p.PartyType.applyTo(&s.Constraints.PartyType)
	p.Activities.applyTo(&s.Constraints.Activities)
	p.AvailablePlaces.applyTo(&s.AvailablePlaces)
	p.Candidates.applyTo(&s.Candidates)
	p.RankedQueue.applyTo(&s.RankedQueue)
	p.CurrentOffer.applyTo(&s.CurrentOffer)
	p.OfferDecision.applyTo(&s.OfferDecision)
	p.Itinerary.applyTo(&s.Itinerary)
	p.AltRequested.applyTo(&s.AltRequested)
	p.AltRound.applyTo(&s.AltRound)

	if s.OfferDecision == "" {
		s.OfferDecision = DecisionUndecided
	}
	if s.CurrentOffer != nil && len(s.RankedQueue) > 0 {
		queue := make([]*catalog.Offering, 0, len(s.RankedQueue))
		for _, o := range s.RankedQueue {
			if o != nil && o.ID != s.CurrentOffer.ID {
				queue = append(queue, o)
			}
		}
		s.RankedQueue = queue
	}
	s.UpdatedAt = time.Now()
}
