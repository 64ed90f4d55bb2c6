// Package step defines the contract shared by every reasoning step.
package step

import (
	"context"

	"github.com/sweetpotato0/voyager/state"
)

// ID identifies a reasoning step. End is the router's end-of-turn signal.
type ID string

const (
	Dialogue   ID = "dialogue"
	Extraction ID = "extraction"
	Research   ID = "research"
	Ranking    ID = "ranking"
	Itinerary  ID = "itinerary"
	End        ID = "end"
)

// Step is one reasoning unit. Run receives a private copy of the session
// state and returns the patch to apply. Generator failures are handled inside
// the step by its fallback; a returned error means the step could not produce
// any consistent patch, and the engine discards it.
type Step interface {
	ID() ID
	Run(ctx context.Context, st *state.State) (*state.Patch, error)
}

// Func adapts a function to the Step interface.
type Func struct {
	Name ID
	Fn   func(ctx context.Context, st *state.State) (*state.Patch, error)
}

// ID implements Step.
func (f Func) ID() ID { return f.Name }

// Run implements Step.
func (f Func) Run(ctx context.Context, st *state.State) (*state.Patch, error) {
	return f.Fn(ctx, st)
}
