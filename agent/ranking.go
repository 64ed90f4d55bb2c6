package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sweetpotato0/voyager/catalog"
	errorspkg "github.com/sweetpotato0/voyager/errors"
	"github.com/sweetpotato0/voyager/prompt"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

// Ranking owns the offer loop. Its branches are checked in this order:
//
//  1. the offer was rejected: present the next queued offer, or report
//     that the queue is exhausted
//  2. an offer is waiting for a verdict: change nothing
//  3. there are no candidates: publish an empty queue
//  4. otherwise rank the candidates and present the best one
//
// Rejections never call the generator, and an undecided offer is never
// replaced.
type Ranking struct {
	base
}

// NewRanking creates the ranking step.
func NewRanking(llm LLMClient, opts Options) *Ranking {
	return &Ranking{base: newBase(step.Ranking, llm, opts)}
}

// Run implements step.Step.
func (r *Ranking) Run(ctx context.Context, st *state.State) (*state.Patch, error) {
	p := &state.Patch{}
	switch {
	case st.OfferDecision == state.DecisionRejected && st.CurrentOffer != nil:
		if len(st.RankedQueue) > 0 {
			r.logger.InfoContext(ctx, "offer rejected, presenting next", "rejected", st.CurrentOffer.ID, "next", st.RankedQueue[0].ID)
			present(p, st.RankedQueue[0], st.RankedQueue[1:])
			return p, nil
		}
		r.logger.InfoContext(ctx, "offer rejected, queue exhausted", "rejected", st.CurrentOffer.ID)
		p.CurrentOffer = state.Clear[*catalog.Offering]()
		p.OfferDecision = state.Set(state.DecisionUndecided)
		p.Itinerary = state.Clear[[]state.DayEntry]()
		p.AltRequested = state.Clear[bool]()
		p.AltRound = state.Clear[int]()
		p.Stage = state.Set(state.StageOffersExhausted)
		return p, nil

	case st.CurrentOffer != nil && st.OfferDecision == state.DecisionUndecided:
		return p, nil

	case len(st.Candidates) == 0:
		p.RankedQueue = state.Set([]*catalog.Offering{})
		return p, nil
	}

	ordered, err := r.rank(ctx, st)
	if err != nil {
		r.fallback(ctx, err)
		ordered = st.Candidates
	}
	present(p, ordered[0], ordered[1:])
	p.Candidates = state.Clear[[]*catalog.Offering]()
	return p, nil
}

// present puts offer on the table with queue behind it.
func present(p *state.Patch, offer *catalog.Offering, queue []*catalog.Offering) {
	rest := make([]*catalog.Offering, len(queue))
	copy(rest, queue)
	p.CurrentOffer = state.Set(offer)
	p.RankedQueue = state.Set(rest)
	p.OfferDecision = state.Set(state.DecisionUndecided)
	p.Itinerary = state.Clear[[]state.DayEntry]()
	p.AltRequested = state.Clear[bool]()
	p.AltRound = state.Clear[int]()
	p.Stage = state.Set(state.StagePresentingOffer)
}

// rank orders the candidates by the generator's scores. Candidates the reply
// does not mention follow in their original order.
func (r *Ranking) rank(ctx context.Context, st *state.State) ([]*catalog.Offering, error) {
	system, err := r.render(prompt.Ranking, map[string]any{
		"Preferences": describeConstraints(st.Constraints),
		"Candidates":  describeOfferings(st.Candidates, st.Constraints.PartyType),
	})
	if err != nil {
		return nil, err
	}
	raw, err := r.generate(ctx, system, nil, "Rank the packages.")
	if err != nil {
		return nil, err
	}
	ranked, err := decodeIDList(raw, "ranked_packages", "packages", "package_ids", "ranking")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	byID := make(map[string]*catalog.Offering, len(st.Candidates))
	for _, o := range st.Candidates {
		byID[strings.ToUpper(o.ID)] = o
	}
	out := make([]*catalog.Offering, 0, len(st.Candidates))
	used := make(map[string]bool, len(st.Candidates))
	for _, e := range ranked {
		key := strings.ToUpper(e.ID)
		o, ok := byID[key]
		if !ok || used[key] {
			continue
		}
		used[key] = true
		out = append(out, o)
		r.logger.DebugContext(ctx, "ranked", "package_id", o.ID, "score", e.Score, "reasoning", e.Reasoning)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: ranking names no candidate", errorspkg.ErrEmptyResult)
	}
	for _, o := range st.Candidates {
		if !used[strings.ToUpper(o.ID)] {
			out = append(out, o)
		}
	}
	return out, nil
}

var _ step.Step = (*Ranking)(nil)
