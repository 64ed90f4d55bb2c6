package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/voyager/catalog"
	errorspkg "github.com/sweetpotato0/voyager/errors"
	"github.com/sweetpotato0/voyager/matcher"
	"github.com/sweetpotato0/voyager/prompt"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

// Research shortlists catalog offerings with the matcher and lets the
// generator refine the shortlist. If the generator fails, the matcher's top
// entries are used as they are.
type Research struct {
	base
}

// NewResearch creates the research step.
func NewResearch(llm LLMClient, opts Options) *Research {
	return &Research{base: newBase(step.Research, llm, opts)}
}

// Run implements step.Step.
func (r *Research) Run(ctx context.Context, st *state.State) (*state.Patch, error) {
	p := &state.Patch{}
	shortlist := matcher.TopK(st.Constraints, st.Catalog.All(), r.opts.Engine.ResearchLimit)
	if len(shortlist) == 0 {
		r.logger.InfoContext(ctx, "no offering matches the constraints")
		p.Candidates = state.Set([]*catalog.Offering{})
		return p, nil
	}

	refined, err := r.refine(ctx, st, shortlist)
	if err != nil {
		r.fallback(ctx, err)
		top := shortlist
		if len(top) > r.opts.Engine.FallbackTop {
			top = top[:r.opts.Engine.FallbackTop]
		}
		p.Candidates = state.Set(matcher.Offerings(top))
		return p, nil
	}
	p.Candidates = state.Set(refined)
	return p, nil
}

// refine asks the generator which shortlisted offerings to keep. Ids outside
// the shortlist are ignored. A well-formed empty list keeps nothing.
func (r *Research) refine(ctx context.Context, st *state.State, shortlist []matcher.Match) ([]*catalog.Offering, error) {
	system, err := r.render(prompt.Research, map[string]any{
		"Preferences": describeConstraints(st.Constraints),
		"Candidates":  describeMatches(shortlist, st.Constraints.PartyType),
	})
	if err != nil {
		return nil, err
	}
	raw, err := r.generate(ctx, system, nil, "Return the package ids to keep.")
	if err != nil {
		return nil, err
	}
	ids, err := decodeIDList(raw, "package_ids", "packages", "candidates", "ranked_packages")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*catalog.Offering{}, nil
	}

	byID := make(map[string]*catalog.Offering, len(shortlist))
	for _, m := range shortlist {
		byID[strings.ToUpper(m.Offering.ID)] = m.Offering
	}
	out := make([]*catalog.Offering, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		key := strings.ToUpper(id.ID)
		o, ok := byID[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no shortlisted id in reply", errorspkg.ErrEmptyResult)
	}
	return out, nil
}

var _ step.Step = (*Research)(nil)
