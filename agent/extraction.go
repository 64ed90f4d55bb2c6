package agent

import (
	"context"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/prompt"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

// Extraction turns the latest user utterance into constraint deltas. A new
// category clears everything chosen under the old one; a refined constraint
// withdraws the offer on the table so the search runs again.
type Extraction struct {
	base
}

// NewExtraction creates the extraction step.
func NewExtraction(llm LLMClient, opts Options) *Extraction {
	return &Extraction{base: newBase(step.Extraction, llm, opts)}
}

type extractionReply struct {
	Category     *string    `json:"category"`
	PackageType  *string    `json:"package_type"`
	Destination  *string    `json:"destination"`
	Place        *string    `json:"place"`
	Budget       flexNumber `json:"budget"`
	DurationDays flexNumber `json:"duration_days"`
	PartyType    *string    `json:"party_type"`
	TravelerType *string    `json:"traveler_type"`
	Activities   []string   `json:"activities"`
	Confidence   string     `json:"confidence"`
	Notes        *string    `json:"notes"`
}

// delta is the normalized content of an extraction reply.
type delta struct {
	category   string
	place      string
	budget     float64
	duration   int
	party      string
	activities []string
}

// normalize cleans the reply. Durations above maxDays are capped at maxDays.
func (r *extractionReply) normalize(maxDays int) delta {
	var d delta
	d.category = firstNonEmpty(r.Category, r.PackageType)
	d.place = firstNonEmpty(r.Destination, r.Place)
	if r.Budget.set && r.Budget.value > 0 {
		d.budget = r.Budget.value
	}
	if r.DurationDays.set && r.DurationDays.value >= 1 {
		d.duration = int(math.Round(math.Min(r.DurationDays.value, float64(maxDays))))
	}
	d.party = strings.ToLower(firstNonEmpty(r.PartyType, r.TravelerType))
	for _, a := range r.Activities {
		if a = strings.TrimSpace(a); a != "" {
			d.activities = append(d.activities, a)
		}
	}
	return d
}

func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if v == nil {
			continue
		}
		s := strings.TrimSpace(*v)
		if s != "" && !strings.EqualFold(s, "null") && !strings.EqualFold(s, "none") {
			return s
		}
	}
	return ""
}

// Run implements step.Step.
func (e *Extraction) Run(ctx context.Context, st *state.State) (*state.Patch, error) {
	var d delta
	if latest := st.LastUserMessage(); latest != nil {
		got, err := e.extract(ctx, st, latest.Text())
		if err != nil {
			e.fallback(ctx, err)
		} else {
			d = got
			e.logger.DebugContext(ctx, "constraints extracted", "category", d.category, "place", d.place)
		}
	}
	return e.patch(st, d), nil
}

func (e *Extraction) extract(ctx context.Context, st *state.State, utterance string) (delta, error) {
	system, err := e.render(prompt.Extraction, map[string]any{
		"Category":   st.Constraints.Category,
		"Place":      st.Constraints.Place,
		"Categories": st.Catalog.Categories(),
	})
	if err != nil {
		return delta{}, err
	}
	raw, err := e.generate(ctx, system, nil, utterance)
	if err != nil {
		return delta{}, err
	}
	reply, err := decodeJSON[extractionReply](raw)
	if err != nil {
		return delta{}, err
	}
	if reply.Confidence != "" || reply.Notes != nil {
		notes := ""
		if reply.Notes != nil {
			notes = *reply.Notes
		}
		e.logger.DebugContext(ctx, "extraction confidence", "confidence", reply.Confidence, "notes", notes)
	}
	return reply.normalize(e.opts.Engine.MaxDurationDays), nil
}

// patch merges d into the current constraints.
func (e *Extraction) patch(st *state.State, d delta) *state.Patch {
	p := &state.Patch{}
	cur := st.Constraints
	cat := st.Catalog

	category := cur.Category
	cascaded := false
	if d.category != "" {
		next := strings.ToLower(d.category)
		if canon, ok := cat.CanonicalCategory(d.category); ok {
			next = canon
		}
		if !strings.EqualFold(next, cur.Category) {
			if cur.Category != "" {
				p.ResetDownstream()
				cascaded = true
			}
			p.Category = state.Set(next)
			category = next
		}
	}

	prev := cur
	if cascaded {
		prev = state.Constraints{Category: category}
	}
	refined := false

	place := prev.Place
	if d.place != "" {
		next := canonicalPlace(d.place, cat.Places(category))
		if !strings.EqualFold(next, prev.Place) {
			p.Place = state.Set(next)
			place = next
			refined = true
		}
	}
	if d.budget > 0 && d.budget != prev.Budget {
		p.Budget = state.Set(d.budget)
		refined = true
	}
	if d.duration > 0 && d.duration != prev.DurationDays {
		p.DurationDays = state.Set(d.duration)
		refined = true
	}
	if d.party != "" && d.party != prev.PartyType {
		p.PartyType = state.Set(d.party)
		refined = true
	}
	if merged, added := mergeActivities(prev.Activities, d.activities); added {
		p.Activities = state.Set(merged)
		refined = true
	}

	if refined && !cascaded && st.CurrentOffer != nil {
		withdrawOffer(p)
	}

	if category != "" {
		p.AvailablePlaces = state.Set(cat.Places(category))
		stage := state.StageCategorySelected
		if place != "" {
			stage = state.StagePlaceSelected
		}
		if stage != st.Stage {
			p.Stage = state.Set(stage)
		}
	}
	return p
}

// withdrawOffer clears the offer and everything derived from it.
func withdrawOffer(p *state.Patch) {
	p.Candidates = state.Clear[[]*catalog.Offering]()
	p.RankedQueue = state.Clear[[]*catalog.Offering]()
	p.CurrentOffer = state.Clear[*catalog.Offering]()
	p.OfferDecision = state.Set(state.DecisionUndecided)
	p.Itinerary = state.Clear[[]state.DayEntry]()
	p.AltRequested = state.Clear[bool]()
	p.AltRound = state.Clear[int]()
}

// canonicalPlace returns the catalog spelling of place when one of known
// matches it, else place in title case.
func canonicalPlace(place string, known []string) string {
	want := strings.ToLower(strings.TrimSpace(place))
	for _, k := range known {
		if strings.ToLower(k) == want {
			return k
		}
	}
	for _, k := range known {
		lk := strings.ToLower(k)
		if strings.Contains(lk, want) || strings.Contains(want, lk) {
			return k
		}
	}
	return titleCase(want)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// mergeActivities appends the activities of add not already in have,
// ignoring case, and reports whether any were added.
func mergeActivities(have, add []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(have)+len(add))
	out := make([]string, 0, len(have)+len(add))
	for _, a := range have {
		seen[strings.ToLower(a)] = struct{}{}
		out = append(out, a)
	}
	added := false
	for _, a := range add {
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
		added = true
	}
	return out, added
}

var _ step.Step = (*Extraction)(nil)
