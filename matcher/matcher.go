// Package matcher scores catalog offerings against accumulated constraints and
// selects the best matches.
package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/state"
)

// Score weights.
const (
	PlaceWeight          = 100
	CategoryExactWeight  = 50
	CategoryNearWeight   = 25
	BudgetWithinWeight   = 40
	BudgetNear20Weight   = 20
	BudgetNear50Weight   = 10
	DurationExactWeight  = 30
	DurationOffOneWeight = 15
	DurationOffTwoWeight = 5
	ActivityWeight       = 15
)

// Match is an offering with its score.
type Match struct {
	Offering *catalog.Offering
	Score    float64
}

// Score rates how well o fits c. The result is additive, deterministic and
// never negative; unset constraints contribute nothing.
func Score(c state.Constraints, o *catalog.Offering) float64 {
	if o == nil {
		return 0
	}
	score := 0.0

	if place := norm(c.Place); place != "" && strings.Contains(norm(o.Place), place) {
		score += PlaceWeight
	}

	if want := norm(c.Category); want != "" {
		have := norm(o.Category)
		switch {
		case want == have:
			score += CategoryExactWeight
		case have != "" && (strings.Contains(have, want) || strings.Contains(want, have)):
			score += CategoryNearWeight
		}
	}

	if c.Budget > 0 {
		if price, ok := o.PriceFor(c.PartyType); ok {
			switch {
			case price <= c.Budget:
				score += BudgetWithinWeight
			case price <= c.Budget*1.2:
				score += BudgetNear20Weight
			case price <= c.Budget*1.5:
				score += BudgetNear50Weight
			}
		}
	}

	if c.DurationDays > 0 && o.DurationDays > 0 {
		switch int(math.Abs(float64(c.DurationDays - o.DurationDays))) {
		case 0:
			score += DurationExactWeight
		case 1:
			score += DurationOffOneWeight
		case 2:
			score += DurationOffTwoWeight
		}
	}

	if len(c.Activities) > 0 {
		text := o.ActivityText()
		for _, act := range c.Activities {
			if a := norm(act); a != "" && strings.Contains(text, a) {
				score += ActivityWeight
			}
		}
	}

	return score
}

// TopK scores every offering, keeps those scoring above zero and returns at
// most k of them, best first. Equal scores keep their catalog order. The input
// slice is not modified.
func TopK(c state.Constraints, offerings []*catalog.Offering, k int) []Match {
	if k <= 0 {
		return nil
	}
	matches := make([]Match, 0, len(offerings))
	for _, o := range offerings {
		if s := Score(c, o); s > 0 {
			matches = append(matches, Match{Offering: o, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Offerings unwraps the offerings of ms in order.
func Offerings(ms []Match) []*catalog.Offering {
	out := make([]*catalog.Offering, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Offering)
	}
	return out
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
