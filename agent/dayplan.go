package agent

import (
	"strings"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/config"
	"github.com/sweetpotato0/voyager/state"
)

// BuildPlan lays out offer over days, using the round-th alternative of every
// day (round 0 is the primary plan). It also returns the days that had no
// alternative left for round and therefore keep their primary plan.
//
// Trips longer than config.MaxTripDays are cut to that length. A shorter
// trip keeps evenly spaced days, always including the first and
// the last. A longer trip spreads each stored day over consecutive days by
// splitting its plan on commas and semicolons; days left without a part
// become free days at the destination.
func BuildPlan(offer *catalog.Offering, days, round int) ([]state.DayEntry, []int) {
	if offer == nil || len(offer.DayPlans) == 0 {
		return nil, nil
	}
	n := len(offer.DayPlans)
	if days <= 0 {
		days = n
	}
	days = min(days, config.MaxTripDays)

	type source struct {
		text    string
		alt     bool
		missing bool
	}
	pick := func(i int) source {
		dp := offer.DayPlans[i]
		if round <= 0 {
			return source{text: dp.Primary}
		}
		if round-1 < len(dp.Alternatives) {
			return source{text: dp.Alternatives[round-1], alt: true}
		}
		return source{text: dp.Primary, missing: true}
	}

	entries := make([]state.DayEntry, 0, days)
	var missing []int
	add := func(text string, src source) {
		day := len(entries) + 1
		entries = append(entries, state.DayEntry{Day: day, Plan: text, Alternative: src.alt})
		if src.missing {
			missing = append(missing, day)
		}
	}

	switch {
	case days <= n:
		for j := 0; j < days; j++ {
			src := pick(spreadIndex(j, days, n))
			add(src.text, src)
		}
	default:
		for i := 0; i < n; i++ {
			k := groupSize(i, days, n)
			src := pick(i)
			for _, text := range splitPlan(src.text, k, offer.Place) {
				add(text, src)
			}
		}
	}
	return entries, missing
}

// spreadIndex is the stored day shown on day j of a d-day trip drawn from n
// stored days: evenly spaced, rounded to the nearest, first and last kept.
func spreadIndex(j, d, n int) int {
	if d <= 1 {
		return 0
	}
	return (j*(n-1) + (d-1)/2) / (d - 1)
}

// groupSize counts the trip days of a d-day trip drawn from stored day i of
// n, where trip day j draws from stored day j*n/d.
func groupSize(i, d, n int) int {
	k := 0
	for j := 0; j < d; j++ {
		if j*n/d == i {
			k++
		}
	}
	return k
}

// splitPlan spreads text over k days.
func splitPlan(text string, k int, place string) []string {
	if k <= 1 {
		return []string{text}
	}
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' })
	clean := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}

	out := make([]string, 0, k)
	if len(clean) >= k {
		for c := 0; c < k; c++ {
			out = append(out, strings.Join(clean[c*len(clean)/k:(c+1)*len(clean)/k], ", "))
		}
		return out
	}
	out = append(out, clean...)
	if len(out) == 0 {
		out = append(out, text)
	}
	for len(out) < k {
		out = append(out, freeDay(place))
	}
	return out
}

func freeDay(place string) string {
	if place == "" {
		return "Free day to explore at your own pace"
	}
	return "Free day in " + place + " to explore at your own pace"
}
