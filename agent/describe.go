package agent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/matcher"
	"github.com/sweetpotato0/voyager/state"
)

// describeOffer renders an offering as one line for a prompt or a reply.
func describeOffer(o *catalog.Offering, party string) string {
	if o == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(o.ID)
	if o.Name != "" {
		b.WriteString(" ")
		b.WriteString(o.Name)
	}
	fmt.Fprintf(&b, " (%s, %s, %d days", o.Category, o.Place, o.DurationDays)
	if price, ok := o.PriceFor(party); ok {
		fmt.Fprintf(&b, ", price %s for %s", formatAmount(price), catalog.PartyTier(party))
	}
	b.WriteString(")")
	if o.Description != "" {
		b.WriteString(": ")
		b.WriteString(o.Description)
	}
	return b.String()
}

// describeConstraints lists the known constraints, one per line.
func describeConstraints(c state.Constraints) string {
	var lines []string
	add := func(k, v string) {
		if v != "" {
			lines = append(lines, "- "+k+": "+v)
		}
	}
	add("category", c.Category)
	add("destination", c.Place)
	if c.Budget > 0 {
		add("budget", formatAmount(c.Budget))
	}
	if c.DurationDays > 0 {
		add("duration_days", strconv.Itoa(c.DurationDays))
	}
	add("party", c.PartyType)
	if len(c.Activities) > 0 {
		add("activities", strings.Join(c.Activities, ", "))
	}
	if len(lines) == 0 {
		return "- none stated"
	}
	return strings.Join(lines, "\n")
}

func describeMatches(ms []matcher.Match, party string) string {
	lines := make([]string, 0, len(ms))
	for _, m := range ms {
		lines = append(lines, fmt.Sprintf("- %s [score %s]", describeOffer(m.Offering, party), formatAmount(m.Score)))
	}
	return strings.Join(lines, "\n")
}

func describeOfferings(offerings []*catalog.Offering, party string) string {
	lines := make([]string, 0, len(offerings))
	for _, o := range offerings {
		lines = append(lines, "- "+describeOffer(o, party))
	}
	return strings.Join(lines, "\n")
}

// describeItinerary renders day entries as "Day N: plan" lines.
func describeItinerary(days []state.DayEntry) string {
	lines := make([]string, 0, len(days))
	for _, d := range days {
		line := fmt.Sprintf("Day %d: %s", d.Day, d.Plan)
		if d.Detail != "" {
			line += " (" + d.Detail + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
