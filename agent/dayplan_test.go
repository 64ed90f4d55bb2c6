package agent

import (
	"testing"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/config"
	"github.com/sweetpotato0/voyager/state"
)

func planTexts(entries []state.DayEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Plan
	}
	return out
}

func TestBuildPlanDayCount(t *testing.T) {
	five := &catalog.Offering{ID: "F", Place: "Goa", DayPlans: plans(5, 0)}
	tests := []struct {
		name string
		days int
		want []string
	}{
		{"same length", 5, []string{"primary A", "primary B", "primary C", "primary D", "primary E"}},
		{"default length", 0, []string{"primary A", "primary B", "primary C", "primary D", "primary E"}},
		{"three of five", 3, []string{"primary A", "primary C", "primary E"}},
		{"two of five", 2, []string{"primary A", "primary E"}},
		{"four of five", 4, []string{"primary A", "primary B", "primary D", "primary E"}},
		{"one day", 1, []string{"primary A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, missing := BuildPlan(five, tt.days, 0)
			if !equalStrings(planTexts(entries), tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, planTexts(entries))
			}
			if len(missing) != 0 {
				t.Errorf("Expected no missing days, got %v", missing)
			}
			for i, e := range entries {
				if e.Day != i+1 {
					t.Errorf("Expected day %d, got %d", i+1, e.Day)
				}
			}
		})
	}
}

func TestBuildPlanLengthens(t *testing.T) {
	offer := &catalog.Offering{ID: "L", Place: "Goa", DayPlans: []catalog.DayPlan{
		{Day: 1, Primary: "Beach walk, Fort Aguada; Spice farm"},
		{Day: 2, Primary: "River cruise"},
	}}
	entries, _ := BuildPlan(offer, 5, 0)
	want := []string{
		"Beach walk",
		"Fort Aguada",
		"Spice farm",
		"River cruise",
		"Free day in Goa to explore at your own pace",
	}
	if !equalStrings(planTexts(entries), want) {
		t.Errorf("Expected %v, got %v", want, planTexts(entries))
	}
}

func TestSplitPlanGroupsParts(t *testing.T) {
	got := splitPlan("a, b, c, d, e", 2, "Goa")
	if !equalStrings(got, []string{"a, b", "c, d, e"}) {
		t.Errorf("Expected grouped parts, got %v", got)
	}
	if got := splitPlan("one", 1, "Goa"); !equalStrings(got, []string{"one"}) {
		t.Errorf("Expected the plan unchanged, got %v", got)
	}
}

func TestBuildPlanAlternatives(t *testing.T) {
	offer := &catalog.Offering{ID: "A", Place: "Goa", DayPlans: []catalog.DayPlan{
		{Day: 1, Primary: "p1", Alternatives: []string{"a1", "b1"}},
		{Day: 2, Primary: "p2", Alternatives: []string{"a2"}},
		{Day: 3, Primary: "p3"},
	}}
	tests := []struct {
		name    string
		round   int
		want    []string
		missing []int
	}{
		{"primary", 0, []string{"p1", "p2", "p3"}, nil},
		{"first alternative", 1, []string{"a1", "a2", "p3"}, []int{3}},
		{"second alternative", 2, []string{"b1", "p2", "p3"}, []int{2, 3}},
		{"exhausted", 3, []string{"p1", "p2", "p3"}, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, missing := BuildPlan(offer, 3, tt.round)
			if !equalStrings(planTexts(entries), tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, planTexts(entries))
			}
			if len(missing) != len(tt.missing) {
				t.Fatalf("Expected missing %v, got %v", tt.missing, missing)
			}
			for i := range missing {
				if missing[i] != tt.missing[i] {
					t.Errorf("Expected missing %v, got %v", tt.missing, missing)
				}
			}
			if tt.round == 1 && !entries[0].Alternative {
				t.Error("Expected day 1 marked as alternative")
			}
		})
	}
}

func TestBuildPlanNoDays(t *testing.T) {
	entries, missing := BuildPlan(&catalog.Offering{ID: "E"}, 3, 0)
	if entries != nil || missing != nil {
		t.Errorf("Expected nothing for an offering without days, got %v %v", entries, missing)
	}
}

func TestBuildPlanCapsLength(t *testing.T) {
	two := &catalog.Offering{ID: "T", Place: "Goa", DayPlans: plans(2, 0)}
	entries, _ := BuildPlan(two, 5_000_000, 0)
	if len(entries) != config.MaxTripDays {
		t.Fatalf("Expected %d days, got %d", config.MaxTripDays, len(entries))
	}
	if last := entries[len(entries)-1]; last.Day != config.MaxTripDays {
		t.Errorf("Expected last day %d, got %d", config.MaxTripDays, last.Day)
	}
}
