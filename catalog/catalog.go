// Package catalog holds the read-only set of travel offerings a conversation
// searches. A Catalog is built once and shared by every conversation.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Party pricing tiers.
const (
	TierSolo    = "solo"
	TierCouple  = "couple"
	TierFamily4 = "family_4"
)

// DayPlan is one day of an offering: a primary plan and its alternatives.
type DayPlan struct {
	Day          int      `json:"day" yaml:"day"`
	Primary      string   `json:"primary_plan" yaml:"primary_plan"`
	Alternatives []string `json:"alternative_plans,omitempty" yaml:"alternative_plans,omitempty"`
}

// Offering is a pre-built travel package.
type Offering struct {
	ID           string    `json:"package_id" yaml:"package_id"`
	Name         string    `json:"package_name,omitempty" yaml:"package_name,omitempty"`
	Category     string    `json:"package_type" yaml:"package_type"`
	Place        string    `json:"destination" yaml:"destination"`
	Price        Price     `json:"price" yaml:"price"`
	DurationDays int       `json:"duration_days" yaml:"duration_days"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	DayPlans     []DayPlan `json:"day_plans" yaml:"day_plans"`
}

// PartyTier maps a free-form party description to a pricing tier. Anything
// mentioning a couple prices as couple, any family as family_4, and the rest,
// including an empty party, as solo.
func PartyTier(party string) string {
	p := strings.ToLower(strings.TrimSpace(party))
	switch {
	case strings.Contains(p, "couple"):
		return TierCouple
	case strings.Contains(p, "family"):
		return TierFamily4
	default:
		return TierSolo
	}
}

// PriceFor returns the price for the party's tier, falling back to the solo
// tier when the offering does not price that tier.
func (o *Offering) PriceFor(party string) (float64, bool) {
	if v, ok := o.Price[PartyTier(party)]; ok {
		return v, true
	}
	v, ok := o.Price[TierSolo]
	return v, ok
}

// ActivityText is the lowercased concatenation of every primary and
// alternative plan, used for activity matching.
func (o *Offering) ActivityText() string {
	var b strings.Builder
	for _, d := range o.DayPlans {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(d.Primary))
		for _, alt := range d.Alternatives {
			b.WriteByte(' ')
			b.WriteString(strings.ToLower(alt))
		}
	}
	return b.String()
}

// Catalog is an ordered, immutable collection of offerings. Catalog order is
// significant: it breaks ties between equally scored offerings.
type Catalog struct {
	offerings []*Offering
	byID      map[string]*Offering
}

// New builds a catalog, rejecting missing or duplicate package ids.
func New(offerings []*Offering) (*Catalog, error) {
	c := &Catalog{
		offerings: make([]*Offering, 0, len(offerings)),
		byID:      make(map[string]*Offering, len(offerings)),
	}
	for i, o := range offerings {
		if o == nil {
			continue
		}
		if o.ID == "" {
			return nil, fmt.Errorf("catalog: offering %d has no package_id", i)
		}
		if _, dup := c.byID[o.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate package_id %q", o.ID)
		}
		c.byID[o.ID] = o
		c.offerings = append(c.offerings, o)
	}
	return c, nil
}

// MustNew is New for static fixtures; it panics on invalid input.
func MustNew(offerings ...*Offering) *Catalog {
	c, err := New(offerings)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns the offerings in catalog order. The slice is a copy; the
// offerings themselves must be treated as read-only.
func (c *Catalog) All() []*Offering {
	if c == nil {
		return nil
	}
	out := make([]*Offering, len(c.offerings))
	copy(out, c.offerings)
	return out
}

// Len returns the number of offerings.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.offerings)
}

// Get looks an offering up by package id.
func (c *Catalog) Get(id string) (*Offering, bool) {
	if c == nil {
		return nil, false
	}
	o, ok := c.byID[id]
	return o, ok
}

// Places returns the sorted, de-duplicated places offered for category.
// Category comparison ignores case and surrounding space.
func (c *Catalog) Places(category string) []string {
	want := normalize(category)
	if c == nil || want == "" {
		return nil
	}
	seen := make(map[string]struct{})
	places := make([]string, 0)
	for _, o := range c.offerings {
		if normalize(o.Category) != want || o.Place == "" {
			continue
		}
		if _, ok := seen[o.Place]; ok {
			continue
		}
		seen[o.Place] = struct{}{}
		places = append(places, o.Place)
	}
	sort.Strings(places)
	return places
}

// Categories returns the sorted, de-duplicated lowercase categories.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, o := range c.offerings {
		cat := normalize(o.Category)
		if cat == "" {
			continue
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// CanonicalCategory maps a user-supplied category to the catalog's spelling.
func (c *Catalog) CanonicalCategory(category string) (string, bool) {
	want := normalize(category)
	for _, cat := range c.Categories() {
		if cat == want {
			return cat, true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
