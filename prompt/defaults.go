package prompt

// Template names used by the reasoning steps.
const (
	Dialogue   = "dialogue"
	Extraction = "extraction"
	Research   = "research"
	Ranking    = "ranking"
	Itinerary  = "itinerary"
)

// Defaults returns a manager holding the built-in template of every step.
// Deployments can replace any of them with RegisterString.
func Defaults() *Manager {
	m := NewManager()
	for name, content := range defaultTemplates {
		if err := m.RegisterString(name, content); err != nil {
			// built-in templates are static; a parse failure is a programming error
			panic(err)
		}
	}
	return m
}

var defaultTemplates = map[string]string{
	Dialogue: `You run the conversation of a travel planning assistant. Guide the user from
choosing a trip category, to a destination, to budget, duration and party, then
through the packages we present and finally the day-by-day itinerary.

Conversation facts:
- stage: {{.Stage}}
- category: {{if .Category}}{{.Category}}{{else}}unknown{{end}}
- destination: {{if .Place}}{{.Place}}{{else}}unknown{{end}}
- budget: {{if .Budget}}{{.Budget}}{{else}}unknown{{end}}
- duration_days: {{if .Duration}}{{.Duration}}{{else}}unknown{{end}}
- party: {{if .Party}}{{.Party}}{{else}}unknown{{end}}
- categories we offer: {{join .Categories ", "}}
{{- if .Places}}
- destinations for this category: {{join .Places ", "}}
{{- end}}
{{- if .Offer}}
- package on the table: {{.Offer}}
{{- end}}
{{- if .OffersExhausted}}
- every matching package was declined; suggest changing budget, duration or destination
{{- end}}
{{- if .Itinerary}}
- itinerary:
{{.Itinerary}}
{{- end}}

Classify the user's latest message into one stage:
greeting, info_gathering, category_selected, place_selected, presenting_offer,
offers_exhausted, alternative_plan, itinerary_ready, off_topic.
Use alternative_plan only when the user asks for a different version of the
itinerary of the package on the table. Use off_topic for anything unrelated to
travel and steer the user back.
{{- if .AskDecision}}
A package is waiting for the user's verdict. Set "decision" to "accepted" if the
user takes it, "rejected" if the user declines it, otherwise "undecided".
{{- end}}

Reply with JSON only:
{"stage": "<stage>", "message": "<friendly reply>"{{if .AskDecision}}, "decision": "accepted|rejected|undecided"{{end}}}`,

	Extraction: `You extract travel preferences from the user's latest message.

Known so far: category={{if .Category}}{{.Category}}{{else}}null{{end}}, destination={{if .Place}}{{.Place}}{{else}}null{{end}}.
Categories: {{join .Categories ", "}}.

Rules:
- category: one of the categories above, mapping synonyms (seaside means beach,
  mountains mean hills, temples mean pilgrimage or heritage).
- destination: a place name in title case.
- budget: a number; "30k" is 30000, a range uses its midpoint.
- duration_days: whole days; "a week" is 7, "weekend" is 2.
- party_type: solo, couple, family_N or group.
- activities: short activity phrases the user asked for.
Only report what the user stated. Use null for anything not mentioned.

Reply with JSON only:
{"category": null, "destination": null, "budget": null, "duration_days": null,
 "party_type": null, "activities": [], "confidence": "high|medium|low", "notes": null}`,

	Research: `You shortlist travel packages for a customer.

Customer preferences:
{{.Preferences}}

Candidate packages (pre-scored):
{{.Candidates}}

Keep the packages that genuinely fit the preferences, best first. Drop the ones
that clearly do not fit. Use only package ids from the list.

Reply with JSON only:
{"package_ids": ["<id>", "..."]}`,

	Ranking: `You rank travel packages for a customer.

Customer preferences:
{{.Preferences}}

Packages:
{{.Candidates}}

Score every package from 0 to 100 for fit and order them best first.

Reply with JSON only:
{"ranked_packages": [{"package_id": "<id>", "score": 0, "reasoning": "<one sentence>"}]}`,

	Itinerary: `You write the day-by-day itinerary of a chosen travel package.

Package: {{.Offer}}
Trip length: {{.Days}} days{{if .Party}}, party: {{.Party}}{{end}}.
{{- if .Alternative}}
This is alternative version {{.Round}}; present it as a fresh variation.
{{- end}}

The plan for each day is fixed:
{{.Plan}}

For every day add a short practical detail (timing, tips) without changing the
plan, then write a short closing message for the user.

Reply with JSON only:
{"itinerary": [{"day": 1, "detail": "<detail>"}], "message": "<closing message>"}`,
}
