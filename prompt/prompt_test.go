package prompt

import (
	"strings"
	"testing"
)

func TestTemplateRender(t *testing.T) {
	tmpl, err := NewTemplate("greet", "Hello {{.Name}}, pick one of {{join .Options \", \"}}")
	if err != nil {
		t.Fatalf("NewTemplate failed: %v", err)
	}

	out, err := tmpl.Render(map[string]any{"Name": "Ana", "Options": []string{"beach", "hills"}})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "Hello Ana, pick one of beach, hills" {
		t.Errorf("unexpected render: %q", out)
	}
}

func TestTemplateMissingKey(t *testing.T) {
	tmpl, err := NewTemplate("strict", "{{.Missing}}")
	if err != nil {
		t.Fatalf("NewTemplate failed: %v", err)
	}
	if _, err := tmpl.Render(map[string]any{}); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestManagerRegisterAndOverride(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("a", "first"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := m.RegisterString("a", "second"); err != nil {
		t.Fatalf("override failed: %v", err)
	}
	out, err := m.Render("a", nil)
	if err != nil || out != "second" {
		t.Errorf("expected override to win, got %q %v", out, err)
	}
	if _, err := m.Render("missing", nil); err == nil {
		t.Error("expected error for unknown template")
	}
	if err := m.RegisterString("", "x"); err == nil {
		t.Error("expected error for empty name")
	}
	if err := m.RegisterString("bad", "{{.Open"); err == nil {
		t.Error("expected parse error")
	}
}

func TestDefaultsRender(t *testing.T) {
	m := Defaults()

	want := []string{Dialogue, Extraction, Itinerary, Ranking, Research}
	got := m.List()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected templates: %v", got)
	}

	out, err := m.Render(Dialogue, map[string]any{
		"Stage": "presenting_offer", "Category": "beach", "Place": "Goa",
		"Budget": 20000.0, "Duration": 4, "Party": "couple",
		"Categories": []string{"beach", "hills"}, "Places": []string{"Goa"},
		"Offer": "PKG001 Goa", "OffersExhausted": false, "Itinerary": "",
		"AskDecision": true,
	})
	if err != nil {
		t.Fatalf("render dialogue failed: %v", err)
	}
	if !strings.Contains(out, `"decision"`) || !strings.Contains(out, "package on the table: PKG001 Goa") {
		t.Errorf("dialogue template missing offer context:\n%s", out)
	}

	if _, err := m.Render(Extraction, map[string]any{"Category": "", "Place": "", "Categories": []string{"beach"}}); err != nil {
		t.Errorf("render extraction failed: %v", err)
	}
	if _, err := m.Render(Research, map[string]any{"Preferences": "{}", "Candidates": "[]"}); err != nil {
		t.Errorf("render research failed: %v", err)
	}
	if _, err := m.Render(Ranking, map[string]any{"Preferences": "{}", "Candidates": "[]"}); err != nil {
		t.Errorf("render ranking failed: %v", err)
	}
	if _, err := m.Render(Itinerary, map[string]any{"Offer": "x", "Days": 3, "Party": "", "Alternative": true, "Round": 1, "Plan": "Day 1: beach"}); err != nil {
		t.Errorf("render itinerary failed: %v", err)
	}
}
