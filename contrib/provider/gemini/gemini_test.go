package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(context.Background(), &Config{}); err == nil {
		t.Error("Expected error without an API key")
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"message":`), genai.Text(`"hi"}`)}},
		}},
	}
	if got := responseText(resp); got != `{"message":"hi"}` {
		t.Errorf("Expected joined parts, got %q", got)
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("Expected empty text, got %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Errorf("Expected empty text for nil, got %q", got)
	}
}
