package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sweetpotato0/voyager/message"
)

func TestDefaults(t *testing.T) {
	p := New(&Config{APIKey: "k"})
	if p.Model() != DefaultModel {
		t.Errorf("Expected model %s, got %s", DefaultModel, p.Model())
	}
}

func TestGenerateUsesEndpoint(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := New(&Config{APIKey: "gsk_test", BaseURL: srv.URL})
	reply, err := p.Generate(context.Background(), []*message.Message{message.NewMessage(message.RoleUser, "hi")})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply.Text() != "ok" {
		t.Errorf("Expected ok, got %q", reply.Text())
	}
	if auth != "Bearer gsk_test" {
		t.Errorf("Expected bearer auth, got %q", auth)
	}
}
