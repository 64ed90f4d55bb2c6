package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/config"
	"github.com/sweetpotato0/voyager/contrib/session/inmemory"
	"github.com/sweetpotato0/voyager/engine"
	"github.com/sweetpotato0/voyager/router"
	"github.com/sweetpotato0/voyager/runner"
	"github.com/sweetpotato0/voyager/session"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

func echoRunner(t *testing.T, limits config.LimitsConfig) *runner.Runner {
	t.Helper()
	echo := step.Func{Name: step.Dialogue, Fn: func(ctx context.Context, st *state.State) (*state.Patch, error) {
		return &state.Patch{Reply: "echo: " + st.LastUserMessage().Text()}, nil
	}}
	eng, err := engine.New([]step.Step{echo}, engine.WithRouter(router.Table{}))
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	cat := catalog.MustNew(&catalog.Offering{ID: "P1", Category: "beach", Place: "Goa", DurationDays: 1})
	r, err := runner.New(session.NewManager(inmemory.NewInMemoryStore(), cat), eng,
		runner.WithMiddleware(turnMiddleware(limits)...))
	if err != nil {
		t.Fatalf("runner.New failed: %v", err)
	}
	return r
}

func TestChatLoop(t *testing.T) {
	r := echoRunner(t, config.LimitsConfig{MaxInputChars: 20})
	in := strings.NewReader("hello\n\nthis line is far too long to pass\nbeach\nexit\nnever read\n")
	var out bytes.Buffer

	if err := chatLoop(context.Background(), r, "", in, &out, false); err != nil {
		t.Fatalf("chatLoop failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Assistant: echo: hello", "Assistant: echo: beach", "Error:"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
	if strings.Contains(got, "never read") {
		t.Error("Expected input after exit to be ignored")
	}
}

func TestChatLoopRateLimited(t *testing.T) {
	r := echoRunner(t, config.LimitsConfig{TurnsPerMinute: 1, Burst: 1})
	in := strings.NewReader("one\ntwo\n")
	var out bytes.Buffer

	if err := chatLoop(context.Background(), r, "c1", in, &out, false); err != nil {
		t.Fatalf("chatLoop failed: %v", err)
	}
	if !strings.Contains(out.String(), "sending messages quickly") {
		t.Errorf("Expected a rate-limit notice, got:\n%s", out.String())
	}
}

func TestTurnMiddleware(t *testing.T) {
	if n := len(turnMiddleware(config.LimitsConfig{})); n != 5 {
		t.Errorf("Expected 5 middlewares without a limiter, got %d", n)
	}
	if n := len(turnMiddleware(config.LimitsConfig{TurnsPerMinute: 10})); n != 6 {
		t.Errorf("Expected 6 middlewares with a limiter, got %d", n)
	}
}

func TestNewAppStartupFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(cfg *config.Config)
	}{
		{
			name:  "missing catalog",
			setup: func(cfg *config.Config) { cfg.Catalog.Path = "/nonexistent/packages.json" },
		},
		{
			name: "unknown provider after catalog loaded",
			setup: func(cfg *config.Config) {
				cfg.Catalog.Path = "../../dataset/packages.json"
				cfg.Provider.Name = "bogus"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Telemetry.Enabled = false
			tt.setup(cfg)

			var (
				a   *app
				err error
			)
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("Expected an error, got panic: %v", r)
					}
				}()
				a, err = newApp(context.Background(), cfg)
			}()
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if a != nil {
				t.Errorf("Expected no app on failure, got %+v", a)
			}
		})
	}
}
