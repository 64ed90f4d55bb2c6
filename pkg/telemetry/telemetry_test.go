package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sweetpotato0/voyager/catalog"
	"github.com/sweetpotato0/voyager/state"
)

func attrMap(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestStateAttributes(t *testing.T) {
	t.Run("fresh conversation", func(t *testing.T) {
		got := attrMap(StateAttributes(state.New("c1", nil)))
		if got[KeyConversation].AsString() != "c1" || got[KeyStage].AsString() != string(state.StageGreeting) {
			t.Errorf("Unexpected attributes %v", got)
		}
		for _, k := range []attribute.Key{KeyCategory, KeyPlace, KeyOffer, KeyQueue, KeyItineraryLen} {
			if _, ok := got[k]; ok {
				t.Errorf("Expected %s to be left out", k)
			}
		}
	})

	t.Run("offer presented", func(t *testing.T) {
		st := state.New("c2", nil)
		st.Stage = state.StagePresentingOffer
		st.Constraints.Category = "beach"
		st.Constraints.Place = "Goa"
		st.CurrentOffer = &catalog.Offering{ID: "G1"}
		st.RankedQueue = []*catalog.Offering{{ID: "G2"}, {ID: "G3"}}
		st.OfferDecision = state.DecisionUndecided
		st.Itinerary = []state.DayEntry{{Day: 1, Plan: "Beach"}}

		got := attrMap(StateAttributes(st))
		if got[KeyOffer].AsString() != "G1" || got[KeyQueue].AsInt64() != 2 {
			t.Errorf("Unexpected offer attributes %v", got)
		}
		if got[KeyCategory].AsString() != "beach" || got[KeyPlace].AsString() != "Goa" {
			t.Errorf("Unexpected constraint attributes %v", got)
		}
		if got[KeyItineraryLen].AsInt64() != 1 {
			t.Errorf("Expected 1 itinerary day, got %v", got[KeyItineraryLen])
		}
	})

	if StateAttributes(nil) != nil {
		t.Error("Expected no attributes for a nil state")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, sdktrace.AlwaysSample().Description()},
		{1, sdktrace.AlwaysSample().Description()},
		{0.25, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
	}
	for _, tt := range tests {
		if got := Sampler(tt.ratio).Description(); got != tt.want {
			t.Errorf("Sampler(%v): Expected %q, got %q", tt.ratio, tt.want, got)
		}
	}
}

func TestInitExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exp := tracetest.NewInMemoryExporter()
	shutdown, err := Init(context.Background(), Config{ServiceVersion: "test", Exporter: exp})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	_, ok := Tracer("test").Start(context.Background(), "ok")
	End(ok, nil)
	_, failed := Tracer("test").Start(context.Background(), "failed")
	End(failed, errors.New("boom"))
	End(nil, nil)

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(spans))
	}
	status := map[string]codes.Code{}
	for _, s := range spans {
		status[s.Name] = s.Status.Code
	}
	if status["ok"] != codes.Ok || status["failed"] != codes.Error {
		t.Errorf("Unexpected span statuses %v", status)
	}
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Disable: true})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Expected a no-op shutdown, got %v", err)
	}
}
