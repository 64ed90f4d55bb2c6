package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sweetpotato0/voyager/pkg/logging"
	"github.com/sweetpotato0/voyager/state"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Span attribute keys for conversation turns.
const (
	KeyConversation = attribute.Key("voyager.conversation.id")
	KeyStep         = attribute.Key("voyager.step")
	KeyStage        = attribute.Key("voyager.stage")
	KeyCategory     = attribute.Key("voyager.category")
	KeyPlace        = attribute.Key("voyager.place")
	KeyOffer        = attribute.Key("voyager.offer.id")
	KeyDecision     = attribute.Key("voyager.offer.decision")
	KeyQueue        = attribute.Key("voyager.queue.length")
	KeyItineraryLen = attribute.Key("voyager.itinerary.days")
	KeyOutcome      = attribute.Key("voyager.turn.outcome")
	KeySteps        = attribute.Key("voyager.turn.steps")
)

// Config controls how traces leave the process.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP gRPC collector address. When empty the
	// OTEL_EXPORTER_OTLP_ENDPOINT variable is consulted, and spans go to
	// stderr if neither is set.
	Endpoint string
	// SampleRatio traces that share of turns; 0 or anything from 1 up
	// traces all of them.
	SampleRatio float64
	Disable     bool
	Logger      *slog.Logger
	// Exporter overrides the exporter chosen from Endpoint.
	Exporter sdktrace.SpanExporter
}

// Tracer returns a named tracer from the global provider. Spans are no-ops
// until Init installs a provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer("github.com/sweetpotato0/voyager/" + name)
}

// StateAttributes describes where a conversation stands. Unset fields are
// left out.
func StateAttributes(st *state.State) []attribute.KeyValue {
	if st == nil {
		return nil
	}
	attrs := []attribute.KeyValue{
		KeyConversation.String(st.ID),
		KeyStage.String(string(st.Stage)),
	}
	if st.Constraints.Category != "" {
		attrs = append(attrs, KeyCategory.String(st.Constraints.Category))
	}
	if st.Constraints.Place != "" {
		attrs = append(attrs, KeyPlace.String(st.Constraints.Place))
	}
	if st.CurrentOffer != nil {
		attrs = append(attrs,
			KeyOffer.String(st.CurrentOffer.ID),
			KeyDecision.String(string(st.OfferDecision)),
			KeyQueue.Int(len(st.RankedQueue)),
		)
	}
	if len(st.Itinerary) > 0 {
		attrs = append(attrs, KeyItineraryLen.Int(len(st.Itinerary)))
	}
	return attrs
}

// Init installs the global tracer provider described by cfg. The returned
// function flushes pending spans.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Disable {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "voyager"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.WithComponent("telemetry")
	}

	exp := cfg.Exporter
	if exp == nil {
		var err error
		if exp, err = newExporter(ctx, cfg.Endpoint, logger); err != nil {
			return nil, err
		}
	}

	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithFromEnv(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
			return err
		}
		return nil
	}, nil
}

// Sampler keeps ratio of new traces and follows the parent otherwise.
func Sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func newExporter(ctx context.Context, endpoint string, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		logger.Warn("no OTLP endpoint configured, writing traces to stderr")
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}
	logger.Info("OTLP trace exporter configured", "endpoint", endpoint)
	return exp, nil
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
