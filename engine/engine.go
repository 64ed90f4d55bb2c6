// Package engine runs one conversation turn: it appends the user utterance,
// then runs reasoning steps one after another, applying each step's patch
// and asking the router for the next step until the turn ends.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	errorspkg "github.com/sweetpotato0/voyager/errors"
	"github.com/sweetpotato0/voyager/message"
	"github.com/sweetpotato0/voyager/pkg/logging"
	"github.com/sweetpotato0/voyager/pkg/metrics"
	"github.com/sweetpotato0/voyager/pkg/telemetry"
	"github.com/sweetpotato0/voyager/router"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

const (
	defaultMaxSteps    = 6
	defaultStepTimeout = 30 * time.Second
)

// ApologyReply is appended when a turn ends without any assistant reply.
const ApologyReply = "Sorry, something went wrong while planning your trip. Please try again."

// Turn outcomes reported to metrics.
const (
	OutcomeOK         = "ok"
	OutcomeStepError  = "step_error"
	OutcomeCycleLimit = "cycle_limit"
)

// Result describes a finished turn.
type Result struct {
	// Replies are the assistant entries appended during the turn.
	Replies []*message.Message
	// Trace lists the steps that ran, in order.
	Trace    []step.ID
	Outcome  string
	Duration time.Duration
}

// Last returns the final reply of the turn, or nil.
func (r *Result) Last() *message.Message {
	if r == nil {
		return nil
	}
	return message.Last(r.Replies)
}

// Engine drives the step loop. It is safe for concurrent use on distinct
// states; a single state must not be shared by concurrent turns.
type Engine struct {
	steps       map[step.ID]step.Step
	entry       step.ID
	router      router.Router
	maxSteps    int
	stepTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithRouter replaces the default routing table.
func WithRouter(r router.Router) Option {
	return func(e *Engine) { e.router = r }
}

// WithMaxSteps caps the steps one turn may run.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithStepTimeout bounds every step run.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.stepTimeout = d
		}
	}
}

// WithEntry sets the step that receives the user utterance.
func WithEntry(id step.ID) Option {
	return func(e *Engine) { e.entry = id }
}

// WithMetrics records step, route and turn metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine over steps. Step ids must be unique and the entry
// step must be present.
func New(steps []step.Step, opts ...Option) (*Engine, error) {
	e := &Engine{
		steps:       make(map[step.ID]step.Step, len(steps)),
		entry:       step.Dialogue,
		router:      router.Default(),
		maxSteps:    defaultMaxSteps,
		stepTimeout: defaultStepTimeout,
		logger:      logging.WithComponent("engine"),
		tracer:      telemetry.Tracer("engine"),
	}
	for _, s := range steps {
		if s == nil {
			continue
		}
		if _, dup := e.steps[s.ID()]; dup {
			return nil, fmt.Errorf("engine: duplicate step %q", s.ID())
		}
		e.steps[s.ID()] = s
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := e.steps[e.entry]; !ok {
		return nil, fmt.Errorf("engine: entry step %q not registered", e.entry)
	}
	if e.router == nil {
		return nil, fmt.Errorf("engine: router cannot be nil")
	}
	return e, nil
}

// RunTurn appends input to the turn log and runs steps until the router
// ends the turn. Step failures end the turn with an apology; exceeding the
// step cap also returns an error wrapping ErrCycleLimitExceeded. The state
// is updated in place either way.
func (e *Engine) RunTurn(ctx context.Context, st *state.State, input string) (res *Result, err error) {
	if st == nil {
		return nil, fmt.Errorf("%w: state cannot be nil", errorspkg.ErrInvalidInput)
	}
	ctx, span := e.tracer.Start(ctx, "engine.turn", trace.WithAttributes(telemetry.StateAttributes(st)...))
	defer func() { telemetry.End(span, err) }()

	start := time.Now()
	res = &Result{Outcome: OutcomeOK}
	defer func() {
		res.Duration = time.Since(start)
		span.SetAttributes(telemetry.StateAttributes(st)...)
		span.SetAttributes(
			telemetry.KeyOutcome.String(res.Outcome),
			telemetry.KeySteps.Int(len(res.Trace)),
		)
		e.metrics.Turn(res.Outcome)
	}()

	st.Append(message.RoleUser, input)
	logger := e.logger.With("conversation_id", st.ID)

	current := e.entry
	for current != step.End {
		if len(res.Trace) >= e.maxSteps {
			res.Outcome = OutcomeCycleLimit
			e.ensureReply(st, res)
			logger.WarnContext(ctx, "turn stopped at step cap", "max_steps", e.maxSteps, "next", current)
			return res, fmt.Errorf("%w: %d steps without reaching the end", errorspkg.ErrCycleLimitExceeded, e.maxSteps)
		}

		s, ok := e.steps[current]
		if !ok {
			res.Outcome = OutcomeStepError
			logger.ErrorContext(ctx, "router selected an unregistered step", "step", current)
			e.ensureReply(st, res)
			return res, nil
		}

		res.Trace = append(res.Trace, current)
		patch, stepErr := e.runStep(ctx, s, st)
		if stepErr != nil {
			res.Outcome = OutcomeStepError
			logger.ErrorContext(ctx, "step failed, patch discarded", "step", current, "error", stepErr)
			e.ensureReply(st, res)
			return res, nil
		}

		st.Apply(patch)
		if patch != nil && patch.Reply != "" {
			res.Replies = append(res.Replies, st.Append(message.RoleAssistant, patch.Reply))
		}

		next := e.router.Next(st, current)
		span.AddEvent("step.applied", trace.WithAttributes(append(telemetry.StateAttributes(st),
			telemetry.KeyStep.String(string(current)),
			attribute.String("voyager.step.next", string(next)),
		)...))
		e.metrics.Route(string(current), string(next))
		logger.DebugContext(ctx, "step finished", "step", current, "next", next, "stage", st.Stage)
		current = next
	}

	if len(res.Replies) == 0 {
		e.ensureReply(st, res)
	}
	return res, nil
}

// runStep runs s on a private copy of st under the step timeout.
func (e *Engine) runStep(ctx context.Context, s step.Step, st *state.State) (patch *state.Patch, err error) {
	ctx, span := e.tracer.Start(ctx, "engine.step", trace.WithAttributes(
		telemetry.KeyStep.String(string(s.ID())),
		telemetry.KeyStage.String(string(st.Stage)),
	))
	defer func() { telemetry.End(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			patch, err = nil, fmt.Errorf("%w: panic in step %s: %v", errorspkg.ErrInternal, s.ID(), r)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.metrics.ObserveStep(string(s.ID()), outcome, time.Since(start))
	}()

	return s.Run(ctx, st.Clone())
}

// ensureReply makes sure the turn surfaces an assistant message: the last
// reply of this turn if there is one, else an apology.
func (e *Engine) ensureReply(st *state.State, res *Result) {
	if len(res.Replies) > 0 {
		return
	}
	res.Replies = append(res.Replies, st.Append(message.RoleAssistant, ApologyReply))
}
