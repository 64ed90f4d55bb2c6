// Package agent implements the reasoning steps of a trip-planning
// conversation. Each step builds a bounded payload, asks the text generator
// for a JSON reply and turns it into a state patch. A failed or garbled
// generator reply never fails the step; every step has a deterministic
// fallback.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/voyager/config"
	errorspkg "github.com/sweetpotato0/voyager/errors"
	"github.com/sweetpotato0/voyager/message"
	"github.com/sweetpotato0/voyager/pkg/logging"
	"github.com/sweetpotato0/voyager/pkg/metrics"
	"github.com/sweetpotato0/voyager/pkg/tokenizer"
	"github.com/sweetpotato0/voyager/prompt"
	"github.com/sweetpotato0/voyager/state"
	"github.com/sweetpotato0/voyager/step"
)

// LLMClient defines the interface for text generation providers
type LLMClient interface {
	// Generate returns the assistant reply to messages.
	Generate(ctx context.Context, messages []*message.Message) (*message.Message, error)
}

// Options carries the dependencies shared by every step. It is built once
// at startup from the process configuration.
type Options struct {
	Engine  config.EngineConfig
	Prompts *prompt.Manager
	Counter tokenizer.Counter
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	def := config.Default().Engine
	if o.Engine.ResearchLimit <= 0 {
		o.Engine.ResearchLimit = def.ResearchLimit
	}
	if o.Engine.FallbackTop <= 0 {
		o.Engine.FallbackTop = def.FallbackTop
	}
	if o.Engine.HistoryMessages <= 0 {
		o.Engine.HistoryMessages = def.HistoryMessages
	}
	if o.Engine.MaxDurationDays <= 0 || o.Engine.MaxDurationDays > config.MaxTripDays {
		o.Engine.MaxDurationDays = def.MaxDurationDays
	}
	if o.Prompts == nil {
		o.Prompts = prompt.Defaults()
	}
	if o.Counter == nil {
		o.Counter = tokenizer.WordCounter{}
	}
	return o
}

// Steps builds the five reasoning steps around one generator.
func Steps(llm LLMClient, opts Options) []step.Step {
	return []step.Step{
		NewDialogue(llm, opts),
		NewExtraction(llm, opts),
		NewResearch(llm, opts),
		NewRanking(llm, opts),
		NewItinerary(llm, opts),
	}
}

// base holds what every step needs to talk to the generator.
type base struct {
	id      step.ID
	llm     LLMClient
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newBase(id step.ID, llm LLMClient, opts Options) base {
	opts = opts.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponent("agent")
	}
	return base{
		id:      id,
		llm:     llm,
		opts:    opts,
		logger:  logger.With("step", string(id)),
		metrics: opts.Metrics,
	}
}

// ID implements step.Step.
func (b *base) ID() step.ID { return b.id }

// history returns the recent user and assistant entries that fit the
// configured message and token budgets.
func (b *base) history(st *state.State) []*message.Message {
	turns := make([]*message.Message, 0, len(st.TurnLog))
	for _, m := range st.TurnLog {
		if m.Role == message.RoleUser || m.Role == message.RoleAssistant {
			turns = append(turns, m)
		}
	}
	turns = message.Tail(turns, b.opts.Engine.HistoryMessages)
	return tokenizer.FitMessages(b.opts.Counter, turns, b.opts.Engine.ContextTokens)
}

func (b *base) render(name string, vars map[string]any) (string, error) {
	out, err := b.opts.Prompts.Render(name, vars)
	if err != nil {
		return "", fmt.Errorf("%s: %w", b.id, err)
	}
	return out, nil
}

// generate sends system, the given turns and an optional closing user
// instruction. Transport failures and timeouts wrap ErrGeneratorUnavailable;
// a blank reply wraps ErrMalformedResponse.
func (b *base) generate(ctx context.Context, system string, turns []*message.Message, instruction string) (string, error) {
	if b.llm == nil {
		return "", fmt.Errorf("%w: no generator configured", errorspkg.ErrGeneratorUnavailable)
	}
	msgs := make([]*message.Message, 0, len(turns)+2)
	msgs = append(msgs, message.NewMessage(message.RoleSystem, system))
	msgs = append(msgs, turns...)
	if instruction != "" {
		msgs = append(msgs, message.NewMessage(message.RoleUser, instruction))
	}

	resp, err := b.llm.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errorspkg.ErrGeneratorUnavailable, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%w: %w", errorspkg.ErrGeneratorUnavailable, ctxErr)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: blank reply", errorspkg.ErrMalformedResponse)
	}
	return text, nil
}

// fallback records that the step is taking its fallback path because of err.
func (b *base) fallback(ctx context.Context, err error) {
	reason := failureReason(err)
	b.metrics.Fallback(string(b.id), reason)
	b.logger.WarnContext(ctx, "generator fallback", "reason", reason, "error", err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, errorspkg.ErrGeneratorUnavailable):
		return "unavailable"
	case errors.Is(err, errorspkg.ErrEmptyResult):
		return "empty"
	default:
		return "malformed"
	}
}
