package logger

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/voyager/middleware"
	"github.com/sweetpotato0/voyager/pkg/logging"
)

// RequestLogger logs incoming turns
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a request logging middleware. A nil logger uses
// the process logger.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.WithComponent("turn")
	}
	return &RequestLogger{logger: logger}
}

// Name returns the middleware name
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the turn input
func (m *RequestLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	m.logger.DebugContext(ctx.Context(), "turn received",
		"conversation_id", ctx.ConversationID,
		"turn_id", ctx.TurnID(),
		"input", ctx.Input,
	)
	return next(ctx)
}

// ResponseLogger logs how turns finished
type ResponseLogger struct {
	logger *slog.Logger
}

// NewResponseLogger creates a response logging middleware. A nil logger
// uses the process logger.
func NewResponseLogger(logger *slog.Logger) *ResponseLogger {
	if logger == nil {
		logger = logging.WithComponent("turn")
	}
	return &ResponseLogger{logger: logger}
}

// Name returns the middleware name
func (m *ResponseLogger) Name() string {
	return "ResponseLogger"
}

// Execute logs the turn outcome
func (m *ResponseLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := time.Now()
	err := next(ctx)

	attrs := []any{
		"conversation_id", ctx.ConversationID,
		"turn_id", ctx.TurnID(),
		"duration", time.Since(start),
	}
	if ctx.State != nil {
		attrs = append(attrs, "stage", ctx.State.Stage)
	}
	if res := ctx.Result; res != nil {
		attrs = append(attrs, "outcome", res.Outcome, "steps", len(res.Trace), "replies", len(res.Replies))
	}
	if err != nil {
		m.logger.WarnContext(ctx.Context(), "turn failed", append(attrs, "error", err)...)
		return err
	}
	m.logger.InfoContext(ctx.Context(), "turn finished", attrs...)
	return nil
}
