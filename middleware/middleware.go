// Package middleware wraps a conversation turn with cross-cutting behavior:
// logging, admission control and input checks run around the engine.
package middleware

import (
	"context"

	"github.com/sweetpotato0/voyager/engine"
	"github.com/sweetpotato0/voyager/state"
)

// Metadata keys shared by the bundled middlewares.
const (
	MetaTurnID  = "turn_id"
	MetaCreated = "created"
)

// Context represents the middleware execution context of one turn
type Context struct {
	// ConversationID identifies the conversation the turn belongs to
	ConversationID string

	// Input is the raw user utterance
	Input string

	// State is the conversation state the turn runs against
	State *state.State

	// Result is set by the final handler once the engine has run
	Result *engine.Result

	// Error from execution
	Error error

	// Metadata for passing data between middlewares
	Metadata map[string]interface{}

	// Internal state
	context context.Context
}

// NewContext creates a new middleware context
func NewContext(ctx context.Context) *Context {
	return &Context{
		Metadata: make(map[string]interface{}),
		context:  ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	if c.context == nil {
		return context.Background()
	}
	return c.context
}

// WithContext replaces the underlying context.Context.
func (c *Context) WithContext(ctx context.Context) {
	c.context = ctx
}

// TurnID returns the turn id stamped into the metadata, if any.
func (c *Context) TurnID() string {
	id, _ := c.Metadata[MetaTurnID].(string)
	return id
}

// Middleware defines the interface for middleware components.
// Middlewares can intercept a turn before and after the engine runs it.
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic
	// It receives the current context and a next handler to continue the chain
	// Returning error will stop the middleware chain
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// Func adapts a plain function to the Middleware interface.
type Func struct {
	name string
	fn   func(*Context, Handler) error
}

// NewFunc creates a named middleware from fn.
func NewFunc(name string, fn func(*Context, Handler) error) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the middleware name
func (f *Func) Name() string {
	return f.name
}

// Execute runs the wrapped function
func (f *Func) Execute(ctx *Context, next Handler) error {
	if f.fn == nil {
		return next(ctx)
	}
	return f.fn(ctx, next)
}

// MiddlewareChain represents a sequence of middleware to be executed
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *MiddlewareChain {
	c := &MiddlewareChain{}
	for _, m := range middlewares {
		if m != nil {
			c.middlewares = append(c.middlewares, m)
		}
	}
	return c
}

// Add appends a middleware to the chain
func (c *MiddlewareChain) Add(m Middleware) *MiddlewareChain {
	if m != nil {
		c.middlewares = append(c.middlewares, m)
	}
	return c
}

// Names lists the middlewares in execution order.
func (c *MiddlewareChain) Names() []string {
	names := make([]string, len(c.middlewares))
	for i, m := range c.middlewares {
		names[i] = m.Name()
	}
	return names
}

// Execute runs all middlewares in the chain
func (c *MiddlewareChain) Execute(ctx *Context, finalHandler Handler) error {
	if ctx == nil {
		return ErrInvalidContext
	}
	if ctx.Metadata == nil {
		ctx.Metadata = make(map[string]interface{})
	}
	return c.executeMiddleware(ctx, 0, finalHandler)
}

// executeMiddleware recursively executes middlewares in sequence
func (c *MiddlewareChain) executeMiddleware(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		// All middlewares executed, call the final handler
		return finalHandler(ctx)
	}

	nextHandler := func(ctx *Context) error {
		return c.executeMiddleware(ctx, index+1, finalHandler)
	}

	return c.middlewares[index].Execute(ctx, nextHandler)
}
