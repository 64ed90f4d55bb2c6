package enricher

import (
	"github.com/google/uuid"

	"github.com/sweetpotato0/voyager/middleware"
)

// EnricherFunc enriches the context
type EnricherFunc func(*middleware.Context) error

// ContextEnricher adds additional data to the middleware context
type ContextEnricher struct {
	name     string
	enricher EnricherFunc
}

// NewContextEnricher creates a context enriching middleware
func NewContextEnricher(enricher EnricherFunc) *ContextEnricher {
	return &ContextEnricher{name: "ContextEnricher", enricher: enricher}
}

// NewTurnStamp stamps every turn with a fresh id under middleware.MetaTurnID,
// keeping one that an outer caller already set.
func NewTurnStamp() *ContextEnricher {
	return &ContextEnricher{
		name: "TurnStamp",
		enricher: func(ctx *middleware.Context) error {
			if ctx.TurnID() == "" {
				ctx.Metadata[middleware.MetaTurnID] = uuid.NewString()
			}
			return nil
		},
	}
}

// Name returns the middleware name
func (m *ContextEnricher) Name() string {
	return m.name
}

// Execute enriches the context
func (m *ContextEnricher) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if ctx.Metadata == nil {
		ctx.Metadata = make(map[string]interface{})
	}
	if m.enricher != nil {
		if err := m.enricher(ctx); err != nil {
			return err
		}
	}
	return next(ctx)
}
