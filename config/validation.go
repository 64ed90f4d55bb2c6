package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// Validator accumulates validation errors across chained checks.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		errors: []ValidationError{},
	}
}

func (v *Validator) add(field, format string, args ...any) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	return v
}

// RequireNonEmpty validates that a string field is not empty
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.add(field, "value cannot be empty")
	}
	return v
}

// RequirePositive validates that an integer field is greater than 0
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		return v.add(field, "value must be positive, got %d", value)
	}
	return v
}

// RequirePositiveDuration validates that a duration is greater than 0
func (v *Validator) RequirePositiveDuration(field string, value time.Duration) *Validator {
	if value <= 0 {
		return v.add(field, "duration must be positive, got %s", value)
	}
	return v
}

// RequireNonNegative validates that a number is not below 0
func (v *Validator) RequireNonNegative(field string, value float64) *Validator {
	if value < 0 {
		return v.add(field, "value must not be negative, got %.2f", value)
	}
	return v
}

// ValidateRange validates that an integer field is within a range [min, max]
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		return v.add(field, "value must be between %d and %d, got %d", min, max, value)
	}
	return v
}

// ValidateFloatRange validates that a float field is within a range [min, max]
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		return v.add(field, "value must be between %.2f and %.2f, got %.2f", min, max, value)
	}
	return v
}

// ValidatePort validates that a port number is valid (1-65535)
func (v *Validator) ValidatePort(field string, port int) *Validator {
	return v.ValidateRange(field, port, 1, 65535)
}

// ValidateDBNumber validates that a database number is valid (0-15 for Redis)
func (v *Validator) ValidateDBNumber(field string, db int) *Validator {
	return v.ValidateRange(field, db, 0, 15)
}

// ValidateOneOf validates that a string value is one of the allowed options
func (v *Validator) ValidateOneOf(field string, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if a == value {
			return v
		}
	}
	return v.add(field, "value must be one of %v, got %q", allowed, value)
}

// HasErrors returns true if there are any validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns a combined error message or nil if no errors
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}

	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for _, e := range v.errors {
		fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
	}
	return errors.New(b.String())
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

func (c PostgresConfig) validate(v *Validator, prefix string) {
	v.RequireNonEmpty(prefix+".host", c.Host)
	v.ValidatePort(prefix+".port", c.Port)
	v.RequireNonEmpty(prefix+".user", c.User)
	v.RequireNonEmpty(prefix+".db_name", c.DBName)
	v.ValidateOneOf(prefix+".ssl_mode", c.SSLMode, "disable", "require", "verify-ca", "verify-full")
}

func (c RedisConfig) validate(v *Validator, prefix string) {
	v.RequireNonEmpty(prefix+".addr", c.Addr)
	v.ValidateDBNumber(prefix+".db", c.DB)
	v.RequireNonEmpty(prefix+".prefix", c.Prefix)
}

func (c MongoConfig) validate(v *Validator, prefix string) {
	v.RequireNonEmpty(prefix+".uri", c.URI)
	v.RequireNonEmpty(prefix+".database", c.Database)
	v.RequireNonEmpty(prefix+".collection", c.Collection)
}

func (c ProviderConfig) validate(v *Validator) {
	v.ValidateOneOf("provider.name", c.Name, ProviderGroq, ProviderOpenAI, ProviderClaude, ProviderGemini)
	v.RequireNonEmpty("provider.api_key", c.APIKey)
	v.RequireNonEmpty("provider.model", c.Model)
	v.ValidateFloatRange("provider.temperature", c.Temperature, 0.0, 2.0)
	v.RequirePositive("provider.max_tokens", c.MaxTokens)
}

func (c EngineConfig) validate(v *Validator) {
	v.ValidateRange("engine.max_steps", c.MaxSteps, 1, 32)
	v.RequirePositiveDuration("engine.step_timeout", c.StepTimeout)
	v.RequirePositive("engine.research_limit", c.ResearchLimit)
	v.RequirePositive("engine.fallback_top", c.FallbackTop)
	v.RequirePositive("engine.history_messages", c.HistoryMessages)
	v.RequirePositive("engine.max_concurrency", c.MaxConcurrency)
	v.ValidateRange("engine.max_duration_days", c.MaxDurationDays, 1, MaxTripDays)
	if c.ContextTokens < 0 {
		v.add("engine.context_tokens", "value must not be negative, got %d", c.ContextTokens)
	}
	if c.FallbackTop > c.ResearchLimit {
		v.add("engine.fallback_top", "must not exceed research_limit (%d), got %d", c.ResearchLimit, c.FallbackTop)
	}
}
