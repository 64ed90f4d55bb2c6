package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/voyager/middleware"
)

// ValidatorFunc validates input
type ValidatorFunc func(string) error

// InputValidator validates the utterance before the turn runs
type InputValidator struct {
	validator ValidatorFunc
}

// NewInputValidator creates an input validation middleware
func NewInputValidator(validator ValidatorFunc) *InputValidator {
	return &InputValidator{validator: validator}
}

// NewUtteranceValidator rejects blank utterances and, when maxChars is
// positive, utterances longer than maxChars characters.
func NewUtteranceValidator(maxChars int) *InputValidator {
	return NewInputValidator(func(input string) error {
		if strings.TrimSpace(input) == "" {
			return fmt.Errorf("%w: utterance is empty", middleware.ErrInvalidInput)
		}
		if n := utf8.RuneCountInString(input); maxChars > 0 && n > maxChars {
			return fmt.Errorf("%w: utterance has %d characters, limit is %d", middleware.ErrInvalidInput, n, maxChars)
		}
		return nil
	})
}

// Name returns the middleware name
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute validates the input
func (m *InputValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.validator != nil {
		if err := m.validator(ctx.Input); err != nil {
			return err
		}
	}
	return next(ctx)
}
