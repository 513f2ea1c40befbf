// Package slerrors provides the sound level meter's error taxonomy: a
// small fluent builder over the standard error interface, trimmed from the
// host framework's own error-categorization package down to the
// categories this module actually raises.
package slerrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory groups errors for logging/metrics without requiring a
// sentinel value per failure.
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryAudio         ErrorCategory = "audio-source"
	CategorySoundLevel    ErrorCategory = "sound-level"
	CategoryResource      ErrorCategory = "resource"
	CategoryState         ErrorCategory = "state"
)

// ComponentUnknown is used when no component was set on the builder.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with a component, category, and free-form
// context, the way the host framework's own error type does.
type EnhancedError struct {
	Err       error
	Category  ErrorCategory
	component string
	context   map[string]any
	Timestamp time.Time
}

func (e *EnhancedError) Error() string { return e.Err.Error() }
func (e *EnhancedError) Unwrap() error { return e.Err }

// Is delegates to the standard library so errors.Is(target) keeps working
// through the wrapper.
func (e *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return e.Category == other.Category
	}
	return errors.Is(e.Err, target)
}

// GetComponent returns the component the error was raised from.
func (e *EnhancedError) GetComponent() string {
	if e.component == "" {
		return ComponentUnknown
	}
	return e.component
}

// GetContext returns the error's diagnostic context.
func (e *EnhancedError) GetContext() map[string]any {
	return e.context
}

// Builder provides a fluent interface for constructing an EnhancedError.
type Builder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts a builder wrapping an existing error. err must be non-nil:
// the built EnhancedError's Error method calls err.Error().
func New(err error) *Builder {
	return &Builder{err: err}
}

// Newf starts a builder from a formatted message.
func Newf(format string, args ...any) *Builder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the originating component name.
func (b *Builder) Component(component string) *Builder {
	b.component = component
	return b
}

// Category sets the error category.
func (b *Builder) Category(category ErrorCategory) *Builder {
	b.category = category
	return b
}

// Context attaches a key/value pair of diagnostic context.
func (b *Builder) Context(key string, value any) *Builder {
	if b.context == nil {
		b.context = make(map[string]any)
	}
	b.context[key] = value
	return b
}

// Build finalizes the error.
func (b *Builder) Build() *EnhancedError {
	return &EnhancedError{
		Err:       b.err,
		component: b.component,
		Category:  b.category,
		context:   b.context,
		Timestamp: time.Now(),
	}
}
