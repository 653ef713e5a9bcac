package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: "is required",
		}
	}
	return nil
}

// Validate checks the configuration for values the host cannot run with.
func (c PatternHostConfig) Validate() error {
	var errs ValidationErrors

	if err := ValidateRequired("manifest", c.Manifest); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateRequired("map.container", c.Map.Container); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if c.Reconciler.SetupTimeout < 0 {
		errs.Add("reconciler.setupTimeout", "must not be negative", c.Reconciler.SetupTimeout)
	}
	if c.Reconciler.EventBuffer < 0 {
		errs.Add("reconciler.eventBuffer", "must not be negative", c.Reconciler.EventBuffer)
	}
	if c.Watch.Debounce < 0 {
		errs.Add("watch.debounce", "must not be negative", c.Watch.Debounce)
	}
	if c.Map.LoadDelay < 0 {
		errs.Add("map.loadDelay", "must not be negative", c.Map.LoadDelay)
	}
	if c.Demo.SetupDelay < 0 {
		errs.Add("demo.setupDelay", "must not be negative", c.Demo.SetupDelay)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
