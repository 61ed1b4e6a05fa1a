package config

import (
	"fmt"
	"strings"
)

// ConfigurationError represents a structured error that occurs while loading
// or writing configuration.
type ConfigurationError struct {
	FilePath    string   // Full path to the file that caused the error
	ErrorType   string   // Type of error (parse, io, validation)
	Message     string   // Human-readable error message
	Suggestions []string // Actionable suggestions to fix the error
	Err         error
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: %s", ce.FilePath, ce.Message)
	if ce.Err != nil {
		msg += ": " + ce.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error: %s", ce.Message))
	parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))

	if ce.Err != nil {
		parts = append(parts, fmt.Sprintf("  Cause: %s", ce.Err))
	}

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}
