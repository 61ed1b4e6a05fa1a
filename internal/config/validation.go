package config

import (
	"fmt"
	"regexp"
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

var (
	keySegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-/]+$`)
	teamPattern       = regexp.MustCompile(`^[A-Za-z0-9_.\-]+/[A-Za-z0-9_.\-]+$`)
)

// ValidateKey checks that a configuration key is a non-empty sequence of
// colon-separated segments.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ValidationError{Field: "key", Message: "is required"}
	}
	for _, seg := range strings.Split(key, KeySeparator) {
		if !keySegmentPattern.MatchString(seg) {
			return ValidationError{Field: "key", Value: key, Message: fmt.Sprintf("segment %q contains invalid characters", seg)}
		}
	}
	return nil
}

// ValidateTeamName checks that a team is written as <organisation>/<team>.
func ValidateTeamName(team string) error {
	if !teamPattern.MatchString(team) {
		return ValidationError{Field: "team", Value: team, Message: "must have the form <organisation>/<team>"}
	}
	return nil
}

// Validate checks the parts of the settings other commands rely on.
func (s Settings) Validate() error {
	var errs ValidationErrors
	for name, team := range s.Teams {
		if err := ValidateTeamName(name); err != nil {
			errs.Add("teams", err.Error(), name)
		}
		if team.Path == "" {
			errs.Add("teams:"+name+":path", "is required")
		}
	}
	if s.GitHub.APIHostname != "" && strings.Contains(s.GitHub.APIHostname, "://") {
		errs.Add("github:apiHostname", "must be a host name, not a URL", s.GitHub.APIHostname)
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}
