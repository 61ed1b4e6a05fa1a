package cli

import (
	"fmt"
	"strings"

	"bosco/internal/orchestrator"
)

// PartialFailureError indicates that some services of a run list could not
// be started or stopped while the rest succeeded.
type PartialFailureError struct {
	// Action is the verb that failed, such as "start" or "stop".
	Action string
	// Failed lists the services that failed.
	Failed []string
	// Total is the number of services a runner was asked to handle.
	Total int
}

// Error returns a user-friendly error message.
func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d services failed to %s: %s", len(e.Failed), e.Total, e.Action, strings.Join(e.Failed, ", "))
}

// Is allows errors.Is() to work with wrapped errors.
func (e *PartialFailureError) Is(target error) bool {
	_, ok := target.(*PartialFailureError)
	return ok
}

// SummaryError converts a summary with failures into a PartialFailureError.
// It returns nil when nothing failed.
func SummaryError(action string, summary orchestrator.Summary) error {
	if len(summary.Failed) == 0 {
		return nil
	}
	failed := make([]string, 0, len(summary.Failed))
	for _, f := range summary.Failed {
		failed = append(failed, f.Name)
	}
	return &PartialFailureError{Action: action, Failed: failed, Total: summary.Attempted()}
}

// UsageError indicates invalid flags or arguments.
type UsageError struct {
	Message string
}

// Error returns the message.
func (e *UsageError) Error() string {
	return e.Message
}
