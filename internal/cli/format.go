package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"bosco/internal/manifest"
	"bosco/internal/orchestrator"
	bstrings "bosco/pkg/strings"
)

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return text.FgRed.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return text.FgGreen.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return text.FgYellow.Sprintf("⚠ %s", msg)
}

// RepoColor is the colour a repository name is shown in.
func RepoColor(name string) text.Color {
	switch {
	case manifest.IsApp(name):
		return text.FgGreen
	case manifest.IsServiceRepo(name):
		return text.FgCyan
	case manifest.IsInfra(name):
		return text.FgBlue
	default:
		return text.FgWhite
	}
}

// Repo highlights a repository name.
func Repo(name string) string {
	return RepoColor(name).Sprint(name)
}

// FormatSummary renders a run or stop summary as a few lines.
func FormatSummary(action string, s orchestrator.Summary) string {
	var b strings.Builder

	line := s.String()
	switch {
	case len(s.Failed) > 0:
		b.WriteString(FormatWarning(line))
	default:
		b.WriteString(FormatSuccess(line))
	}
	b.WriteString("\n")

	for _, f := range s.Failed {
		fmt.Fprintf(&b, "  %s failed to %s: %s\n", Repo(f.Name), action, bstrings.OneLine(f.Err.Error(), bstrings.ErrorMaxLen))
	}
	if len(s.Skipped) > 0 {
		names := make([]string, 0, len(s.Skipped))
		for _, n := range s.Skipped {
			names = append(names, Repo(n))
		}
		fmt.Fprintf(&b, "  skipped: %s\n", strings.Join(names, ", "))
	}
	if len(s.Unknown) > 0 {
		names := make([]string, 0, len(s.Unknown))
		for _, n := range s.Unknown {
			names = append(names, Repo(n))
		}
		fmt.Fprintf(&b, "  no configuration found for: %s\n", strings.Join(names, ", "))
		b.WriteString("  Check your organisation with 'bosco config get github:org' and your team setup\n")
	}
	return b.String()
}
