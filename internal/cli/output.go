package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands
type OutputFormat string

const (
	// OutputFormatTable displays results in a formatted table (default)
	OutputFormatTable OutputFormat = "table"
	// OutputFormatPlain displays results in a kubectl-style plain table
	OutputFormatPlain OutputFormat = "plain"
	// OutputFormatJSON outputs results as JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML outputs results as YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatPlain, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	case "":
		return OutputFormatTable, nil
	default:
		return "", &UsageError{Message: fmt.Sprintf("unsupported output format %q (table, plain, json, yaml)", s)}
	}
}

// Structured reports whether the format is machine readable.
func (f OutputFormat) Structured() bool {
	return f == OutputFormatJSON || f == OutputFormatYAML
}

// WriteStructured encodes v as JSON or YAML.
func WriteStructured(w io.Writer, format OutputFormat, v any) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%s is not a structured format", format)
	}
}
