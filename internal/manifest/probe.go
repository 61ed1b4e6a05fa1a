package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// Probe is the filesystem view the loader needs.
type Probe interface {
	Exists(path string) bool
	ReadJSON(path string, out any) error
}

// OSProbe reads from the local filesystem.
type OSProbe struct{}

// Exists reports whether path exists.
func (OSProbe) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadJSON decodes the JSON file at path into out.
func (OSProbe) ReadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
