package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bosco/pkg/logging"

	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

// KeySeparator splits configuration keys into path segments, e.g.
// "cache:github:tes/service-a" addresses data["cache"]["github"]["tes/service-a"].
const KeySeparator = ":"

// EnvPrefix marks environment variables that override configuration keys.
// Segments are separated by a double underscore: BOSCO_github__org=tes.
const EnvPrefix = "BOSCO_"

const envSegmentSeparator = "__"

// Store is the durable key-value configuration store.
//
// Values written with Set land in the user layer, which Save persists to
// disk. Read-only override layers (environment file, environment variables)
// take precedence on Get. Concurrent bosco processes are not coordinated; the
// last Save wins.
type Store struct {
	mu        sync.RWMutex
	path      string
	data      map[string]any
	overrides []overrideLayer
}

type overrideLayer struct {
	name string
	data map[string]any
}

// NewStore returns an empty store that will persist to path.
func NewStore(path string) *Store {
	return &Store{path: path, data: map[string]any{}}
}

// LoadStore reads the user configuration file at path. A missing file yields
// an empty store.
func LoadStore(path string) (*Store, error) {
	s := NewStore(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigStore", "No configuration found at %s, starting empty", path)
			return s, nil
		}
		return nil, &ConfigurationError{FilePath: path, ErrorType: "io", Message: "failed to read configuration", Err: err}
	}

	doc := map[string]any{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ConfigurationError{FilePath: path, ErrorType: "parse", Message: "configuration is not valid YAML", Err: err}
		}
	}
	s.data = doc

	logging.Debug("ConfigStore", "Loaded configuration from %s", path)
	return s, nil
}

// Path returns the file the user layer is saved to.
func (s *Store) Path() string {
	return s.path
}

// AddOverrideFile layers the YAML document at path over the user
// configuration. A missing file is not an error. Later layers win over
// earlier ones.
func (s *Store) AddOverrideFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &ConfigurationError{FilePath: path, ErrorType: "io", Message: "failed to read environment configuration", Err: err}
	}

	var doc map[string]any
	if err := yamlv3.Unmarshal(raw, &doc); err != nil {
		return &ConfigurationError{FilePath: path, ErrorType: "parse", Message: "environment configuration is not valid YAML", Err: err}
	}

	normalized, err := normalize(doc)
	if err != nil {
		return &ConfigurationError{FilePath: path, ErrorType: "parse", Message: "environment configuration is not a mapping", Err: err}
	}
	m, _ := normalized.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}

	s.mu.Lock()
	s.overrides = append(s.overrides, overrideLayer{name: path, data: m})
	s.mu.Unlock()

	logging.Debug("ConfigStore", "Layered environment configuration from %s", path)
	return nil
}

// AddEnvOverrides layers every BOSCO_-prefixed variable of environ (in
// os.Environ form) over the configuration.
func (s *Store) AddEnvOverrides(environ []string) {
	layer := map[string]any{}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		segments := strings.Split(strings.TrimPrefix(name, EnvPrefix), envSegmentSeparator)
		setPath(layer, segments, value)
	}
	if len(layer) == 0 {
		return
	}

	s.mu.Lock()
	s.overrides = append(s.overrides, overrideLayer{name: "env", data: layer})
	s.mu.Unlock()
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (any, bool) {
	segments := splitKey(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.overrides) - 1; i >= 0; i-- {
		if v, ok := getPath(s.overrides[i].data, segments); ok {
			return v, true
		}
	}
	return getPath(s.data, segments)
}

// GetString returns the value under key when it is a string, or "".
func (s *Store) GetString(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// Decode unmarshals the value under key into out. It reports false when the
// key is absent.
func (s *Store) Decode(key string, out any) (bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return true, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key in the user layer. Structs are stored in their
// JSON form so that they survive a Save/Load round trip unchanged.
func (s *Store) Set(key string, value any) error {
	segments := splitKey(key)
	if len(segments) == 0 {
		return fmt.Errorf("key cannot be empty")
	}

	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	setPath(s.data, segments, normalized)
	return nil
}

// Delete removes key from the user layer.
func (s *Store) Delete(key string) {
	segments := splitKey(key)
	if len(segments) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := getPath(s.data, segments[:len(segments)-1])
	if !ok {
		return
	}
	if m, ok := parent.(map[string]any); ok {
		delete(m, segments[len(segments)-1])
	}
}

// Keys returns the child keys stored under key, sorted.
func (s *Store) Keys(key string) []string {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save persists the user layer to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(s.path), err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	logging.Debug("ConfigStore", "Saved configuration to %s", s.path)
	return nil
}

func splitKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, KeySeparator)
}

func getPath(m map[string]any, segments []string) (any, bool) {
	var cur any = m
	for _, seg := range segments {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(m map[string]any, segments []string, value any) {
	node := m
	for _, seg := range segments[:len(segments)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[seg] = next
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
}

// normalize converts value to the generic JSON representation (maps, slices,
// strings, float64, bool).
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
