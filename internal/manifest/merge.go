package manifest

import (
	"encoding/json"
	"fmt"
)

// OverlayService copies every top-level key present in overlay onto base.
// Keys missing from overlay keep the value from base, so a partial service
// block in bosco-service.json refines what package.json produced instead of
// replacing it.
func OverlayService(base Service, overlay json.RawMessage) (Service, error) {
	return mergeService(base, overlay, true)
}

// DefaultService fills keys that base does not set with the values from
// defaults. Keys already present in base are kept.
func DefaultService(base Service, defaults Service) (Service, error) {
	raw, err := json.Marshal(defaults)
	if err != nil {
		return base, fmt.Errorf("failed to encode service defaults: %w", err)
	}
	return mergeService(base, raw, false)
}

func mergeService(base Service, other json.RawMessage, overwrite bool) (Service, error) {
	if len(other) == 0 || string(other) == "null" {
		return base, nil
	}

	baseMap, err := toMap(base)
	if err != nil {
		return base, err
	}

	var otherMap map[string]json.RawMessage
	if err := json.Unmarshal(other, &otherMap); err != nil {
		return base, fmt.Errorf("service block is not an object: %w", err)
	}

	for k, v := range otherMap {
		if _, present := baseMap[k]; present && !overwrite {
			continue
		}
		baseMap[k] = v
	}

	merged, err := json.Marshal(baseMap)
	if err != nil {
		return base, fmt.Errorf("failed to encode merged service: %w", err)
	}

	var out Service
	if err := json.Unmarshal(merged, &out); err != nil {
		return base, fmt.Errorf("failed to decode merged service: %w", err)
	}
	return out, nil
}

func toMap(s Service) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service: %w", err)
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode service: %w", err)
	}
	return m, nil
}
