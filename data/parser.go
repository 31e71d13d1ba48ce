package data

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseJSONOrYAML works like json.Unmarshal, but accepts YAML as well. YAML input is converted
// to JSON first so that the target's json tags and custom unmarshalers apply either way.
func ParseJSONOrYAML(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized, err := normalizeYAML(raw)
	if err != nil {
		return err
	}
	asJSON, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(asJSON, target)
}

// normalizeYAML rewrites the decoded YAML tree so that encoding/json can marshal it.
func normalizeYAML(node interface{}) (interface{}, error) {
	switch n := node.(type) {
	case []interface{}:
		out := make([]interface{}, 0, len(n))
		for _, item := range n {
			v, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, item := range n {
			v, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, item := range n {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("YAML map key %v has type %T; only string keys are allowed", k, k)
			}
			v, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	default:
		return n, nil
	}
}
