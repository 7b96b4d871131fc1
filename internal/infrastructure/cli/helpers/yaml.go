package helpers

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlToJSON round-trips v through YAML so the resulting JSON keys match the
// config file rather than Go field names.
func yamlToJSON(v interface{}) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var generic map[string]interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return json.Marshal(generic)
}
