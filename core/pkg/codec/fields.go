package codec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToMap returns the generic JSON form of obj.
func ToMap(obj any) (map[string]any, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal object to JSON: %w", err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal object to map: %w", err)
	}
	return out, nil
}

// Lookup walks a dotted path such as "status.state" through m.
func Lookup(m map[string]any, path string) (any, bool) {
	var current any = m
	for _, part := range strings.Split(path, ".") {
		fields, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = fields[part]; !ok {
			return nil, false
		}
	}
	return current, true
}
