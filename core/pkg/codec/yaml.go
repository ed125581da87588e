package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/dtomasi/yangtze/core/pkg/storage"
)

// DecodeManifest parses one YAML or JSON document into an envelope.
func DecodeManifest(data []byte) (storage.Object, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return storage.Object{}, fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}

	var obj storage.Object
	if err := json.Unmarshal(jsonData, &obj); err != nil {
		return storage.Object{}, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if obj.Metadata.Kind == "" {
		return storage.Object{}, fmt.Errorf("manifest has no metadata.kind")
	}
	if isNull(obj.Status) {
		obj.Status = nil
	}
	return obj, nil
}

// DecodeManifests parses a stream of documents separated by "---" lines.
// Empty documents are skipped.
func DecodeManifests(data []byte) ([]storage.Object, error) {
	var out []storage.Object
	for i, doc := range splitDocuments(data) {
		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}
		obj, err := DecodeManifest(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

func splitDocuments(data []byte) [][]byte {
	var (
		docs    [][]byte
		current bytes.Buffer
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimRight(line, " \t") == "---" {
			docs = append(docs, append([]byte(nil), current.Bytes()...))
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	return append(docs, current.Bytes())
}

// ToYAML renders any JSON-serializable value as YAML.
func ToYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal object to JSON: %w", err)
	}
	out, err := yaml.JSONToYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JSON to YAML: %w", err)
	}
	return out, nil
}
