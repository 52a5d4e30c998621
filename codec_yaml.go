package docstore

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// YAMLCodec stores documents as YAML. Documents that carry json tags only
// should add yaml tags, since yaml.v3 lowercases untagged field names.
type YAMLCodec struct {
	Indent int
}

func (c YAMLCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	indent := c.Indent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

func (YAMLCodec) IsNull(data []byte) bool {
	switch string(bytes.TrimSpace(data)) {
	case "null", "Null", "NULL", "~", "---":
		return true
	}
	return false
}

func (YAMLCodec) Extension() string {
	return ".yaml"
}
