package docstore

import (
	"bytes"
	"encoding/json"
)

// Codec converts documents to and from their on-disk encoding.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	// IsNull reports whether data encodes an explicit null document.
	IsNull(data []byte) bool
	// Extension is the primary file extension, including the dot.
	Extension() string
}

// JSONCodec writes indented, human-readable JSON. HTML characters and
// non-ASCII text are written literally.
type JSONCodec struct {
	Indent string
}

// DefaultCodec is the codec used when none is configured.
var DefaultCodec Codec = JSONCodec{Indent: "  "}

func (c JSONCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) IsNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func (JSONCodec) Extension() string {
	return ".json"
}
