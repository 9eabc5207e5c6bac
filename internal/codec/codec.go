package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec converts documents to and from bytes.
type Codec interface {
	// Encode returns the byte representation of v.
	Encode(v any) ([]byte, error)

	// Decode populates the value pointed to by v from data.
	Decode(data []byte, v any) error

	// Name is the format name, such as "json".
	Name() string
}

// JSONCodec implements Codec using the encoding/json package.
type JSONCodec struct {
	// Indent pretty prints encoded output when set.
	Indent string
}

func (c JSONCodec) Encode(v any) ([]byte, error) {
	if c.Indent != "" {
		return json.MarshalIndent(v, "", c.Indent)
	}
	return json.Marshal(v)
}

func (c JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c JSONCodec) Name() string { return "json" }

// YAMLCodec implements Codec using gopkg.in/yaml.v3.
type YAMLCodec struct{}

func (YAMLCodec) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAMLCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

func (YAMLCodec) Name() string { return "yaml" }

// ForFormat returns the codec registered for a format name.
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json", "":
		return JSONCodec{Indent: "  "}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported data format '%s'", format)
	}
}

// DecodeDocument decodes data holding a single mapping.
func DecodeDocument(c Codec, data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := c.Decode(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", c.Name(), err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode %s document: document is empty", c.Name())
	}
	return doc, nil
}
