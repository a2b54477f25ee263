package tristate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec defines how a watched document is decoded before evaluation.
// Implement this interface to use alternative formats like TOML, HCL, or custom binary formats.
type Codec interface {
	// Unmarshal deserializes bytes into a value.
	Unmarshal(data []byte, v any) error

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONCodec implements Codec using encoding/json.
type JSONCodec struct{}

// Unmarshal deserializes JSON bytes into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ContentType returns the JSON MIME type.
func (JSONCodec) ContentType() string {
	return "application/json"
}

// YAMLCodec implements Codec using gopkg.in/yaml.v3.
type YAMLCodec struct{}

// Unmarshal deserializes YAML bytes into v.
func (YAMLCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// ContentType returns the YAML MIME type.
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// TextCodec decodes a bare boolean flag such as "true", "0", "on" or "no",
// ignoring surrounding whitespace and case. The target must be *bool or
// *string.
type TextCodec struct{}

// Unmarshal parses data into v.
func (TextCodec) Unmarshal(data []byte, v any) error {
	text := strings.ToLower(string(bytes.TrimSpace(data)))
	switch target := v.(type) {
	case *string:
		*target = text
		return nil
	case *bool:
		b, err := parseFlag(text)
		if err != nil {
			return err
		}
		*target = b
		return nil
	default:
		return fmt.Errorf("text codec cannot decode into %T", v)
	}
}

// ContentType returns the plain text MIME type.
func (TextCodec) ContentType() string {
	return "text/plain"
}

func parseFlag(text string) (bool, error) {
	switch text {
	case "1", "t", "true", "y", "yes", "on", "enabled":
		return true, nil
	case "0", "f", "false", "n", "no", "off", "disabled":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean flag %q", text)
	}
}

var (
	_ Codec = JSONCodec{}
	_ Codec = YAMLCodec{}
	_ Codec = TextCodec{}
)
