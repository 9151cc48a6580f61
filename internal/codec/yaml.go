package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"pidcore/pkg/domain"
)

// YAMLCodec reads and writes hand-editable .yaml documents.
type YAMLCodec struct{}

// NewYAML returns a YAML codec.
func NewYAML() *YAMLCodec {
	return &YAMLCodec{}
}

func (c *YAMLCodec) Format() Format       { return FormatYAML }
func (c *YAMLCodec) Extensions() []string { return []string{".yaml", ".yml"} }
func (c *YAMLCodec) ContentType() string  { return "application/yaml" }

// Encode writes d with two-space indentation.
func (c *YAMLCodec) Encode(w io.Writer, d domain.Diagram) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Decode reads the first document in r.
func (c *YAMLCodec) Decode(r io.Reader) (domain.Diagram, error) {
	var d domain.Diagram
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return domain.Diagram{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := finish(&d); err != nil {
		return domain.Diagram{}, err
	}
	return d, nil
}
