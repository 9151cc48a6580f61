package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"pidcore/pkg/domain"
)

// JSONCodec reads and writes the editor's native .json documents.
type JSONCodec struct {
	pretty bool
}

// NewJSON returns a JSON codec. Pretty output is indented by two spaces.
func NewJSON(pretty bool) *JSONCodec {
	return &JSONCodec{pretty: pretty}
}

func (c *JSONCodec) Format() Format       { return FormatJSON }
func (c *JSONCodec) Extensions() []string { return []string{".json"} }
func (c *JSONCodec) ContentType() string  { return "application/json" }

// Encode writes d followed by a newline.
func (c *JSONCodec) Encode(w io.Writer, d domain.Diagram) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if c.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Decode reads one diagram document.
func (c *JSONCodec) Decode(r io.Reader) (domain.Diagram, error) {
	var d domain.Diagram
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return domain.Diagram{}, fmt.Errorf("parse json: %w", err)
	}
	if err := finish(&d); err != nil {
		return domain.Diagram{}, err
	}
	return d, nil
}
