package codec

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"pidcore/pkg/domain"
)

// MsgpackCodec is a compact binary encoding using the same field names as
// the JSON documents.
type MsgpackCodec struct{}

// NewMsgpack returns a MessagePack codec.
func NewMsgpack() *MsgpackCodec {
	return &MsgpackCodec{}
}

func (c *MsgpackCodec) Format() Format       { return FormatMsgpack }
func (c *MsgpackCodec) Extensions() []string { return []string{".msgpack", ".mpk"} }
func (c *MsgpackCodec) ContentType() string  { return "application/vnd.msgpack" }

// Encode writes d as a single MessagePack map with sorted keys.
func (c *MsgpackCodec) Encode(w io.Writer, d domain.Diagram) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode msgpack: %w", err)
	}
	return nil
}

// Decode reads one MessagePack diagram.
func (c *MsgpackCodec) Decode(r io.Reader) (domain.Diagram, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	var d domain.Diagram
	if err := dec.Decode(&d); err != nil {
		return domain.Diagram{}, fmt.Errorf("parse msgpack: %w", err)
	}
	if err := finish(&d); err != nil {
		return domain.Diagram{}, err
	}
	return d, nil
}
