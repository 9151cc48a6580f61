// Package codec reads and writes diagram interchange documents.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"pidcore/pkg/domain"
)

// Format names an interchange encoding.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

var (
	// ErrUnsupportedVersion is returned for documents written by an
	// incompatible schema major version.
	ErrUnsupportedVersion = errors.New("unsupported diagram schema version")
	// ErrUnknownFormat is returned when no codec matches a format or path.
	ErrUnknownFormat = errors.New("unknown diagram format")
)

// Codec encodes and decodes whole diagrams.
type Codec interface {
	Format() Format
	// Extensions lists file extensions including the dot, preferred first.
	Extensions() []string
	ContentType() string
	Encode(w io.Writer, d domain.Diagram) error
	Decode(r io.Reader) (domain.Diagram, error)
}

var registry = []Codec{NewJSON(true), NewYAML(), NewMsgpack()}

// All returns the built-in codecs.
func All() []Codec {
	return append([]Codec(nil), registry...)
}

// ForFormat returns the codec for f, matched case-insensitively. "yml" and
// "mpk" are accepted as aliases.
func ForFormat(f string) (Codec, error) {
	name := strings.ToLower(strings.TrimPrefix(f, "."))
	for _, c := range registry {
		if string(c.Format()) == name {
			return c, nil
		}
		for _, ext := range c.Extensions() {
			if ext[1:] == name {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// ForPath picks a codec by the extension of path.
func ForPath(path string) (Codec, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ForFormat(ext)
}

// Marshal encodes d with c into a byte slice.
func Marshal(c Codec, d domain.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data with c.
func Unmarshal(c Codec, data []byte) (domain.Diagram, error) {
	return c.Decode(bytes.NewReader(data))
}

var schemaVersion = semver.MustParse(domain.SchemaVersion)

// CheckVersion accepts an empty version or any version sharing the major
// number of domain.SchemaVersion.
func CheckVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, version, err)
	}
	if v.Major() != schemaVersion.Major() {
		return fmt.Errorf("%w: %s (supported %d.x)", ErrUnsupportedVersion, version, schemaVersion.Major())
	}
	return nil
}

// finish validates the schema version and fills defaults on a decoded
// diagram. A document without an id gets a fresh one.
func finish(d *domain.Diagram) error {
	if err := CheckVersion(d.Version); err != nil {
		return err
	}
	if d.ID == "" {
		d.ID = domain.NewID()
	}
	d.Normalize()
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)

// FileName suggests a file name for d: its title, or "pid-diagram" when
// untitled, plus the codec's preferred extension.
func FileName(d domain.Diagram, c Codec) string {
	base := strings.TrimSpace(unsafeName.ReplaceAllString(d.Metadata.Title, "_"))
	if base == "" {
		base = "pid-diagram"
	}
	return base + c.Extensions()[0]
}
