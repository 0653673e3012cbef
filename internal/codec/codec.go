// Package codec implements the JSON, YAML and Java .properties codecs
// that parse and emit the config value model. Each codec round-trips:
// parse(emit(v)) == v for every v representable in its target format,
// with the documented exception that .properties loses object-vs-flat
// structure and always re-emits as sorted flat dotted keys.
package codec

import "github.com/cburgosro9303/vortex-config/internal/value"

// Codec parses bytes into the value tree and emits the value tree back
// to bytes in one concrete wire format.
type Codec interface {
	Parse(data []byte) (value.Value, error)
	Emit(v value.Value) ([]byte, error)
}

// Format names the codec to use for a file, selected by its extension
// per the Spring file-lookup convention.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatProperties
)

// ForExtension maps a file extension (without the leading dot) to its
// Format and reports whether the extension is recognized.
func ForExtension(ext string) (Format, bool) {
	switch ext {
	case "yml", "yaml":
		return FormatYAML, true
	case "json":
		return FormatJSON, true
	case "properties":
		return FormatProperties, true
	default:
		return 0, false
	}
}

// For returns the Codec implementation for a Format.
func For(f Format) Codec {
	switch f {
	case FormatJSON:
		return JSON{}
	case FormatProperties:
		return Properties{}
	default:
		return YAML{}
	}
}

// Extensions lists the extensions searched, in the priority order
// defined by §4.4: first matching extension wins per logical file.
var Extensions = []string{"yml", "yaml", "json", "properties"}
