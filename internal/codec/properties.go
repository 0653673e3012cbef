package codec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	magicprops "github.com/magiconair/properties"

	"github.com/cburgosro9303/vortex-config/internal/value"
)

// Properties implements Codec for Java .properties files. Parsing is
// delegated to magiconair/properties, which already implements the Java
// property-file conventions this format requires: backslash escapes,
// trailing-backslash line continuation, '#'/'!' comments and '='/':'/
// whitespace separators. Emission is hand-rolled because Spring's
// reproducibility requirement (flattened, sorted by key) has no
// equivalent writer in that library.
//
// Parsing distinguishes unknown structure: .properties files carry no
// object/array markers, so every key is treated as a dotted path and
// unflattened into the value tree. Emission always flattens first, so
// parse(emit(v)) reproduces the flattened shape of v rather than v
// itself — the one documented exception to codec round-tripping.
type Properties struct{}

func (Properties) Parse(data []byte) (value.Value, error) {
	p, err := magicprops.LoadString(string(data))
	if err != nil {
		return value.Value{}, fmt.Errorf("codec: properties parse: %w", err)
	}

	flat := value.NewOrderedMap()

	for _, k := range p.Keys() {
		raw, ok := p.Get(k)
		if !ok {
			continue
		}

		flat.Set(k, parseScalar(raw))
	}

	v, err := value.Unflatten(flat)
	if err != nil {
		return value.Value{}, fmt.Errorf("codec: properties parse: %w", err)
	}

	return v, nil
}

// parseScalar classifies a raw property value as integer, float, boolean
// or string, matching the ordering integer > float > boolean > string
// from §4.2 (an unambiguous integer literal is never read back as a
// float).
func parseScalar(s string) value.Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(i)
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float(f)
	}

	switch s {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	}

	return value.String(s)
}

func (Properties) Emit(v value.Value) ([]byte, error) {
	flat := value.Flatten(v)

	keys := append([]string(nil), flat.Keys()...)
	sort.Strings(keys)

	var sb strings.Builder

	for _, k := range keys {
		fv, _ := flat.Get(k)

		sb.WriteString(escapePropertiesKey(k))
		sb.WriteByte('=')
		sb.WriteString(escapePropertiesValue(scalarToString(fv)))
		sb.WriteByte('\n')
	}

	return []byte(sb.String()), nil
}

func scalarToString(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return ""
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case value.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case value.KindFloat:
		f, _ := v.AsFloat()

		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0" // keep an integral float a float on re-parse
		}

		return s
	case value.KindString:
		s, _ := v.AsString()
		return s
	default:
		return ""
	}
}

func escapePropertiesKey(k string) string {
	var sb strings.Builder

	for _, r := range k {
		switch r {
		case '=', ':', ' ', '\\', '#', '!':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

func escapePropertiesValue(v string) string {
	var sb strings.Builder

	for _, r := range v {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}
