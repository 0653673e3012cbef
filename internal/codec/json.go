package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cburgosro9303/vortex-config/internal/value"
)

// JSON implements Codec for application/json. It round-trips object key
// order, which encoding/json's map-based decoding does not preserve on
// its own — we drive the stdlib tokenizer by hand instead of unmarshaling
// into map[string]any, and classify numbers as integer or floating point
// by presence of a fractional or exponent component, matching the Spring
// JSON wire shape this server must reproduce byte-for-byte in structure.
type JSON struct{}

func (JSON) Parse(data []byte) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return value.Value{}, fmt.Errorf("codec: json parse: %w", err)
	}

	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return value.Value{}, err
	}

	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (value.Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := value.NewOrderedMap()

			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return value.Value{}, err
				}

				key, ok := keyTok.(string)
				if !ok {
					return value.Value{}, fmt.Errorf("json object key is not a string: %v", keyTok)
				}

				v, err := decodeJSONValue(dec)
				if err != nil {
					return value.Value{}, err
				}

				m.Set(key, v)
			}

			if _, err := dec.Token(); err != nil { // consume '}'
				return value.Value{}, err
			}

			return value.Object(m), nil
		case '[':
			var items []value.Value

			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return value.Value{}, err
				}

				items = append(items, v)
			}

			if _, err := dec.Token(); err != nil { // consume ']'
				return value.Value{}, err
			}

			return value.Array(items), nil
		default:
			return value.Value{}, fmt.Errorf("unexpected json delimiter %v", t)
		}
	case json.Number:
		s := string(t)
		if strings.ContainsAny(s, ".eE") {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return value.Value{}, err
			}

			return value.Float(f), nil
		}

		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return value.Value{}, err
			}

			return value.Float(f), nil
		}

		return value.Int(i), nil
	case string:
		return value.String(t), nil
	case bool:
		return value.Bool(t), nil
	case nil:
		return value.Null, nil
	default:
		return value.Value{}, fmt.Errorf("unexpected json token type %T", t)
	}
}

func (JSON) Emit(v value.Value) ([]byte, error) {
	var buf bytes.Buffer

	if err := encodeJSONValue(&buf, v); err != nil {
		return nil, fmt.Errorf("codec: json emit: %w", err)
	}

	return buf.Bytes(), nil
}

func encodeJSONValue(buf *bytes.Buffer, v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		buf.WriteString("null")
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case value.KindInt:
		i, _ := v.AsInt()
		buf.WriteString(strconv.FormatInt(i, 10))
	case value.KindFloat:
		f, _ := v.AsFloat()

		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0" // keep an integral float a float on re-parse
		}

		buf.WriteString(s)
	case value.KindString:
		s, _ := v.AsString()

		enc, err := json.Marshal(s)
		if err != nil {
			return err
		}

		buf.Write(enc)
	case value.KindArray:
		arr, _ := v.AsArray()

		buf.WriteByte('[')

		for i, item := range arr {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := encodeJSONValue(buf, item); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case value.KindObject:
		obj, _ := v.AsObject()

		buf.WriteByte('{')

		first := true

		var encErr error

		obj.Range(func(k string, child value.Value) bool {
			if !first {
				buf.WriteByte(',')
			}

			first = false

			keyEnc, err := json.Marshal(k)
			if err != nil {
				encErr = err
				return false
			}

			buf.Write(keyEnc)
			buf.WriteByte(':')

			if err := encodeJSONValue(buf, child); err != nil {
				encErr = err
				return false
			}

			return true
		})

		if encErr != nil {
			return encErr
		}

		buf.WriteByte('}')
	}

	return nil
}
