package codec

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cburgosro9303/vortex-config/internal/value"
)

// YAML implements Codec for application/x-yaml. Parsing drives
// gopkg.in/yaml.v3's Node API directly rather than unmarshaling into
// map[string]any, because only the Node tree preserves mapping key order
// and materializes anchors/aliases — both required invariants. Flow and
// block styles decode to the same Node kinds, so both are accepted
// transparently.
type YAML struct{}

func (YAML) Parse(data []byte) (value.Value, error) {
	if len(data) == 0 {
		return value.Object(value.NewOrderedMap()), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return value.Value{}, fmt.Errorf("codec: yaml parse: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return value.Object(value.NewOrderedMap()), nil
	}

	v, err := yamlNodeToValue(doc.Content[0])
	if err != nil {
		return value.Value{}, fmt.Errorf("codec: yaml parse: %w", err)
	}

	return v, nil
}

func yamlNodeToValue(n *yaml.Node) (value.Value, error) {
	// Aliases must be materialized, not left as references.
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	switch n.Kind {
	case yaml.MappingNode:
		m := value.NewOrderedMap()

		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			for keyNode.Kind == yaml.AliasNode && keyNode.Alias != nil {
				keyNode = keyNode.Alias
			}

			v, err := yamlNodeToValue(n.Content[i+1])
			if err != nil {
				return value.Value{}, err
			}

			m.Set(keyNode.Value, v)
		}

		return value.Object(m), nil
	case yaml.SequenceNode:
		items := make([]value.Value, 0, len(n.Content))

		for _, c := range n.Content {
			v, err := yamlNodeToValue(c)
			if err != nil {
				return value.Value{}, err
			}

			items = append(items, v)
		}

		return value.Array(items), nil
	case yaml.ScalarNode:
		return yamlScalarToValue(n), nil
	default:
		return value.Null, nil
	}
}

func yamlScalarToValue(n *yaml.Node) value.Value {
	switch n.Tag {
	case "!!null":
		return value.Null
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return value.String(n.Value)
		}

		return value.Bool(b)
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(n.Value, 64)
			if ferr != nil {
				return value.String(n.Value)
			}

			return value.Float(f)
		}

		return value.Int(i)
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return value.String(n.Value)
		}

		return value.Float(f)
	default:
		return value.String(n.Value)
	}
}

func (YAML) Emit(v value.Value) ([]byte, error) {
	node := valueToYAMLNode(v)

	out, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("codec: yaml emit: %w", err)
	}

	return out, nil
}

func valueToYAMLNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.KindBool:
		b, _ := v.AsBool()

		s := "false"
		if b {
			s = "true"
		}

		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}
	case value.KindInt:
		i, _ := v.AsInt()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(i, 10)}
	case value.KindFloat:
		f, _ := v.AsFloat()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
	case value.KindString:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case value.KindArray:
		arr, _ := v.AsArray()
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

		for _, item := range arr {
			n.Content = append(n.Content, valueToYAMLNode(item))
		}

		return n
	case value.KindObject:
		obj, _ := v.AsObject()
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

		obj.Range(func(k string, child value.Value) bool {
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k})
			n.Content = append(n.Content, valueToYAMLNode(child))

			return true
		})

		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
