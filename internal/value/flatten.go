package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedKey is returned by Unflatten when a dotted key implies a
// structural conflict — the same path segment used as both a scalar and
// a container — or carries a negative array index.
var ErrMalformedKey = errors.New("value: malformed dotted key")

// Flatten renders v as Spring's native dotted-key map: nested objects
// produce "a.b.c" keys, arrays produce "a[i]" keys (zero-based), and
// array elements that are themselves objects continue the dotted
// recursion after the index ("a[0].b"). Only genuine scalars appear as
// map entries; empty objects and arrays contribute nothing.
func Flatten(v Value) *OrderedMap {
	out := NewOrderedMap()
	flattenInto(out, "", v)

	return out
}

func flattenInto(out *OrderedMap, prefix string, v Value) {
	switch v.Kind() {
	case KindObject:
		obj, _ := v.AsObject()
		obj.Range(func(k string, child Value) bool {
			flattenInto(out, joinField(prefix, k), child)
			return true
		})
	case KindArray:
		arr, _ := v.AsArray()
		for i, child := range arr {
			flattenInto(out, joinIndex(prefix, i), child)
		}
	default:
		if prefix != "" {
			out.Set(prefix, v)
		}
	}
}

func joinField(prefix, field string) string {
	if prefix == "" {
		return field
	}

	return prefix + "." + field
}

func joinIndex(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}

// segment is one step of a parsed dotted key: either a field name or an
// array index.
type segment struct {
	field    string
	index    int
	isIndex  bool
	hadField bool // set on every field segment; parseKey never emits an empty field
}

// parseKey splits "a.b[2].c" into [field a][field b][index 2][field c].
func parseKey(key string) ([]segment, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrMalformedKey)
	}

	var segs []segment

	var field strings.Builder

	flushField := func() {
		if field.Len() > 0 {
			segs = append(segs, segment{field: field.String(), hadField: true})
			field.Reset()
		}
	}

	i := 0
	for i < len(key) {
		c := key[i]
		switch c {
		case '.':
			flushField()
			i++
		case '[':
			flushField()

			j := strings.IndexByte(key[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrMalformedKey, key)
			}

			idxStr := key[i+1 : i+j]

			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: bad array index in %q", ErrMalformedKey, key)
			}

			segs = append(segs, segment{index: idx, isIndex: true})
			i += j + 1
		default:
			field.WriteByte(c)
			i++
		}
	}

	flushField()

	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %q has no segments", ErrMalformedKey, key)
	}

	return segs, nil
}

// node is a mutable, in-progress tree used while unflattening; it is
// converted to an immutable Value once fully populated.
type node struct {
	leafSet bool
	leaf    Value

	objKeys []string
	objIdx  map[string]int
	objVals []*node

	arr []*node
}

func newObjNode() *node {
	return &node{objIdx: make(map[string]int)}
}

func (n *node) child(field string) (*node, error) {
	if n.leafSet {
		return nil, fmt.Errorf("%w: %q is both a value and a container", ErrMalformedKey, field)
	}

	if n.arr != nil {
		return nil, fmt.Errorf("%w: %q mixes array and object usage", ErrMalformedKey, field)
	}

	if n.objIdx == nil {
		n.objIdx = make(map[string]int)
	}

	if i, ok := n.objIdx[field]; ok {
		return n.objVals[i], nil
	}

	c := newObjNode()
	n.objIdx[field] = len(n.objKeys)
	n.objKeys = append(n.objKeys, field)
	n.objVals = append(n.objVals, c)

	return c, nil
}

func (n *node) index(i int) (*node, error) {
	if n.leafSet {
		return nil, fmt.Errorf("%w: index %d on a scalar value", ErrMalformedKey, i)
	}

	if n.objKeys != nil {
		return nil, fmt.Errorf("%w: index %d mixes array and object usage", ErrMalformedKey, i)
	}

	for len(n.arr) <= i {
		n.arr = append(n.arr, nil)
	}

	if n.arr[i] == nil {
		n.arr[i] = newObjNode()
	}

	return n.arr[i], nil
}

func (n *node) setLeaf(v Value) error {
	if n.objKeys != nil || n.arr != nil {
		return fmt.Errorf("%w: leaf assigned to an existing container", ErrMalformedKey)
	}

	n.leafSet = true
	n.leaf = v

	return nil
}

func (n *node) toValue() Value {
	switch {
	case n.leafSet:
		return n.leaf
	case n.arr != nil:
		items := make([]Value, len(n.arr))

		for i, c := range n.arr {
			if c == nil {
				items[i] = Null
				continue
			}

			items[i] = c.toValue()
		}

		return Array(items)
	default:
		m := NewOrderedMap()
		for i, k := range n.objKeys {
			m.Set(k, n.objVals[i].toValue())
		}

		return Object(m)
	}
}

// Unflatten is the inverse of Flatten: it walks each dotted key, creating
// intermediate objects and arrays, and fills skipped array indices with
// Null to preserve position. A key that reuses a prefix inconsistently
// (as both scalar and container, or array and object) fails with
// ErrMalformedKey.
func Unflatten(flat *OrderedMap) (Value, error) {
	root := newObjNode()

	var err error

	flat.Range(func(key string, v Value) bool {
		var segs []segment

		segs, err = parseKey(key)
		if err != nil {
			return false
		}

		cur := root

		for _, s := range segs[:len(segs)-1] {
			if s.isIndex {
				cur, err = cur.index(s.index)
			} else {
				cur, err = cur.child(s.field)
			}

			if err != nil {
				return false
			}
		}

		last := segs[len(segs)-1]
		if last.isIndex {
			var leafNode *node

			leafNode, err = cur.index(last.index)
			if err != nil {
				return false
			}

			err = leafNode.setLeaf(v)
		} else {
			var leafNode *node

			leafNode, err = cur.child(last.field)
			if err != nil {
				return false
			}

			err = leafNode.setLeaf(v)
		}

		return err == nil
	})

	if err != nil {
		return Value{}, err
	}

	return root.toValue(), nil
}
