package value

// OrderedMap is a string-keyed map that preserves insertion order. Every
// downstream invariant — stable JSON/YAML re-serialization, reproducible
// .properties output, deterministic diffs — depends on this ordering
// surviving parse, merge and emit unchanged.
type OrderedMap struct {
	keys []string
	idx  map[string]int
	vals []Value
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{idx: make(map[string]int)}
}

// Set inserts or updates k. Existing keys keep their original position.
func (m *OrderedMap) Set(k string, v Value) {
	if i, ok := m.idx[k]; ok {
		m.vals[i] = v
		return
	}

	m.idx[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

func (m *OrderedMap) Get(k string) (Value, bool) {
	i, ok := m.idx[k]
	if !ok {
		return Value{}, false
	}

	return m.vals[i], true
}

func (m *OrderedMap) Has(k string) bool {
	_, ok := m.idx[k]
	return ok
}

func (m *OrderedMap) Delete(k string) {
	i, ok := m.idx[k]
	if !ok {
		return
	}

	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	delete(m.idx, k)

	for j := i; j < len(m.keys); j++ {
		m.idx[m.keys[j]] = j
	}
}

func (m *OrderedMap) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. Callers must not mutate the
// returned slice.
func (m *OrderedMap) Keys() []string { return m.keys }

// Range visits entries in insertion order, stopping early if fn returns
// false.
func (m *OrderedMap) Range(fn func(key string, v Value) bool) {
	for i, k := range m.keys {
		if !fn(k, m.vals[i]) {
			return
		}
	}
}

func (m *OrderedMap) Clone() *OrderedMap {
	cp := NewOrderedMap()
	m.Range(func(k string, v Value) bool {
		cp.Set(k, v.Clone())
		return true
	})

	return cp
}

func (m *OrderedMap) Equal(o *OrderedMap) bool {
	if m.Len() != o.Len() {
		return false
	}

	var mismatch bool

	m.Range(func(k string, v Value) bool {
		ov, ok := o.Get(k)
		if !ok || !v.Equal(ov) {
			mismatch = true
			return false
		}

		return true
	})

	return !mismatch
}
