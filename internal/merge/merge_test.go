package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cburgosro9303/vortex-config/internal/source"
	"github.com/cburgosro9303/vortex-config/internal/value"
)

func obj(pairs ...any) value.Value {
	m := value.NewOrderedMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}

	return value.Object(m)
}

func TestDeepMergeRecursesObjectsReplacesArrays(t *testing.T) {
	low := obj("database", obj("pool", obj("size", value.Int(10))), "flags", value.Array([]value.Value{value.String("a")}))
	high := obj("database", obj("pool", obj("timeout", value.Int(5))), "flags", value.Array([]value.Value{value.String("c")}))

	merged := Deep(low, high)

	flat := value.Flatten(merged)

	size, ok := flat.Get("database.pool.size")
	require.True(t, ok)
	i, _ := size.AsInt()
	assert.Equal(t, int64(10), i, "deep merge keeps untouched nested keys from low")

	timeout, ok := flat.Get("database.pool.timeout")
	require.True(t, ok)
	i, _ = timeout.AsInt()
	assert.Equal(t, int64(5), i)

	f0, ok := flat.Get("flags[0]")
	require.True(t, ok)
	s, _ := f0.AsString()
	assert.Equal(t, "c", s, "arrays are replaced wholesale, not concatenated")

	_, ok = flat.Get("flags[1]")
	assert.False(t, ok)
}

func TestOverrideReplacesWholesale(t *testing.T) {
	low := obj("a", value.Int(1), "b", value.Int(2))
	high := obj("a", value.Int(9))

	merged := Override(low, high)
	flat := value.Flatten(merged)

	_, ok := flat.Get("b")
	assert.False(t, ok, "override discards everything not present on the right operand")
}

func TestDeepMergeExplicitNullInHighReplacesLowValue(t *testing.T) {
	low := obj("feature", obj("enabled", value.Bool(true)))
	high := obj("feature", obj("enabled", value.Null))

	merged := Deep(low, high)
	flat := value.Flatten(merged)

	v, ok := flat.Get("feature.enabled")
	require.True(t, ok, "an explicit null in the high-priority source is still a present key")
	assert.True(t, v.IsNull(), "a present-but-null key in the high source wins wholesale, not the low value")
}

func TestDeepMergeIsAssociative(t *testing.T) {
	a := obj("x", obj("y", value.Int(1)))
	b := obj("x", obj("z", value.Int(2)), "w", value.Int(3))
	c := obj("x", obj("y", value.Int(99)), "w", value.Int(4))

	left := Deep(Deep(a, b), c)
	right := Deep(a, Deep(b, c))

	assert.True(t, left.Equal(right))
}

func TestSourcesComposesLowestToHighest(t *testing.T) {
	list := source.PropertySourceList{
		{Name: "high", Properties: func() *value.OrderedMap {
			m := value.NewOrderedMap()
			m.Set("k", value.String("from-high"))
			return m
		}()},
		{Name: "low", Properties: func() *value.OrderedMap {
			m := value.NewOrderedMap()
			m.Set("k", value.String("from-low"))
			m.Set("only-low", value.String("kept"))
			return m
		}()},
	}

	merged := Sources(list)
	flat := value.Flatten(merged)

	k, ok := flat.Get("k")
	require.True(t, ok)
	s, _ := k.AsString()
	assert.Equal(t, "from-high", s)

	_, ok = flat.Get("only-low")
	assert.True(t, ok)
}

func TestFlatLookupReturnsFirstHitInPriorityOrder(t *testing.T) {
	high := value.NewOrderedMap()
	high.Set("server", obj("port", value.Int(8080)))

	low := value.NewOrderedMap()
	low.Set("server", obj("port", value.Int(8000)))
	low.Set("database", obj("pool", obj("size", value.Int(20))))

	list := source.PropertySourceList{
		{Name: "git:main:myapp-production.yml", Properties: high},
		{Name: "git:main:application.yml", Properties: low},
	}

	v, ok := FlatLookup(list, "server.port")
	require.True(t, ok)
	i, _ := v.AsInt()
	assert.Equal(t, int64(8080), i)

	v, ok = FlatLookup(list, "database.pool.size")
	require.True(t, ok)
	i, _ = v.AsInt()
	assert.Equal(t, int64(20), i)

	_, ok = FlatLookup(list, "missing.key")
	assert.False(t, ok)
}
