package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueEqualScalars(t *testing.T) {
	assert.True(t, Int(8080).Equal(Int(8080)))
	assert.False(t, Int(8080).Equal(Int(8081)))
	assert.True(t, String("a").Equal(String("a")))
	assert.True(t, Bool(true).Equal(Bool(true)))
	assert.False(t, Int(1).Equal(Float(1)))
}

func TestValueEqualNaN(t *testing.T) {
	nan := Float(math.NaN())
	assert.True(t, nan.Equal(nan), "NaN must equal itself by bit-pattern for map/set use")
}

func TestValueEqualArraysAndObjects(t *testing.T) {
	a := Array([]Value{Int(1), String("x")})
	b := Array([]Value{Int(1), String("x")})
	c := Array([]Value{Int(1), String("y")})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	om1 := NewOrderedMap()
	om1.Set("a", Int(1))
	om1.Set("b", Int(2))

	om2 := NewOrderedMap()
	om2.Set("b", Int(2))
	om2.Set("a", Int(1))

	assert.True(t, Object(om1).Equal(Object(om2)), "object equality is key-set based, not order based")
}

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", Int(1))
	m.Set("a", Int(2))
	m.Set("m", Int(3))

	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

	m.Set("a", Int(99))
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys(), "re-setting a key keeps its original position")

	v, ok := m.Get("a")
	assert.True(t, ok)
	i, _ := v.AsInt()
	assert.Equal(t, int64(99), i)
}

func TestOrderedMapDeleteReindexes(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	m.Set("c", Int(3))

	m.Delete("b")
	assert.Equal(t, []string{"a", "c"}, m.Keys())
	assert.False(t, m.Has("b"))

	v, ok := m.Get("c")
	assert.True(t, ok)
	i, _ := v.AsInt()
	assert.Equal(t, int64(3), i)
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", Array([]Value{Int(1), Int(2)}))
	orig := Object(m)
	clone := orig.Clone()

	cm, _ := clone.AsObject()
	cm.Set("a", Int(0))

	om, _ := orig.AsObject()
	v, _ := om.Get("a")
	arr, ok := v.AsArray()
	assert.True(t, ok, "mutating the clone must not affect the original")
	assert.Len(t, arr, 2)
}
