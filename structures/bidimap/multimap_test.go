package bidimap

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestMultiMap_AddValues(t *testing.T) {
	m := new(MultiMap[int, string])
	assert.Nil(t, m.GetValues(1))
	assert.Empty(t, m.GetValues(1))

	m.AddValues(1, "a", "b", "c")
	values := m.GetValues(1)
	assert.NotNil(t, values)
	assert.Len(t, values, 3)
	assert.Contains(t, values, "a")
	assert.Contains(t, values, "b")
	assert.Contains(t, values, "c")

	for _, value := range values {
		keys := m.GetKeys(value)
		assert.Len(t, keys, 1)
		assert.Equal(t, 1, keys[0])
	}
}

func TestMultiMap_AddKeys(t *testing.T) {
	m := new(MultiMap[int, string])
	assert.Nil(t, m.GetKeys("1"))
	assert.Empty(t, m.GetKeys("1"))

	m.AddKeys("1", 1, 2, 3)
	keys := m.GetKeys("1")
	assert.NotNil(t, keys)
	assert.Len(t, keys, 3)
	assert.Contains(t, keys, 1)
	assert.Contains(t, keys, 2)
	assert.Contains(t, keys, 3)

	for _, key := range keys {
		values := m.GetValues(key)
		assert.Len(t, values, 1)
		assert.Equal(t, "1", values[0])
	}
}

func TestMultiMap_Remove(t *testing.T) {
	m := NewMulti[string, int]()
	assert.True(t, m.Add("handler", 1))
	assert.False(t, m.Add("handler", 1), "Duplicate associations are not added")
	assert.True(t, m.Add("handler", 2))
	assert.True(t, m.Add("other", 2))
	assert.True(t, m.Has("handler", 2))

	assert.True(t, m.Remove("handler", 2))
	assert.False(t, m.Remove("handler", 2), "Already removed")
	assert.False(t, m.Has("handler", 2))
	assert.Equal(t, []string{"other"}, m.GetKeys(2))
	assert.Equal(t, []int{1}, m.GetValues("handler"))

	assert.Equal(t, []int{1}, m.RemoveKey("handler"))
	assert.False(t, m.HasKey("handler"))
	assert.False(t, m.HasValue(1), "Values without associations are removed")
	assert.Equal(t, 1, m.KeyLen())

	assert.Equal(t, []string{"other"}, m.RemoveValue(2))
	assert.Equal(t, 0, m.KeyLen())
}

func TestMultiMap_Clear(t *testing.T) {
	m := new(MultiMap[int, int])
	m.AddValues(1, 2, 3)
	m.AddKeys(4, 5, 6)
	assert.Equal(t, 3, m.KeyLen())
	m.Clear()
	assert.Equal(t, 0, m.KeyLen())
	assert.Empty(t, m.GetValues(1))
	assert.Nil(t, m.GetValueSet(1).Slice())
}
