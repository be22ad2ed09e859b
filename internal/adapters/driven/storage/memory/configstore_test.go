package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStoreGetSet(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)

	require.NoError(t, store.Set("key", "value"))
	val, ok := store.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", val)
}

func TestConfigStoreTypedGetters(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("str", "hello"))
	require.NoError(t, store.Set("int", 42))
	require.NoError(t, store.Set("int64", int64(43)))
	require.NoError(t, store.Set("floatint", float64(44)))
	require.NoError(t, store.Set("float", 0.25))
	require.NoError(t, store.Set("bool", true))
	require.NoError(t, store.Set("slice", []string{"a", "b"}))
	require.NoError(t, store.Set("anyslice", []any{"c", "d"}))

	assert.Equal(t, "hello", store.GetString("str"))
	assert.Equal(t, "", store.GetString("int"))
	assert.Equal(t, "", store.GetString("missing"))

	assert.Equal(t, 42, store.GetInt("int"))
	assert.Equal(t, 43, store.GetInt("int64"))
	assert.Equal(t, 44, store.GetInt("floatint"))
	assert.Equal(t, 0, store.GetInt("str"))

	assert.Equal(t, 0.25, store.GetFloat("float"))
	assert.Equal(t, 42.0, store.GetFloat("int"))
	assert.Equal(t, 0.0, store.GetFloat("str"))

	assert.True(t, store.GetBool("bool"))
	assert.False(t, store.GetBool("str"))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("slice"))
	assert.Equal(t, []string{"c", "d"}, store.GetStringSlice("anyslice"))
	assert.Nil(t, store.GetStringSlice("str"))
}

func TestConfigStoreNoopPersistence(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}
