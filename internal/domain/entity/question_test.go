package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_IsValidOption(t *testing.T) {
	q := &Question{
		Text:    "Столица Казахстана?",
		Options: StringArray{"Алматы", "Астана", "Шымкент", "Караганда"},
	}

	assert.True(t, q.IsValidOption(0))
	assert.True(t, q.IsValidOption(3))
	assert.False(t, q.IsValidOption(-1))
	assert.False(t, q.IsValidOption(4))
}

func TestStringArray_ScanValue(t *testing.T) {
	t.Run("Scan из JSONB", func(t *testing.T) {
		var arr StringArray
		err := arr.Scan([]byte(`["a","b","c"]`))
		require.NoError(t, err)
		assert.Equal(t, StringArray{"a", "b", "c"}, arr)
	})

	t.Run("Scan nil дает пустой массив", func(t *testing.T) {
		var arr StringArray
		err := arr.Scan(nil)
		require.NoError(t, err)
		assert.Empty(t, arr)
	})

	t.Run("Value пустого массива дает JSON-массив, не null", func(t *testing.T) {
		var arr StringArray
		v, err := arr.Value()
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), v)
	})
}
