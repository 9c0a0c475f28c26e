package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_ValueScan(t *testing.T) {
	original := Metadata{"camera": "X100", "iso": 200, "flash": false, "note": nil}

	value, err := original.Value()
	require.NoError(t, err)

	var decoded Metadata
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, "X100", decoded["camera"])
	assert.EqualValues(t, 200, decoded["iso"])
	assert.Equal(t, false, decoded["flash"])
	assert.Contains(t, decoded, "note")

	require.NoError(t, decoded.Scan([]byte(`{"a":"b"}`)))
	assert.Equal(t, Metadata{"a": "b"}, decoded)
}

func TestMetadata_ValueKeepsTextVerbatim(t *testing.T) {
	value, err := Metadata{"title": "Tom & Jerry <3", "place": "Écosse"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"place":"Écosse","title":"Tom & Jerry <3"}`, value)
}

func TestMetadata_NilAndEmpty(t *testing.T) {
	var m Metadata
	value, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", value)

	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)
	assert.Empty(t, m)

	require.NoError(t, m.Scan(""))
	assert.Empty(t, m)

	assert.Error(t, m.Scan(42))
	assert.Error(t, m.Scan("not json"))
}

func TestMetadata_Validate(t *testing.T) {
	assert.NoError(t, Metadata{"s": "x", "n": 1.5, "b": true, "z": nil}.Validate())
	assert.Error(t, Metadata{"": "x"}.Validate())
	assert.Error(t, Metadata{"list": []string{"a"}}.Validate())
	assert.Error(t, Metadata{"map": map[string]any{}}.Validate())
}

func TestMetadata_StringAndMerge(t *testing.T) {
	m := Metadata{"title": "Cat", "rating": 4.0}

	title, ok := m.String("title")
	assert.True(t, ok)
	assert.Equal(t, "Cat", title)

	rating, ok := m.String("rating")
	assert.True(t, ok)
	assert.Equal(t, "4", rating)

	_, ok = m.String("missing")
	assert.False(t, ok)

	merged := m.Merge(Metadata{"rating": 5.0, "place": "Lisbon"})
	assert.Equal(t, Metadata{"title": "Cat", "rating": 5.0, "place": "Lisbon"}, merged)
	assert.Equal(t, 4.0, m["rating"], "merge must not modify the receiver")
}
