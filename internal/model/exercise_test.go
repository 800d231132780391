package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_ValueKeepsOrder(t *testing.T) {
	v, err := StringList{"step one", "step two", "step three"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["step one","step two","step three"]`, v)
}

func TestStringList_NilValueIsEmptyArray(t *testing.T) {
	var l StringList
	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestStringList_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want StringList
	}{
		{"string", `["glutes","hamstrings"]`, StringList{"glutes", "hamstrings"}},
		{"bytes", []byte(`["lats"]`), StringList{"lats"}},
		{"null column", nil, StringList{}},
		{"json null", "null", StringList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringList
			require.NoError(t, got.Scan(tt.src))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringList_ScanRejectsGarbage(t *testing.T) {
	var l StringList
	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("not json"))
}
