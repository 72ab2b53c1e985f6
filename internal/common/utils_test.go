package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		in      string
		want    []int64
		wantErr bool
	}{
		{"", nil, false},
		{"1", []int64{1}, false},
		{" 1, 2 ,,3", []int64{1, 2, 3}, false},
		{"1,x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIDs(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterResultFields(t *testing.T) {
	v := struct {
		Slug  string `json:"slug"`
		Title string `json:"title"`
		Count int    `json:"count"`
	}{"buttons", "Buttons", 3}

	got := FilterResultFields(v, "slug, count")
	assert.Equal(t, map[string]any{"slug": "buttons", "count": float64(3)}, got)

	assert.Len(t, FilterResultFields(v, ""), 3)
}

func TestPrint(t *testing.T) {
	v := map[string]any{"verb": "search", "count": 2}

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, "yaml", v))
	assert.Equal(t, "count: 2\nverb: search\n", buf.String())

	buf.Reset()
	require.NoError(t, Print(&buf, "json", v))
	assert.JSONEq(t, `{"verb":"search","count":2}`, buf.String())

	assert.Error(t, Print(&buf, "xml", v))
}
