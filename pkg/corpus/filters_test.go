package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    string
		wantWhere string
		wantArgs  []any
	}{
		{"empty", "", "1=1", nil},
		{"boolean", "has_code", "d.has_code_examples = 1", nil},
		{"number", "quality_score>=0.8", "d.quality_score >= ?", []any{0.8}},
		{"spaced operator", "quality_score >= 0.8", "d.quality_score >= ?", []any{0.8}},
		{
			"joined", "category=components and quality_score<0.5",
			"(d.category = ? COLLATE NOCASE) AND (d.quality_score < ?)",
			[]any{"components", 0.5},
		},
		{"or inside value", "title~sign in or out", "d.title LIKE ?", []any{"%sign in or out%"}},
		{"and inside value", "title~drag and drop", "d.title LIKE ?", []any{"%drag and drop%"}},
		{
			"value then term", "title~drag and drop OR has_images",
			"(d.title LIKE ?) OR (d.has_images = 1)",
			[]any{"%drag and drop%"},
		},
		{"leftmost operator", "title~a=b", "d.title LIKE ?", []any{"%a=b%"}},
		{"not equal", "category!=patterns", "d.category != ? COLLATE NOCASE", []any{"patterns"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWhere, got.WhereClause)
			assert.Equal(t, tt.wantArgs, got.Args)
		})
	}
}

func TestParseFilterErrors(t *testing.T) {
	tests := []struct {
		filter  string
		wantErr string
	}{
		{"has_code AND valid OR has_images", "cannot mix"},
		{"has_code AND", "invalid field"},
		{"!valid", "invalid filter syntax"},
		{"nope=1", "invalid field"},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			_, err := ParseFilter(tt.filter)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
