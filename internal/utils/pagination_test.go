package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		wantPage    int
		wantLimit   int
		wantOffset  int
	}{
		{"defaults for zero", 0, 0, 1, 10, 0},
		{"negative page clamps", -3, 5, 1, 5, 0},
		{"negative limit clamps to one", 2, -1, 2, 1, 1},
		{"limit capped", 1, 500, 1, 100, 0},
		{"offset follows page", 3, 10, 3, 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPaginationParams(tt.page, tt.limit, 10)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}

func TestParsePaginationParams(t *testing.T) {
	got := ParsePaginationParams("abc", "", 20)
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20, Offset: 0}, got)

	got = ParsePaginationParams("0", "0", 10)
	assert.Equal(t, ParsePaginationParams("1", "10", 10), got)

	got = ParsePaginationParams("4", "x", 10)
	assert.Equal(t, PaginationParams{Page: 4, Limit: 10, Offset: 30}, got)
}
