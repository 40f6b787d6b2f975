package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantSize  int
		expectErr bool
	}{
		{name: "defaults", query: "", wantPage: 1, wantSize: 50},
		{name: "explicit", query: "?page=3&page_size=20", wantPage: 3, wantSize: 20},
		{name: "max page size", query: "?page_size=100", wantPage: 1, wantSize: 100},
		{name: "page zero", query: "?page=0", expectErr: true},
		{name: "negative page", query: "?page=-1", expectErr: true},
		{name: "oversized page", query: "?page_size=101", expectErr: true},
		{name: "non-numeric", query: "?page=abc", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/expenses"+tt.query, nil)
			p, err := ParsePage(r)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, p.Number)
			assert.Equal(t, tt.wantSize, p.Size)
		})
	}
}

func TestPageMath(t *testing.T) {
	p := Page{Number: 3, Size: 20}
	assert.Equal(t, 40, p.Offset())

	tests := []struct {
		total int
		want  int
	}{
		{total: 0, want: 0},
		{total: 1, want: 1},
		{total: 20, want: 1},
		{total: 21, want: 2},
		{total: 100, want: 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.TotalPages(tt.total), "total=%d", tt.total)
	}
}

func TestParseDateRange(t *testing.T) {
	t.Run("both bounds", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x?start_date=2026-01-01T00:00:00Z&end_date=2026-02-01T00:00:00Z", nil)
		dr, err := ParseDateRange(r)
		require.NoError(t, err)
		require.NotNil(t, dr.Start)
		require.NotNil(t, dr.End)
		assert.True(t, dr.Start.Before(*dr.End))
	})

	t.Run("unbounded", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x", nil)
		dr, err := ParseDateRange(r)
		require.NoError(t, err)
		assert.Nil(t, dr.Start)
		assert.Nil(t, dr.End)
	})

	t.Run("bad format", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x?start_date=01/02/2026", nil)
		_, err := ParseDateRange(r)
		assert.Error(t, err)
	})
}
