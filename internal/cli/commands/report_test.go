package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerline/expensed/internal/store"
)

func TestRenderReport(t *testing.T) {
	user := &store.User{Email: "ada@example.com", Name: "Ada"}

	t.Run("with expenses", func(t *testing.T) {
		top := store.CategoryFood
		topAmount := 180.75
		stats := &store.MonthlyStatistics{
			Period:      "2026-08",
			Total:       225.75,
			Average:     75.25,
			Count:       3,
			TopCategory: &top,
			TopAmount:   &topAmount,
		}

		html := renderReport(user, stats)
		assert.Contains(t, html, "2026-08")
		assert.Contains(t, html, "Hi Ada,")
		assert.Contains(t, html, "3 expenses")
		assert.Contains(t, html, "225.75")
		assert.Contains(t, html, "Food")
	})

	t.Run("empty month", func(t *testing.T) {
		stats := &store.MonthlyStatistics{Period: "2026-02"}

		html := renderReport(user, stats)
		assert.Contains(t, html, "No expenses were recorded")
	})

	t.Run("falls back to email when name is empty", func(t *testing.T) {
		anon := &store.User{Email: "ada@example.com"}
		html := renderReport(anon, &store.MonthlyStatistics{Period: "2026-02"})
		assert.Contains(t, html, "ada@example.com")
	})
}
