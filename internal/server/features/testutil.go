// Package features provides shared test fixtures for the API feature
// packages.
package features

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/store"
)

// MemStore is an in-memory store.Store used by handler tests.
type MemStore struct {
	mu       sync.Mutex
	expenses map[uuid.UUID]*store.Expense
	users    map[uuid.UUID]*store.User

	// FailWith, when set, makes every operation return this error.
	FailWith error
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		expenses: make(map[uuid.UUID]*store.Expense),
		users:    make(map[uuid.UUID]*store.User),
	}
}

// Seed inserts an expense directly, bypassing validation.
func (m *MemStore) Seed(exp *store.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *exp
	m.expenses[exp.ID] = &cp
}

func (m *MemStore) CreateExpense(_ context.Context, userID uuid.UUID, in store.ExpenseInput) (*store.Expense, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	exp := &store.Expense{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       in.Title,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		ExpenseDate: in.ExpenseDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if exp.ExpenseDate.IsZero() {
		exp.ExpenseDate = now
	}
	m.expenses[exp.ID] = exp
	cp := *exp
	return &cp, nil
}

func (m *MemStore) GetExpense(_ context.Context, userID, id uuid.UUID) (*store.Expense, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.expenses[id]
	if !ok || exp.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *exp
	return &cp, nil
}

func (m *MemStore) ListExpenses(_ context.Context, userID uuid.UUID, f store.ExpenseFilter) ([]*store.Expense, int, error) {
	if m.FailWith != nil {
		return nil, 0, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := m.matching(userID, f.Category, f.Range, f.Search)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ExpenseDate.After(matched[j].ExpenseDate)
	})

	total := len(matched)
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	start := f.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := make([]*store.Expense, 0, end-start)
	for _, exp := range matched[start:end] {
		cp := *exp
		page = append(page, &cp)
	}
	return page, total, nil
}

func (m *MemStore) UpdateExpense(_ context.Context, userID, id uuid.UUID, upd store.ExpenseUpdate) (*store.Expense, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.expenses[id]
	if !ok || exp.UserID != userID {
		return nil, store.ErrNotFound
	}

	if upd.Title != nil {
		exp.Title = *upd.Title
	}
	if upd.Amount != nil {
		exp.Amount = *upd.Amount
	}
	if upd.Category != nil {
		exp.Category = *upd.Category
	}
	if upd.Description != nil {
		exp.Description = *upd.Description
	}
	if upd.ExpenseDate != nil {
		exp.ExpenseDate = *upd.ExpenseDate
	}
	exp.UpdatedAt = time.Now().UTC()

	cp := *exp
	return &cp, nil
}

func (m *MemStore) DeleteExpense(_ context.Context, userID, id uuid.UUID) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.expenses[id]
	if !ok || exp.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *MemStore) SpendingByCategory(_ context.Context, userID uuid.UUID, r store.DateRange) ([]store.CategorySpending, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	totals := map[store.Category]*store.CategorySpending{}
	for _, exp := range m.matching(userID, nil, r, "") {
		cs, ok := totals[exp.Category]
		if !ok {
			cs = &store.CategorySpending{Category: exp.Category}
			totals[exp.Category] = cs
		}
		cs.Total += exp.Amount
		cs.Count++
	}

	result := make([]store.CategorySpending, 0, len(totals))
	for _, cs := range totals {
		result = append(result, *cs)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Total > result[j].Total })
	return result, nil
}

func (m *MemStore) SpendingSummary(ctx context.Context, userID uuid.UUID, r store.DateRange) (*store.SpendingSummary, error) {
	breakdown, err := m.SpendingByCategory(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	summary := &store.SpendingSummary{Breakdown: breakdown, Start: r.Start, End: r.End}
	for _, cs := range breakdown {
		summary.Total += cs.Total
		summary.Count += cs.Count
	}
	return summary, nil
}

func (m *MemStore) MonthlyStatistics(_ context.Context, userID uuid.UUID, year, month int) (*store.MonthlyStatistics, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &store.MonthlyStatistics{Period: fmt.Sprintf("%d-%02d", year, month)}
	categoryTotals := map[store.Category]float64{}

	for _, exp := range m.expenses {
		if exp.UserID != userID {
			continue
		}
		d := exp.ExpenseDate.UTC()
		if d.Year() != year || int(d.Month()) != month {
			continue
		}
		stats.Total += exp.Amount
		stats.Count++
		categoryTotals[exp.Category] += exp.Amount
	}

	if stats.Count > 0 {
		stats.Average = stats.Total / float64(stats.Count)
		var top store.Category
		var topAmount float64
		for c, total := range categoryTotals {
			if total > topAmount {
				top, topAmount = c, total
			}
		}
		stats.TopCategory = &top
		stats.TopAmount = &topAmount
	}

	return stats, nil
}

func (m *MemStore) SpendingSeries(_ context.Context, userID uuid.UUID, period store.Period, limit int) ([]store.SeriesPoint, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	if !period.Valid() {
		return nil, fmt.Errorf("invalid period: %s", period)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 12
	}

	layout := "2006-01-02"
	switch period {
	case store.PeriodMonth:
		layout = "2006-01"
	case store.PeriodYear:
		layout = "2006"
	}

	buckets := map[string]*store.SeriesPoint{}
	for _, exp := range m.expenses {
		if exp.UserID != userID {
			continue
		}
		label := exp.ExpenseDate.UTC().Format(layout)
		p, ok := buckets[label]
		if !ok {
			p = &store.SeriesPoint{Period: label}
			buckets[label] = p
		}
		p.Total += exp.Amount
		p.Count++
	}

	points := make([]store.SeriesPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

func (m *MemStore) CreateUser(_ context.Context, email, name string) (*store.User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u := &store.User{ID: uuid.New(), Email: email, Name: name, CreatedAt: time.Now().UTC()}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *MemStore) GetUser(_ context.Context, id uuid.UUID) (*store.User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// matching applies the shared list/analytics filters. Caller holds mu.
func (m *MemStore) matching(userID uuid.UUID, category *store.Category, r store.DateRange, search string) []*store.Expense {
	var matched []*store.Expense
	for _, exp := range m.expenses {
		if exp.UserID != userID {
			continue
		}
		if category != nil && exp.Category != *category {
			continue
		}
		if r.Start != nil && exp.ExpenseDate.Before(*r.Start) {
			continue
		}
		if r.End != nil && exp.ExpenseDate.After(*r.End) {
			continue
		}
		if search != "" {
			s := strings.ToLower(search)
			if !strings.Contains(strings.ToLower(exp.Title), s) &&
				!strings.Contains(strings.ToLower(exp.Description), s) {
				continue
			}
		}
		matched = append(matched, exp)
	}
	return matched
}

// AuthedRequest builds a request carrying verified claims for userID,
// as if it had passed through the auth middleware.
func AuthedRequest(method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	r := httptest.NewRequest(method, target, body)
	claims := &auth.Claims{UserID: userID, JTI: uuid.New().String()}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}
