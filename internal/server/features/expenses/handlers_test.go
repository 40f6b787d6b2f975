package expenses

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/server/features"
	"github.com/ledgerline/expensed/internal/store"
	"github.com/ledgerline/expensed/internal/testutil"
)

func setupRouter(t *testing.T, st store.Store) chi.Router {
	t.Helper()
	return setupRouterWithCache(t, st, cache.Noop{})
}

func setupRouterWithCache(t *testing.T, st store.Store, c cache.Cache) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/expenses", func(er chi.Router) {
		SetupRoutes(er, st, c, testutil.NewTestLogger(t))
	})
	return r
}

func seedExpense(mem *features.MemStore, userID uuid.UUID, title string, amount float64, category store.Category, date time.Time) *store.Expense {
	exp := &store.Expense{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Amount:      amount,
		Category:    category,
		ExpenseDate: date,
		CreatedAt:   date,
		UpdatedAt:   date,
	}
	mem.Seed(exp)
	return exp
}

func TestCreateExpense(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   []string
	}{
		{
			name:       "valid expense",
			body:       `{"title":"Grocery Shopping","amount":45.5,"category":"Food","description":"weekly"}`,
			wantStatus: http.StatusCreated,
			wantBody:   []string{"Expense created successfully", "Grocery Shopping", `"status":"success"`},
		},
		{
			name:       "missing title",
			body:       `{"amount":45.5,"category":"Food"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"title"},
		},
		{
			name:       "non-positive amount",
			body:       `{"title":"x","amount":0,"category":"Food"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"amount must be positive"},
		},
		{
			name:       "unknown category",
			body:       `{"title":"x","amount":5,"category":"Gambling"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"unknown category"},
		},
		{
			name:       "oversized description",
			body:       fmt.Sprintf(`{"title":"x","amount":5,"category":"Food","description":"%s"}`, strings.Repeat("d", 501)),
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"description"},
		},
		{
			name:       "malformed json",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"invalid request body"},
		},
		{
			name:       "unknown field rejected",
			body:       `{"title":"x","amount":5,"category":"Food","amont":5}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"invalid request body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(t, features.NewMemStore())
			req := features.AuthedRequest(http.MethodPost, "/expenses/", strings.NewReader(tt.body), userID)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestCreateExpenseDefaultsDate(t *testing.T) {
	mem := features.NewMemStore()
	router := setupRouter(t, mem)
	userID := uuid.New()

	req := features.AuthedRequest(http.MethodPost, "/expenses/",
		strings.NewReader(`{"title":"Coffee","amount":4.2,"category":"Food"}`), userID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Expense store.Expense `json:"expense"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.WithinDuration(t, time.Now().UTC(), resp.Expense.ExpenseDate, time.Minute)
	assert.Equal(t, userID, resp.Expense.UserID)
}

func TestListExpenses(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	newStore := func() *features.MemStore {
		mem := features.NewMemStore()
		seedExpense(mem, userID, "Rent August", 1200, store.CategoryRent, base)
		seedExpense(mem, userID, "Groceries market", 80, store.CategoryFood, base.AddDate(0, 0, 5))
		seedExpense(mem, userID, "Cinema", 15, store.CategoryEntertainment, base.AddDate(0, 0, 10))
		seedExpense(mem, otherID, "Other user rent", 900, store.CategoryRent, base)
		return mem
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTotal  int
		wantTitles []string
	}{
		{
			name:       "all expenses newest first",
			query:      "",
			wantStatus: http.StatusOK,
			wantTotal:  3,
			wantTitles: []string{"Cinema", "Groceries market", "Rent August"},
		},
		{
			name:       "category filter",
			query:      "?category=Rent",
			wantStatus: http.StatusOK,
			wantTotal:  1,
			wantTitles: []string{"Rent August"},
		},
		{
			name:       "search matches title",
			query:      "?search=market",
			wantStatus: http.StatusOK,
			wantTotal:  1,
			wantTitles: []string{"Groceries market"},
		},
		{
			name:       "date range",
			query:      "?start_date=2026-08-04T00:00:00Z&end_date=2026-08-08T00:00:00Z",
			wantStatus: http.StatusOK,
			wantTotal:  1,
			wantTitles: []string{"Groceries market"},
		},
		{
			name:       "pagination second page",
			query:      "?page=2&page_size=2",
			wantStatus: http.StatusOK,
			wantTotal:  3,
			wantTitles: []string{"Rent August"},
		},
		{
			name:       "invalid category",
			query:      "?category=Nonsense",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid page",
			query:      "?page=0",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid date",
			query:      "?start_date=yesterday",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(t, newStore())
			req := features.AuthedRequest(http.MethodGet, "/expenses/"+tt.query, nil, userID)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp listResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantTotal, resp.Total)
			require.Len(t, resp.Expenses, len(tt.wantTitles))
			for i, title := range tt.wantTitles {
				assert.Equal(t, title, resp.Expenses[i].Title)
			}
		})
	}
}

func TestListExpensesPaginationMath(t *testing.T) {
	userID := uuid.New()
	mem := features.NewMemStore()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedExpense(mem, userID, fmt.Sprintf("expense-%d", i), 10, store.CategoryFood, base.AddDate(0, 0, i))
	}

	router := setupRouter(t, mem)
	req := features.AuthedRequest(http.MethodGet, "/expenses/?page=1&page_size=2", nil, userID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 2, resp.PageSize)
}

func TestGetExpense(t *testing.T) {
	userID := uuid.New()
	mem := features.NewMemStore()
	exp := seedExpense(mem, userID, "Rent", 1200, store.CategoryRent, time.Now().UTC())
	router := setupRouter(t, mem)

	t.Run("owned expense", func(t *testing.T) {
		req := features.AuthedRequest(http.MethodGet, "/expenses/"+exp.ID.String(), nil, userID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Rent")
	})

	t.Run("another user's expense is not found", func(t *testing.T) {
		req := features.AuthedRequest(http.MethodGet, "/expenses/"+exp.ID.String(), nil, uuid.New())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := features.AuthedRequest(http.MethodGet, "/expenses/not-a-uuid", nil, userID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateExpense(t *testing.T) {
	userID := uuid.New()

	t.Run("partial update", func(t *testing.T) {
		mem := features.NewMemStore()
		exp := seedExpense(mem, userID, "Rent", 1200, store.CategoryRent, time.Now().UTC())
		router := setupRouter(t, mem)

		req := features.AuthedRequest(http.MethodPatch, "/expenses/"+exp.ID.String(),
			strings.NewReader(`{"amount":1250.0}`), userID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp expenseResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1250.0, resp.Expense.Amount)
		assert.Equal(t, "Rent", resp.Expense.Title, "unchanged fields are preserved")
	})

	t.Run("invalid category rejected", func(t *testing.T) {
		mem := features.NewMemStore()
		exp := seedExpense(mem, userID, "Rent", 1200, store.CategoryRent, time.Now().UTC())
		router := setupRouter(t, mem)

		req := features.AuthedRequest(http.MethodPatch, "/expenses/"+exp.ID.String(),
			strings.NewReader(`{"category":"Bribes"}`), userID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown expense", func(t *testing.T) {
		router := setupRouter(t, features.NewMemStore())
		req := features.AuthedRequest(http.MethodPatch, "/expenses/"+uuid.NewString(),
			strings.NewReader(`{"amount":1.0}`), userID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteExpense(t *testing.T) {
	userID := uuid.New()
	mem := features.NewMemStore()
	exp := seedExpense(mem, userID, "Rent", 1200, store.CategoryRent, time.Now().UTC())
	router := setupRouter(t, mem)

	req := features.AuthedRequest(http.MethodDelete, "/expenses/"+exp.ID.String(), nil, userID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Expense deleted successfully")

	// Second delete: already gone.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, features.AuthedRequest(http.MethodDelete, "/expenses/"+exp.ID.String(), nil, userID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoriesList(t *testing.T) {
	router := setupRouter(t, features.NewMemStore())
	req := features.AuthedRequest(http.MethodGet, "/expenses/categories/list", nil, uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Categories []string `json:"categories"`
		Total      int      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 13, resp.Total)
	assert.Contains(t, resp.Categories, "Food")
	assert.Contains(t, resp.Categories, "Others")
}

// prefixCache is a map-backed cache that records prefix invalidations.
type prefixCache struct {
	cache.Noop
	values map[string][]byte
}

func newPrefixCache() *prefixCache {
	return &prefixCache{values: make(map[string][]byte)}
}

func (c *prefixCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = data
	return nil
}

func (c *prefixCache) Get(_ context.Context, key string, dest any) error {
	data, ok := c.values[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *prefixCache) InvalidatePrefix(_ context.Context, prefix string) error {
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
		}
	}
	return nil
}

func TestMutationsInvalidateAnalyticsCache(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()
	userKey := cache.AnalyticsKey(userID, "summary")
	otherKey := cache.AnalyticsKey(otherID, "summary")

	newCache := func(t *testing.T, c *prefixCache) {
		t.Helper()
		require.NoError(t, c.Set(context.Background(), userKey, "stale", 0))
		require.NoError(t, c.Set(context.Background(), otherKey, "stale", 0))
	}

	assertInvalidated := func(t *testing.T, c *prefixCache) {
		t.Helper()
		_, exists := c.values[userKey]
		assert.False(t, exists, "user's analytics keys should be dropped")
		_, kept := c.values[otherKey]
		assert.True(t, kept, "other users' keys are untouched")
	}

	t.Run("create", func(t *testing.T) {
		c := newPrefixCache()
		newCache(t, c)
		router := setupRouterWithCache(t, features.NewMemStore(), c)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, features.AuthedRequest(http.MethodPost, "/expenses/",
			strings.NewReader(`{"title":"Coffee","amount":4.2,"category":"Food"}`), userID))

		require.Equal(t, http.StatusCreated, rec.Code)
		assertInvalidated(t, c)
	})

	t.Run("update", func(t *testing.T) {
		mem := features.NewMemStore()
		exp := seedExpense(mem, userID, "Rent", 1200, store.CategoryRent, time.Now().UTC())
		c := newPrefixCache()
		newCache(t, c)
		router := setupRouterWithCache(t, mem, c)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, features.AuthedRequest(http.MethodPatch, "/expenses/"+exp.ID.String(),
			strings.NewReader(`{"amount":1250.0}`), userID))

		require.Equal(t, http.StatusOK, rec.Code)
		assertInvalidated(t, c)
	})

	t.Run("delete", func(t *testing.T) {
		mem := features.NewMemStore()
		exp := seedExpense(mem, userID, "Rent", 1200, store.CategoryRent, time.Now().UTC())
		c := newPrefixCache()
		newCache(t, c)
		router := setupRouterWithCache(t, mem, c)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, features.AuthedRequest(http.MethodDelete, "/expenses/"+exp.ID.String(), nil, userID))

		require.Equal(t, http.StatusOK, rec.Code)
		assertInvalidated(t, c)
	})

	t.Run("failed mutation leaves cache alone", func(t *testing.T) {
		c := newPrefixCache()
		newCache(t, c)
		router := setupRouterWithCache(t, features.NewMemStore(), c)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, features.AuthedRequest(http.MethodDelete, "/expenses/"+uuid.NewString(), nil, userID))

		require.Equal(t, http.StatusNotFound, rec.Code)
		_, kept := c.values[userKey]
		assert.True(t, kept, "keys survive when nothing changed")
	})
}

func TestStoreFailureReturns500(t *testing.T) {
	mem := features.NewMemStore()
	mem.FailWith = context.DeadlineExceeded
	router := setupRouter(t, mem)

	req := features.AuthedRequest(http.MethodGet, "/expenses/", nil, uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
