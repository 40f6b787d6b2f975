package expenses

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/server/features/common"
	"github.com/ledgerline/expensed/internal/store"
)

// Validation bounds for expense fields.
const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
)

// Handlers provides HTTP handlers for expense CRUD.
type Handlers struct {
	store  store.Store
	cache  cache.Cache
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st store.Store, c cache.Cache, logger *slog.Logger) *Handlers {
	return &Handlers{store: st, cache: c, logger: logger}
}

type createRequest struct {
	Title       string     `json:"title"`
	Amount      float64    `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	ExpenseDate *time.Time `json:"expense_date"`
}

type updateRequest struct {
	Title       *string    `json:"title"`
	Amount      *float64   `json:"amount"`
	Category    *string    `json:"category"`
	Description *string    `json:"description"`
	ExpenseDate *time.Time `json:"expense_date"`
}

type expenseResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Expense *store.Expense `json:"expense"`
}

type listResponse struct {
	Expenses   []*store.Expense `json:"expenses"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// Create handles POST /expenses.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := common.Decode(r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	in := store.ExpenseInput{
		Title:       req.Title,
		Amount:      req.Amount,
		Category:    store.Category(req.Category),
		Description: req.Description,
	}
	if req.ExpenseDate != nil {
		in.ExpenseDate = *req.ExpenseDate
	}
	if err := validateInput(in); err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	exp, err := h.store.CreateExpense(r.Context(), userID, in)
	if err != nil {
		h.logger.Error("failed to create expense", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to create expense")
		return
	}

	h.invalidateAnalytics(r, userID)

	common.JSON(w, http.StatusCreated, expenseResponse{
		Status:  "success",
		Message: "Expense created successfully",
		Expense: exp,
	})
}

// List handles GET /expenses with filtering and pagination.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page, err := common.ParsePage(r)
	if err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	dateRange, err := common.ParseDateRange(r)
	if err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.ExpenseFilter{
		Range:  dateRange,
		Search: r.URL.Query().Get("search"),
		Offset: page.Offset(),
		Limit:  page.Size,
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		category := store.Category(raw)
		if !category.Valid() {
			common.Error(w, http.StatusBadRequest, "unknown category: "+raw)
			return
		}
		filter.Category = &category
	}

	expenses, total, err := h.store.ListExpenses(r.Context(), auth.UserID(r.Context()), filter)
	if err != nil {
		h.logger.Error("failed to list expenses", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	if expenses == nil {
		expenses = []*store.Expense{}
	}

	common.JSON(w, http.StatusOK, listResponse{
		Expenses:   expenses,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages(total),
	})
}

// Get handles GET /expenses/{id}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.Error(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	exp, err := h.store.GetExpense(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		common.NotFound(w, err, store.ErrNotFound, "expense")
		return
	}

	common.JSON(w, http.StatusOK, exp)
}

// Update handles PATCH /expenses/{id}.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.Error(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	var req updateRequest
	if err := common.Decode(r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	upd, err := buildUpdate(req)
	if err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	exp, err := h.store.UpdateExpense(r.Context(), userID, id, upd)
	if err != nil {
		common.NotFound(w, err, store.ErrNotFound, "expense")
		return
	}

	h.invalidateAnalytics(r, userID)

	common.JSON(w, http.StatusOK, expenseResponse{
		Status:  "success",
		Message: "Expense updated successfully",
		Expense: exp,
	})
}

// Delete handles DELETE /expenses/{id}.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.Error(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	userID := auth.UserID(r.Context())
	if err := h.store.DeleteExpense(r.Context(), userID, id); err != nil {
		common.NotFound(w, err, store.ErrNotFound, "expense")
		return
	}

	h.invalidateAnalytics(r, userID)

	common.Message(w, http.StatusOK, "Expense deleted successfully")
}

// Categories handles GET /expenses/categories/list.
func (h *Handlers) Categories(w http.ResponseWriter, _ *http.Request) {
	categories := store.Categories()
	common.JSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"total":      len(categories),
	})
}

// invalidateAnalytics drops the user's cached analytics after a
// mutation. Cache failures are logged, never surfaced.
func (h *Handlers) invalidateAnalytics(r *http.Request, userID uuid.UUID) {
	if err := h.cache.InvalidatePrefix(r.Context(), cache.AnalyticsPrefix(userID)); err != nil {
		h.logger.Warn("failed to invalidate analytics cache", "error", err)
	}
}

func validateInput(in store.ExpenseInput) error {
	if in.Title == "" || len(in.Title) > maxTitleLen {
		return fmt.Errorf("title must be between 1 and %d characters", maxTitleLen)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if !in.Category.Valid() {
		return fmt.Errorf("unknown category: %s", in.Category)
	}
	if len(in.Description) > maxDescriptionLen {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLen)
	}
	return nil
}

func buildUpdate(req updateRequest) (store.ExpenseUpdate, error) {
	var upd store.ExpenseUpdate

	if req.Title != nil {
		if *req.Title == "" || len(*req.Title) > maxTitleLen {
			return upd, fmt.Errorf("title must be between 1 and %d characters", maxTitleLen)
		}
		upd.Title = req.Title
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return upd, fmt.Errorf("amount must be positive")
		}
		upd.Amount = req.Amount
	}
	if req.Category != nil {
		category := store.Category(*req.Category)
		if !category.Valid() {
			return upd, fmt.Errorf("unknown category: %s", *req.Category)
		}
		upd.Category = &category
	}
	if req.Description != nil {
		if len(*req.Description) > maxDescriptionLen {
			return upd, fmt.Errorf("description must be at most %d characters", maxDescriptionLen)
		}
		upd.Description = req.Description
	}
	if req.ExpenseDate != nil {
		upd.ExpenseDate = req.ExpenseDate
	}

	return upd, nil
}
