package analytics

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/server/features/common"
	"github.com/ledgerline/expensed/internal/store"
)

// Visualization series bounds.
const (
	defaultSeriesLimit = 12
	maxSeriesLimit     = 100
)

// Handlers provides HTTP handlers for the analytics feature.
type Handlers struct {
	store  store.Store
	cache  cache.Cache
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st store.Store, c cache.Cache, logger *slog.Logger) *Handlers {
	return &Handlers{store: st, cache: c, logger: logger}
}

type seriesResponse struct {
	PeriodType      string              `json:"period_type"`
	DataPoints      []store.SeriesPoint `json:"data_points"`
	TotalPeriods    int                 `json:"total_periods"`
	TotalSpending   float64             `json:"total_spending"`
	AverageSpending float64             `json:"average_spending"`
}

type categoryChartEntry struct {
	Category   store.Category `json:"category"`
	Total      float64        `json:"total_amount"`
	Count      int            `json:"expense_count"`
	Percentage float64        `json:"percentage"`
}

type categoryChartResponse struct {
	Categories    []categoryChartEntry `json:"categories"`
	TotalSpending float64              `json:"total_spending"`
	TotalExpenses int                  `json:"total_expenses"`
}

// ByCategory handles GET /expenses/analytics/by-category.
func (h *Handlers) ByCategory(w http.ResponseWriter, r *http.Request) {
	dateRange, err := common.ParseDateRange(r)
	if err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	key := cache.AnalyticsKey(userID, "by-category", rangeKey(dateRange)...)

	var cached []store.CategorySpending
	if h.fromCache(r, key, &cached) {
		common.JSON(w, http.StatusOK, cached)
		return
	}

	result, err := h.store.SpendingByCategory(r.Context(), userID, dateRange)
	if err != nil {
		h.logger.Error("failed to compute spending by category", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to compute spending by category")
		return
	}
	if result == nil {
		result = []store.CategorySpending{}
	}

	h.toCache(r, key, result)
	common.JSON(w, http.StatusOK, result)
}

// Summary handles GET /expenses/analytics/summary.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	dateRange, err := common.ParseDateRange(r)
	if err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	key := cache.AnalyticsKey(userID, "summary", rangeKey(dateRange)...)

	var cached store.SpendingSummary
	if h.fromCache(r, key, &cached) {
		common.JSON(w, http.StatusOK, &cached)
		return
	}

	summary, err := h.store.SpendingSummary(r.Context(), userID, dateRange)
	if err != nil {
		h.logger.Error("failed to compute spending summary", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to compute spending summary")
		return
	}
	if summary.Breakdown == nil {
		summary.Breakdown = []store.CategorySpending{}
	}

	h.toCache(r, key, summary)
	common.JSON(w, http.StatusOK, summary)
}

// Monthly handles GET /expenses/analytics/monthly/{year}/{month}.
func (h *Handlers) Monthly(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 || year > 2100 {
		common.Error(w, http.StatusBadRequest, "year must be between 2000 and 2100")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		common.Error(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	userID := auth.UserID(r.Context())
	key := cache.AnalyticsKey(userID, "monthly", strconv.Itoa(year), strconv.Itoa(month))

	var cached store.MonthlyStatistics
	if h.fromCache(r, key, &cached) {
		common.JSON(w, http.StatusOK, &cached)
		return
	}

	stats, err := h.store.MonthlyStatistics(r.Context(), userID, year, month)
	if err != nil {
		h.logger.Error("failed to compute monthly statistics", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to compute monthly statistics")
		return
	}

	h.toCache(r, key, stats)
	common.JSON(w, http.StatusOK, stats)
}

// Visualization handles GET /expenses/analytics/visualization.
func (h *Handlers) Visualization(w http.ResponseWriter, r *http.Request) {
	period := store.Period(r.URL.Query().Get("period_type"))
	if period == "" {
		period = store.PeriodMonth
	}
	if !period.Valid() {
		common.Error(w, http.StatusBadRequest, "invalid period_type: must be one of day, week, month, year")
		return
	}

	limit := defaultSeriesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSeriesLimit {
			common.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	userID := auth.UserID(r.Context())
	key := cache.AnalyticsKey(userID, "visualization", string(period), strconv.Itoa(limit))

	var cached seriesResponse
	if h.fromCache(r, key, &cached) {
		common.JSON(w, http.StatusOK, &cached)
		return
	}

	points, err := h.store.SpendingSeries(r.Context(), userID, period, limit)
	if err != nil {
		h.logger.Error("failed to compute spending series", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to compute spending series")
		return
	}
	if points == nil {
		points = []store.SeriesPoint{}
	}

	var total float64
	for _, p := range points {
		total += p.Total
	}
	average := 0.0
	if len(points) > 0 {
		average = total / float64(len(points))
	}

	resp := seriesResponse{
		PeriodType:      string(period),
		DataPoints:      points,
		TotalPeriods:    len(points),
		TotalSpending:   round2(total),
		AverageSpending: round2(average),
	}

	h.toCache(r, key, &resp)
	common.JSON(w, http.StatusOK, &resp)
}

// CategoryChart handles GET /expenses/analytics/category-chart.
func (h *Handlers) CategoryChart(w http.ResponseWriter, r *http.Request) {
	dateRange, err := common.ParseDateRange(r)
	if err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	key := cache.AnalyticsKey(userID, "category-chart", rangeKey(dateRange)...)

	var cached categoryChartResponse
	if h.fromCache(r, key, &cached) {
		common.JSON(w, http.StatusOK, &cached)
		return
	}

	breakdown, err := h.store.SpendingByCategory(r.Context(), userID, dateRange)
	if err != nil {
		h.logger.Error("failed to compute category chart", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to compute category chart")
		return
	}

	var total float64
	var count int
	for _, cs := range breakdown {
		total += cs.Total
		count += cs.Count
	}

	entries := make([]categoryChartEntry, len(breakdown))
	for i, cs := range breakdown {
		percentage := 0.0
		if total > 0 {
			percentage = cs.Total / total * 100
		}
		entries[i] = categoryChartEntry{
			Category:   cs.Category,
			Total:      cs.Total,
			Count:      cs.Count,
			Percentage: round2(percentage),
		}
	}

	resp := categoryChartResponse{
		Categories:    entries,
		TotalSpending: round2(total),
		TotalExpenses: count,
	}

	h.toCache(r, key, &resp)
	common.JSON(w, http.StatusOK, &resp)
}

// fromCache loads key into dest, reporting a hit. Failures other than
// a miss are logged and treated as misses.
func (h *Handlers) fromCache(r *http.Request, key string, dest any) bool {
	err := h.cache.Get(r.Context(), key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		h.logger.Warn("analytics cache read failed", "key", key, "error", err)
	}
	return false
}

// toCache stores a computed response. Failures are logged, never
// surfaced to the client.
func (h *Handlers) toCache(r *http.Request, key string, v any) {
	if err := h.cache.Set(r.Context(), key, v, 0); err != nil {
		h.logger.Warn("analytics cache write failed", "key", key, "error", err)
	}
}

// rangeKey renders a date range into cache key parameters.
func rangeKey(r store.DateRange) []string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return []string{format(r.Start), format(r.End)}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
