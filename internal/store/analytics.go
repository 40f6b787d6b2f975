package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// SpendingByCategory returns per-category totals ordered by total
// descending, optionally bounded by a date range.
func (s *PostgresStore) SpendingByCategory(ctx context.Context, userID uuid.UUID, r DateRange) ([]CategorySpending, error) {
	where, args := buildExpenseWhere(userID, nil, r, "")

	query := `SELECT category, sum(amount), count(*) FROM expenses ` + where +
		` GROUP BY category ORDER BY sum(amount) DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spending by category: %w", err)
	}
	defer rows.Close()

	var result []CategorySpending
	for rows.Next() {
		var cs CategorySpending
		if err := rows.Scan(&cs.Category, &cs.Total, &cs.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category spending: %w", err)
		}
		cs.Total = round2(cs.Total)
		result = append(result, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query spending by category: %w", err)
	}

	return result, nil
}

// SpendingSummary returns the overall total and count with a category
// breakdown for the given date range.
func (s *PostgresStore) SpendingSummary(ctx context.Context, userID uuid.UUID, r DateRange) (*SpendingSummary, error) {
	where, args := buildExpenseWhere(userID, nil, r, "")

	var total sql.NullFloat64
	var count int
	query := `SELECT coalesce(sum(amount), 0), count(*) FROM expenses ` + where
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total, &count); err != nil {
		return nil, fmt.Errorf("failed to query spending summary: %w", err)
	}

	breakdown, err := s.SpendingByCategory(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	return &SpendingSummary{
		Total:     round2(total.Float64),
		Count:     count,
		Breakdown: breakdown,
		Start:     r.Start,
		End:       r.End,
	}, nil
}

// MonthlyStatistics aggregates a single calendar month, including the
// top-spending category when the month has any expenses.
func (s *PostgresStore) MonthlyStatistics(ctx context.Context, userID uuid.UUID, year, month int) (*MonthlyStatistics, error) {
	stats := &MonthlyStatistics{
		Period: fmt.Sprintf("%d-%02d", year, month),
	}

	var total, average sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT coalesce(sum(amount), 0), coalesce(avg(amount), 0), count(*)
		 FROM expenses
		 WHERE user_id = $1
		   AND extract(year FROM expense_date) = $2
		   AND extract(month FROM expense_date) = $3`,
		userID, year, month,
	).Scan(&total, &average, &stats.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly statistics: %w", err)
	}
	stats.Total = round2(total.Float64)
	stats.Average = round2(average.Float64)

	var topCategory Category
	var topAmount float64
	err = s.db.QueryRowContext(ctx,
		`SELECT category, sum(amount)
		 FROM expenses
		 WHERE user_id = $1
		   AND extract(year FROM expense_date) = $2
		   AND extract(month FROM expense_date) = $3
		 GROUP BY category ORDER BY sum(amount) DESC LIMIT 1`,
		userID, year, month,
	).Scan(&topCategory, &topAmount)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No expenses this month; leave top category unset.
	case err != nil:
		return nil, fmt.Errorf("failed to query top category: %w", err)
	default:
		topAmount = round2(topAmount)
		stats.TopCategory = &topCategory
		stats.TopAmount = &topAmount
	}

	return stats, nil
}

// SpendingSeries aggregates spending into time buckets for charting.
// Buckets are returned in chronological order, at most limit entries
// covering the most recent periods.
func (s *PostgresStore) SpendingSeries(ctx context.Context, userID uuid.UUID, period Period, limit int) ([]SeriesPoint, error) {
	if limit <= 0 {
		limit = 12
	}

	var query string
	switch period {
	case PeriodMonth:
		query = `SELECT to_char(expense_date, 'YYYY-MM') AS bucket, sum(amount), count(*)
		         FROM expenses WHERE user_id = $1
		         GROUP BY bucket ORDER BY bucket DESC LIMIT $2`
	case PeriodYear:
		query = `SELECT to_char(expense_date, 'YYYY') AS bucket, sum(amount), count(*)
		         FROM expenses WHERE user_id = $1
		         GROUP BY bucket ORDER BY bucket DESC LIMIT $2`
	case PeriodDay, PeriodWeek:
		query = `SELECT to_char(expense_date, 'YYYY-MM-DD') AS bucket, sum(amount), count(*)
		         FROM expenses WHERE user_id = $1
		         GROUP BY bucket ORDER BY bucket DESC LIMIT $2`
	default:
		return nil, fmt.Errorf("invalid period: %s", period)
	}

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query spending series: %w", err)
	}
	defer rows.Close()

	var points []SeriesPoint
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Period, &p.Total, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		p.Total = round2(p.Total)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query spending series: %w", err)
	}

	// Rows come back newest first; charts want chronological order.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return points, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
