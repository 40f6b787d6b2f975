package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const expenseColumns = "id, user_id, title, amount, category, description, expense_date, created_at, updated_at"

// CreateExpense inserts a new expense for the user. A zero ExpenseDate
// defaults to the current time.
func (s *PostgresStore) CreateExpense(ctx context.Context, userID uuid.UUID, in ExpenseInput) (*Expense, error) {
	now := time.Now().UTC()

	exp := &Expense{
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, title, amount, category, description, expense_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		exp.ID, exp.UserID, exp.Title, exp.Amount, exp.Category,
		nullString(exp.Description), exp.ExpenseDate, exp.CreatedAt, exp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	return exp, nil
}

// GetExpense retrieves an expense by id, scoped to the owning user.
func (s *PostgresStore) GetExpense(ctx context.Context, userID, id uuid.UUID) (*Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	exp, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return exp, nil
}

// ListExpenses returns a filtered, paginated page of the user's expenses
// ordered by expense_date descending, plus the total matching count.
func (s *PostgresStore) ListExpenses(ctx context.Context, userID uuid.UUID, f ExpenseFilter) ([]*Expense, int, error) {
	where, args := buildExpenseWhere(userID, f.Category, f.Range, f.Search)

	var total int
	countQuery := `SELECT count(*) FROM expenses ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(
		`SELECT %s FROM expenses %s ORDER BY expense_date DESC OFFSET $%d LIMIT $%d`,
		expenseColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, f.Offset, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}

	return expenses, total, nil
}

// UpdateExpense applies a partial update and returns the updated row.
func (s *PostgresStore) UpdateExpense(ctx context.Context, userID, id uuid.UUID, upd ExpenseUpdate) (*Expense, error) {
	sets := []string{}
	args := []any{}
	n := 1

	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, v)
		n++
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Amount != nil {
		add("amount", *upd.Amount)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Description != nil {
		add("description", nullString(*upd.Description))
	}
	if upd.ExpenseDate != nil {
		add("expense_date", *upd.ExpenseDate)
	}

	if len(sets) == 0 {
		// Nothing to change; still verify existence and ownership.
		return s.GetExpense(ctx, userID, id)
	}

	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf(
		`UPDATE expenses SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), n, n+1, expenseColumns,
	)
	args = append(args, id, userID)

	exp, err := scanExpense(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return exp, nil
}

// DeleteExpense removes an expense, scoped to the owning user.
func (s *PostgresStore) DeleteExpense(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildExpenseWhere assembles the shared WHERE clause for list and count
// queries. The user_id predicate is always present.
func buildExpenseWhere(userID uuid.UUID, category *Category, r DateRange, search string) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}
	n := 2

	if category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", n))
		args = append(args, *category)
		n++
	}
	if r.Start != nil {
		conds = append(conds, fmt.Sprintf("expense_date >= $%d", n))
		args = append(args, *r.Start)
		n++
	}
	if r.End != nil {
		conds = append(conds, fmt.Sprintf("expense_date <= $%d", n))
		args = append(args, *r.End)
		n++
	}
	if search != "" {
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
		args = append(args, "%"+search+"%")
		n++
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*Expense, error) {
	exp := &Expense{}
	var description sql.NullString

	err := row.Scan(
		&exp.ID, &exp.UserID, &exp.Title, &exp.Amount, &exp.Category,
		&description, &exp.ExpenseDate, &exp.CreatedAt, &exp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	exp.Description = description.String
	return exp, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
