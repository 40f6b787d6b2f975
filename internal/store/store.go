// Package store provides persistence for expenses and users on PostgreSQL.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a row does not exist or belongs to
// another user. Callers must not be able to distinguish the two cases.
var ErrNotFound = errors.New("not found")

// Category is a predefined expense category.
type Category string

// All supported expense categories.
const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryRent          Category = "Rent"
	CategoryGroceries     Category = "Groceries"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealthcare    Category = "Healthcare"
	CategoryEducation     Category = "Education"
	CategoryShopping      Category = "Shopping"
	CategorySavings       Category = "Savings"
	CategoryFoodstuff     Category = "Foodstuff"
	CategoryTravel        Category = "Travel"
	CategoryOthers        Category = "Others"
)

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryTransport, CategoryRent, CategoryGroceries,
		CategoryUtilities, CategoryEntertainment, CategoryHealthcare,
		CategoryEducation, CategoryShopping, CategorySavings,
		CategoryFoodstuff, CategoryTravel, CategoryOthers,
	}
}

// Valid reports whether c is one of the predefined categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is a single expense record.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	Category    Category  `json:"category"`
	Description string    `json:"description,omitempty"`
	ExpenseDate time.Time `json:"expense_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User anchors expense ownership.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpenseInput holds the fields for creating an expense.
// A zero ExpenseDate means "now".
type ExpenseInput struct {
	Title       string
	Amount      float64
	Category    Category
	Description string
	ExpenseDate time.Time
}

// ExpenseUpdate holds a partial update. Nil fields are left unchanged.
type ExpenseUpdate struct {
	Title       *string
	Amount      *float64
	Category    *Category
	Description *string
	ExpenseDate *time.Time
}

// DateRange bounds a query by expense_date. Nil ends are unbounded.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ExpenseFilter selects and pages a user's expenses.
type ExpenseFilter struct {
	Category *Category
	Range    DateRange
	Search   string
	Offset   int
	Limit    int
}

// CategorySpending is the per-category aggregate.
type CategorySpending struct {
	Category Category `json:"category"`
	Total    float64  `json:"total_amount"`
	Count    int      `json:"expense_count"`
}

// SpendingSummary is the overall aggregate with category breakdown.
type SpendingSummary struct {
	Total     float64            `json:"total_spending"`
	Count     int                `json:"expense_count"`
	Breakdown []CategorySpending `json:"category_breakdown"`
	Start     *time.Time         `json:"start_date,omitempty"`
	End       *time.Time         `json:"end_date,omitempty"`
}

// MonthlyStatistics aggregates a single calendar month.
type MonthlyStatistics struct {
	Period      string    `json:"period"` // "YYYY-MM"
	Total       float64   `json:"total_spending"`
	Average     float64   `json:"average_expense"`
	Count       int       `json:"expense_count"`
	TopCategory *Category `json:"top_category,omitempty"`
	TopAmount   *float64  `json:"top_category_amount,omitempty"`
}

// Period selects the time-series aggregation bucket.
type Period string

// Supported aggregation periods. Day and week both bucket by day,
// matching the original API contract.
const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Valid reports whether p is a supported period.
func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// SeriesPoint is one bucket of the spending time series.
type SeriesPoint struct {
	Period string  `json:"period"`
	Total  float64 `json:"total_amount"`
	Count  int     `json:"expense_count"`
}

// Store is the persistence contract used by the HTTP and CLI layers.
type Store interface {
	// Expenses
	CreateExpense(ctx context.Context, userID uuid.UUID, in ExpenseInput) (*Expense, error)
	GetExpense(ctx context.Context, userID, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, userID uuid.UUID, f ExpenseFilter) ([]*Expense, int, error)
	UpdateExpense(ctx context.Context, userID, id uuid.UUID, upd ExpenseUpdate) (*Expense, error)
	DeleteExpense(ctx context.Context, userID, id uuid.UUID) error

	// Analytics
	SpendingByCategory(ctx context.Context, userID uuid.UUID, r DateRange) ([]CategorySpending, error)
	SpendingSummary(ctx context.Context, userID uuid.UUID, r DateRange) (*SpendingSummary, error)
	MonthlyStatistics(ctx context.Context, userID uuid.UUID, year, month int) (*MonthlyStatistics, error)
	SpendingSeries(ctx context.Context, userID uuid.UUID, period Period, limit int) ([]SeriesPoint, error)

	// Users
	CreateUser(ctx context.Context, email, name string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
