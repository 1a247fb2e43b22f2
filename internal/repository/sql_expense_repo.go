package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/hitoshi/kakeibo/internal/model"
)

// SQLExpenseRepo はdatabase/sqlを使用した支出リポジトリ。
type SQLExpenseRepo struct {
	db *sql.DB
}

// NewSQLExpenseRepo はSQLExpenseRepoを生成する。
func NewSQLExpenseRepo(db *sql.DB) *SQLExpenseRepo {
	return &SQLExpenseRepo{db: db}
}

const expenseColumns = `id, user_id, category_id, value, occurred_at, created_at`

// FindByID は指定IDの支出を取得する。見つからない場合はnilを返す。
func (r *SQLExpenseRepo) FindByID(ctx context.Context, id int64) (*model.Expense, error) {
	e := &model.Expense{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Value, &e.OccurredAt, &e.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}
	normalizeExpense(e)
	return e, nil
}

// Create は支出を作成し、採番されたIDを返す。
func (r *SQLExpenseRepo) Create(ctx context.Context, e *model.Expense) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (user_id, category_id, value, occurred_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		e.UserID, e.CategoryID, e.Value.StringFixed(2), e.OccurredAt.UTC(), e.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert expense: %w", err)
	}
	return id, nil
}

// Delete は指定IDの支出を削除する。
func (r *SQLExpenseRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireAffected(result, "expense", strconv.FormatInt(id, 10))
}

// ListByUserID はユーザーの全支出をID昇順で返す。
func (r *SQLExpenseRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = $1 ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*model.Expense
	for rows.Next() {
		e := &model.Expense{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Value, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		normalizeExpense(e)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

func normalizeExpense(e *model.Expense) {
	e.OccurredAt = e.OccurredAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
}

// compile-time interface check
var _ ExpenseRepository = (*SQLExpenseRepo)(nil)
