// Package expense は支出台帳のドメインロジックを提供する。
// すべての操作は呼び出し元ユーザーの所有範囲に限定される。
package expense

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/kakeibo/internal/events"
	"github.com/hitoshi/kakeibo/internal/metrics"
	"github.com/hitoshi/kakeibo/internal/model"
	"github.com/hitoshi/kakeibo/internal/repository"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// valuePlaces は金額の小数点以下の最大桁数。
	valuePlaces = 2
)

// maxExpenseValue は金額の上限（この値未満）。NUMERIC(14,2)の整数部12桁に収まる範囲。
var maxExpenseValue = decimal.New(1, 12)

// UserLookup はユーザーの存在確認に使うインターフェース。
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// CategoryLookup はカテゴリカタログの参照インターフェース。
type CategoryLookup interface {
	Find(id int) (model.Category, bool)
	All() []model.Category
}

// AddExpenseInput は支出作成の入力。
// DateはYYYY-MM-DD、TimeはHH:MMで、台帳のタイムゾーンで解釈される。
type AddExpenseInput struct {
	OwnerID    string
	CategoryID int
	Date       string
	Time       string
	Value      decimal.Decimal
}

// Service は支出台帳のサービス層。
type Service struct {
	users      UserLookup
	expenses   repository.ExpenseRepository
	categories CategoryLookup
	loc        *time.Location
	publisher  events.Publisher
	metrics    metrics.MetricsCollector
	now        func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// locは日付・時刻の解釈と月の判定に使うタイムゾーンで、nilの場合はUTC。
func NewService(
	users UserLookup,
	expenses repository.ExpenseRepository,
	categories CategoryLookup,
	loc *time.Location,
	publisher events.Publisher,
	collector metrics.MetricsCollector,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		users:      users,
		expenses:   expenses,
		categories: categories,
		loc:        loc,
		publisher:  publisher,
		metrics:    collector,
		now:        time.Now,
	}
}

// AddExpense は支出を作成し、採番されたIDを返す。
// 判定順: ユーザー存在 → カテゴリ存在 → 日付 → 時刻 → 金額。
func (s *Service) AddExpense(ctx context.Context, in AddExpenseInput) (int64, error) {
	if err := s.requireUser(ctx, "add expense", in.OwnerID); err != nil {
		return 0, err
	}

	if _, ok := s.categories.Find(in.CategoryID); !ok {
		return 0, model.NewCategoryNotFoundError(in.CategoryID)
	}

	occurredAt, err := s.combine(in.Date, in.Time)
	if err != nil {
		return 0, err
	}

	if !in.Value.IsPositive() || !in.Value.Equal(in.Value.Truncate(valuePlaces)) ||
		in.Value.GreaterThanOrEqual(maxExpenseValue) {
		return 0, model.NewInvalidExpenseValueError(in.Value.String())
	}

	e := &model.Expense{
		UserID:     in.OwnerID,
		CategoryID: in.CategoryID,
		Value:      in.Value,
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  s.now().UTC(),
	}

	id, err := s.expenses.Create(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}

	s.metrics.RecordExpenseCreated()
	events.Emit(ctx, s.publisher, events.ExpenseCreated(in.OwnerID, id, s.now()))

	slog.DebugContext(ctx, "支出を作成しました",
		slog.String("user_id", in.OwnerID),
		slog.Int64("expense_id", id),
	)
	return id, nil
}

// DeleteExpense は呼び出し元が所有する支出を削除する。
// 判定順: ユーザー存在 → 支出存在 → 所有者確認。
func (s *Service) DeleteExpense(ctx context.Context, expenseID int64, callerID string) error {
	if err := s.requireUser(ctx, "delete expense", callerID); err != nil {
		return err
	}

	e, err := s.expenses.FindByID(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if e == nil {
		return model.NewExpenseNotFoundError(expenseID)
	}

	if err := requireOwner(e, callerID); err != nil {
		return err
	}

	if err := s.expenses.Delete(ctx, expenseID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.metrics.RecordExpenseDeleted()
	events.Emit(ctx, s.publisher, events.ExpenseDeleted(callerID, expenseID, s.now()))
	return nil
}

// ListExpenses は呼び出し元の支出を返す。
// monthを指定した場合は発生月（0=1月、年は問わない）で絞り込み、
// maxSizeを指定した場合は絞り込み後に先頭から最大件数まで切り詰める。
// 並び順はID昇順（作成順）。
func (s *Service) ListExpenses(ctx context.Context, ownerID string, month, maxSize *string) ([]*model.Expense, error) {
	if err := s.requireUser(ctx, "list expenses", ownerID); err != nil {
		return nil, err
	}

	var monthFilter *time.Month
	if month != nil {
		m, err := parseMonth(*month)
		if err != nil {
			return nil, err
		}
		monthFilter = &m
	}

	limit := -1
	if maxSize != nil {
		n, err := strconv.Atoi(*maxSize)
		if err != nil || n < 0 {
			return nil, model.NewInvalidMaxSizeError(*maxSize)
		}
		limit = n
	}

	all, err := s.expenses.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	result := make([]*model.Expense, 0, len(all))
	for _, e := range all {
		if monthFilter != nil && e.OccurredAt.In(s.loc).Month() != *monthFilter {
			continue
		}
		result = append(result, e)
	}

	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListCategories はカテゴリカタログ全体を返す。
func (s *Service) ListCategories() []model.Category {
	return s.categories.All()
}

// TotalForMonth は指定月（0=1月）の支出合計と件数を返す。
// 月の判定はListExpensesと同じく年を問わない。
func (s *Service) TotalForMonth(ctx context.Context, ownerID, month string) (*model.MonthlyTotal, error) {
	if err := s.requireUser(ctx, "total for month", ownerID); err != nil {
		return nil, err
	}

	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	all, err := s.expenses.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("total for month: %w", err)
	}

	total := &model.MonthlyTotal{Month: int(m) - 1, Total: decimal.Zero}
	for _, e := range all {
		if e.OccurredAt.In(s.loc).Month() != m {
			continue
		}
		total.Total = total.Total.Add(e.Value)
		total.Count++
	}
	return total, nil
}

// requireOwner は支出の所有者が呼び出し元であることを確認する。
// 変更系の台帳操作はすべてこのガードを通す。
func requireOwner(e *model.Expense, callerID string) error {
	if e.UserID != callerID {
		return model.NewExpenseDeleteForbiddenError()
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, op, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	return nil
}

// combine は日付と時刻を台帳のタイムゾーンで結合する。
func (s *Service) combine(date, clock string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, model.NewInvalidDateError(date)
	}
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Time{}, model.NewInvalidTimeError(clock)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, s.loc), nil
}

// parseMonth は0始まりの月文字列（"0"〜"11"）をtime.Monthに変換する。
func parseMonth(month string) (time.Month, error) {
	n, err := strconv.Atoi(month)
	if err != nil || n < 0 || n > 11 {
		return 0, model.NewInvalidMonthError(month)
	}
	return time.Month(n + 1), nil
}
