package handler

import (
	"context"
	"time"

	"github.com/hitoshi/kakeibo/internal/expense"
	"github.com/hitoshi/kakeibo/internal/model"
	"github.com/hitoshi/kakeibo/internal/user"
)

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// Register はユーザーを登録する。
func (a *UserServiceAdapter) Register(ctx context.Context, in user.RegisterInput) (string, error) {
	return a.svc.Register(ctx, in)
}

// Signin はサインイン結果をhandlerレスポンス型で返す。
func (a *UserServiceAdapter) Signin(ctx context.Context, email, password string) (*signinResponse, error) {
	result, err := a.svc.Signin(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &signinResponse{
		User: signinUserResponse{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
		},
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
	}, nil
}

// GetProfile はプロフィールをhandlerレスポンス型で返す。
func (a *UserServiceAdapter) GetProfile(ctx context.Context, userID string) (*profileResponse, error) {
	profile, err := a.svc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(profile), nil
}

// UpdateProfile はプロフィールを更新しhandlerレスポンス型で返す。
func (a *UserServiceAdapter) UpdateProfile(ctx context.Context, in user.UpdateProfileInput) (*profileResponse, error) {
	profile, err := a.svc.UpdateProfile(ctx, in)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(profile), nil
}

// DeleteAccount はユーザーの退会処理を実行する。
func (a *UserServiceAdapter) DeleteAccount(ctx context.Context, userID string) error {
	return a.svc.DeleteAccount(ctx, userID)
}

// ChangePassword はパスワードを変更する。
func (a *UserServiceAdapter) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return a.svc.ChangePassword(ctx, userID, currentPassword, newPassword)
}

func toProfileResponse(p *model.Profile) *profileResponse {
	return &profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		LastName:  p.LastName,
		Email:     p.Email,
		Cellphone: p.Cellphone,
		CreatedAt: p.CreatedAt,
	}
}

// ExpenseServiceAdapter は expense.Service を ExpenseServiceInterface に適合させるアダプタ。
// 支出の日付・時刻は台帳のタイムゾーンで表現する。
type ExpenseServiceAdapter struct {
	svc *expense.Service
	loc *time.Location
}

// NewExpenseServiceAdapter はExpenseServiceAdapterを生成する。locがnilの場合はUTC。
func NewExpenseServiceAdapter(svc *expense.Service, loc *time.Location) *ExpenseServiceAdapter {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpenseServiceAdapter{svc: svc, loc: loc}
}

// AddExpense は支出を作成する。
func (a *ExpenseServiceAdapter) AddExpense(ctx context.Context, in expense.AddExpenseInput) (int64, error) {
	return a.svc.AddExpense(ctx, in)
}

// DeleteExpense は支出を削除する。
func (a *ExpenseServiceAdapter) DeleteExpense(ctx context.Context, expenseID int64, callerID string) error {
	return a.svc.DeleteExpense(ctx, expenseID, callerID)
}

// ListExpenses は支出一覧をhandlerレスポンス型で返す。
func (a *ExpenseServiceAdapter) ListExpenses(ctx context.Context, ownerID string, month, maxSize *string) ([]expenseResponse, error) {
	expenses, err := a.svc.ListExpenses(ctx, ownerID, month, maxSize)
	if err != nil {
		return nil, err
	}

	results := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		results[i] = toExpenseResponse(e, a.loc)
	}
	return results, nil
}

// ListCategories はカテゴリ一覧をhandlerレスポンス型で返す。
func (a *ExpenseServiceAdapter) ListCategories() []categoryResponse {
	categories := a.svc.ListCategories()
	results := make([]categoryResponse, len(categories))
	for i, c := range categories {
		results[i] = categoryResponse{ID: c.ID, Label: c.Label}
	}
	return results
}

// TotalForMonth は月次合計をhandlerレスポンス型で返す。
func (a *ExpenseServiceAdapter) TotalForMonth(ctx context.Context, ownerID, month string) (*monthlyTotalResponse, error) {
	total, err := a.svc.TotalForMonth(ctx, ownerID, month)
	if err != nil {
		return nil, err
	}
	return &monthlyTotalResponse{
		Month: total.Month,
		Total: total.Total.StringFixed(2),
		Count: total.Count,
	}, nil
}

// toExpenseResponse はドメインのExpenseをhandlerのレスポンス型に変換する。
func toExpenseResponse(e *model.Expense, loc *time.Location) expenseResponse {
	local := e.OccurredAt.In(loc)
	return expenseResponse{
		ID:         e.ID,
		CategoryID: e.CategoryID,
		Value:      e.Value.StringFixed(2),
		Date:       local.Format("2006-01-02"),
		Time:       local.Format("15:04"),
		OccurredAt: e.OccurredAt.UTC(),
	}
}

// --- compile-time interface checks ---

var _ UserServiceInterface = (*UserServiceAdapter)(nil)
var _ ExpenseServiceInterface = (*ExpenseServiceAdapter)(nil)
