package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kakeibo/internal/expense"
	"github.com/hitoshi/kakeibo/internal/middleware"
	"github.com/hitoshi/kakeibo/internal/user"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	registerFn       func(ctx context.Context, in user.RegisterInput) (string, error)
	signinFn         func(ctx context.Context, email, password string) (*signinResponse, error)
	getProfileFn     func(ctx context.Context, userID string) (*profileResponse, error)
	updateProfileFn  func(ctx context.Context, in user.UpdateProfileInput) (*profileResponse, error)
	deleteAccountFn  func(ctx context.Context, userID string) error
	changePasswordFn func(ctx context.Context, userID, currentPassword, newPassword string) error
}

func (m *mockUserService) Register(ctx context.Context, in user.RegisterInput) (string, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return "user-1", nil
}

func (m *mockUserService) Signin(ctx context.Context, email, password string) (*signinResponse, error) {
	if m.signinFn != nil {
		return m.signinFn(ctx, email, password)
	}
	return &signinResponse{}, nil
}

func (m *mockUserService) GetProfile(ctx context.Context, userID string) (*profileResponse, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID)
	}
	return &profileResponse{ID: userID}, nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, in user.UpdateProfileInput) (*profileResponse, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, in)
	}
	return &profileResponse{ID: in.CallerID, Name: in.Name, Email: in.Email}, nil
}

func (m *mockUserService) DeleteAccount(ctx context.Context, userID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID)
	}
	return nil
}

func (m *mockUserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, userID, currentPassword, newPassword)
	}
	return nil
}

// mockExpenseService はExpenseServiceInterfaceのモック実装。
type mockExpenseService struct {
	addExpenseFn     func(ctx context.Context, in expense.AddExpenseInput) (int64, error)
	deleteExpenseFn  func(ctx context.Context, expenseID int64, callerID string) error
	listExpensesFn   func(ctx context.Context, ownerID string, month, maxSize *string) ([]expenseResponse, error)
	listCategoriesFn func() []categoryResponse
	totalForMonthFn  func(ctx context.Context, ownerID, month string) (*monthlyTotalResponse, error)
}

func (m *mockExpenseService) AddExpense(ctx context.Context, in expense.AddExpenseInput) (int64, error) {
	if m.addExpenseFn != nil {
		return m.addExpenseFn(ctx, in)
	}
	return 1, nil
}

func (m *mockExpenseService) DeleteExpense(ctx context.Context, expenseID int64, callerID string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(ctx, expenseID, callerID)
	}
	return nil
}

func (m *mockExpenseService) ListExpenses(ctx context.Context, ownerID string, month, maxSize *string) ([]expenseResponse, error) {
	if m.listExpensesFn != nil {
		return m.listExpensesFn(ctx, ownerID, month, maxSize)
	}
	return []expenseResponse{}, nil
}

func (m *mockExpenseService) ListCategories() []categoryResponse {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn()
	}
	return []categoryResponse{}
}

func (m *mockExpenseService) TotalForMonth(ctx context.Context, ownerID, month string) (*monthlyTotalResponse, error) {
	if m.totalForMonthFn != nil {
		return m.totalForMonthFn(ctx, ownerID, month)
	}
	return &monthlyTotalResponse{Total: "0.00"}, nil
}

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// newJSONRequest はJSONボディ付きのテスト用リクエストを生成する。
func newJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

// assertAPIError はステータスコードとエラーコードを検証するヘルパー。
func assertAPIError(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, wantStatus, w.Body.String())
		return
	}
	body := parseAPIErrorResponse(t, w)
	if body.Code != wantCode {
		t.Errorf("code = %q, want %q", body.Code, wantCode)
	}
}

func strPtr(s string) *string {
	return &s
}
