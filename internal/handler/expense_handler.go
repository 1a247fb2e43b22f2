package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/kakeibo/internal/expense"
	"github.com/hitoshi/kakeibo/internal/middleware"
	"github.com/hitoshi/kakeibo/internal/model"
)

// ExpenseServiceInterface は支出ハンドラーが必要とするサービスインターフェース。
type ExpenseServiceInterface interface {
	// AddExpense は支出を作成し、採番されたIDを返す。
	AddExpense(ctx context.Context, in expense.AddExpenseInput) (int64, error)

	// DeleteExpense は呼び出し元が所有する支出を削除する。
	DeleteExpense(ctx context.Context, expenseID int64, callerID string) error

	// ListExpenses は呼び出し元の支出を月・件数上限で絞り込んで返す。
	ListExpenses(ctx context.Context, ownerID string, month, maxSize *string) ([]expenseResponse, error)

	// ListCategories はカテゴリ一覧を返す。
	ListCategories() []categoryResponse

	// TotalForMonth は指定月の支出合計を返す。
	TotalForMonth(ctx context.Context, ownerID, month string) (*monthlyTotalResponse, error)
}

// --- リクエスト/レスポンス型 ---

// addExpenseRequest は支出作成のリクエスト。
// valueはJSONの数値・文字列のどちらでも受け付け、浮動小数点を経由せずに10進数として解釈する。
type addExpenseRequest struct {
	CategoryID *int             `json:"categoryId"`
	Date       string           `json:"date"`
	Time       string           `json:"time"`
	Value      *decimal.Decimal `json:"value"`
}

// expenseResponse は支出のレスポンス型。
// date/timeは台帳のタイムゾーンでの表現、occurredAtはUTC。
type expenseResponse struct {
	ID         int64     `json:"id"`
	CategoryID int       `json:"categoryId"`
	Value      string    `json:"value"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	OccurredAt time.Time `json:"occurredAt"`
}

type categoryResponse struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type monthlyTotalResponse struct {
	Month int    `json:"month"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

// ExpenseHandler は支出台帳のHTTPハンドラー。
type ExpenseHandler struct {
	service ExpenseServiceInterface
}

// NewExpenseHandler はExpenseHandlerを生成する。
func NewExpenseHandler(service ExpenseServiceInterface) *ExpenseHandler {
	return &ExpenseHandler{
		service: service,
	}
}

// AddExpense は支出を作成する。
// POST /expense
func (h *ExpenseHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addExpenseRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	if apiErr := validateAddExpense(&req); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	id, err := h.service.AddExpense(r.Context(), expense.AddExpenseInput{
		OwnerID:    userID,
		CategoryID: *req.CategoryID,
		Date:       req.Date,
		Time:       req.Time,
		Value:      *req.Value,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, idResponse[int64]{ID: id})
}

func validateAddExpense(req *addExpenseRequest) *model.APIError {
	if req.CategoryID == nil {
		return model.NewValidationError("categoryId_required", "カテゴリIDは必須です。")
	}
	if apiErr := firstError(
		validateRequired(req.Date, "date_required", "日付は必須です。"),
		validateRequired(req.Time, "time_required", "時刻は必須です。"),
	); apiErr != nil {
		return apiErr
	}
	if req.Value == nil {
		return model.NewValidationError("value_required", "金額は必須です。")
	}
	return nil
}

// DeleteExpense は支出を削除する。
// DELETE /expense/{id}
func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	rawID := chi.URLParam(r, "id")
	expenseID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || expenseID <= 0 {
		writeValidationError(w, codeInvalidExpenseID, "支出IDが不正です: "+strconv.Quote(rawID))
		return
	}

	if err := h.service.DeleteExpense(r.Context(), expenseID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "支出を削除しました。"})
}

// ListExpenses は認証済みユーザーの支出一覧を返す。
// GET /expense/list-all?month=&maxSize=
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	expenses, err := h.service.ListExpenses(r.Context(), userID,
		optionalQuery(query, "month"), optionalQuery(query, "maxSize"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, expenses)
}

// ListCategories はカテゴリ一覧を返す。
// GET /expense/categories
func (h *ExpenseHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListCategories())
}

// TotalForMonth は指定月の支出合計を返す。
// GET /expense/total-month/{month}
func (h *ExpenseHandler) TotalForMonth(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	total, err := h.service.TotalForMonth(r.Context(), userID, chi.URLParam(r, "month"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, total)
}

// optionalQuery はクエリパラメータが存在する場合のみ値へのポインタを返す。
// 空文字で指定された場合も「指定あり」として扱い、サービス層の検証に委ねる。
func optionalQuery(query map[string][]string, key string) *string {
	values, ok := query[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
