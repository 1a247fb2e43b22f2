// Package model はドメインモデルを定義する。
package model

import "fmt"

// ErrorKind はサービス層が返す失敗の種別を表す。
// 境界（HTTPハンドラー）はこの種別をステータスコードに変換する。
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindBadRequest   ErrorKind = "bad_request"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindInternal     ErrorKind = "internal"
)

// APIError は統一エラーフォーマットを表す。
// Codeは機械判読用のコードで、クライアントはこれで分岐する。
type APIError struct {
	Kind     ErrorKind // 失敗の種別
	Code     string    // エラーコード
	Message  string    // 開発者向けメッセージ
	Category string    // カテゴリ: auth, validation, user, expense, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound           = "not_found_user"
	ErrCodeEmailNotRegistered     = "email_not_registered"
	ErrCodeIncorrectPassword      = "incorrect_password"
	ErrCodeEmailAlreadyRegistered = "email_already_registered"
	ErrCodeInvalidCurrentPassword = "invalid_current_password"
	ErrCodeProfileUpdateForbidden = "user_not_allowed_to_update_profile"
	ErrCodeCategoryNotFound       = "not_found_category_by_category_id"
	ErrCodeExpenseNotFound        = "not_found_expense_id"
	ErrCodeExpenseDeleteForbidden = "user_not_allowed_to_delete_expense"
	ErrCodeInvalidMonth           = "invalid_month"
	ErrCodeInvalidMaxSize         = "invalid_max_size"
	ErrCodeInvalidDate            = "invalid_date"
	ErrCodeInvalidTime            = "invalid_time"
	ErrCodeInvalidExpenseValue    = "invalid_expense_value"
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInternal               = "internal_error"
)

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "user",
	}
}

// NewEmailNotRegisteredError はサインイン時にメールアドレスが未登録の場合のエラーを生成する。
func NewEmailNotRegisteredError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeEmailNotRegistered,
		Message:  "メールアドレスが登録されていません。",
		Category: "auth",
	}
}

// NewIncorrectPasswordError はサインイン時のパスワード不一致エラーを生成する。
func NewIncorrectPasswordError() *APIError {
	return &APIError{
		Kind:     KindUnauthorized,
		Code:     ErrCodeIncorrectPassword,
		Message:  "パスワードが正しくありません。",
		Category: "auth",
	}
}

// NewEmailAlreadyRegisteredError はメールアドレス重複エラーを生成する。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "user",
	}
}

// NewInvalidCurrentPasswordError はパスワード変更時に現在のパスワードが一致しない場合のエラーを生成する。
func NewInvalidCurrentPasswordError() *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidCurrentPassword,
		Message:  "現在のパスワードが正しくありません。",
		Category: "auth",
	}
}

// NewProfileUpdateForbiddenError は他ユーザーのプロフィール更新を試みた場合のエラーを生成する。
func NewProfileUpdateForbiddenError() *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     ErrCodeProfileUpdateForbidden,
		Message:  "他のユーザーのプロフィールは更新できません。",
		Category: "user",
	}
}

// NewCategoryNotFoundError はカテゴリが存在しない場合のエラーを生成する。
func NewCategoryNotFoundError(categoryID int) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定されたカテゴリが見つかりません: %d", categoryID),
		Category: "expense",
	}
}

// NewExpenseNotFoundError は支出が存在しない場合のエラーを生成する。
func NewExpenseNotFoundError(expenseID int64) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeExpenseNotFound,
		Message:  fmt.Sprintf("指定された支出が見つかりません: %d", expenseID),
		Category: "expense",
	}
}

// NewExpenseDeleteForbiddenError は所有者以外が支出を削除しようとした場合のエラーを生成する。
func NewExpenseDeleteForbiddenError() *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     ErrCodeExpenseDeleteForbidden,
		Message:  "この支出を削除する権限がありません。",
		Category: "expense",
	}
}

// NewInvalidMonthError は月指定が0〜11の整数でない場合のエラーを生成する。
func NewInvalidMonthError(month string) *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidMonth,
		Message:  fmt.Sprintf("無効な月です: %q（0〜11で指定）", month),
		Category: "validation",
	}
}

// NewInvalidMaxSizeError は件数上限が0以上の整数でない場合のエラーを生成する。
func NewInvalidMaxSizeError(maxSize string) *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidMaxSize,
		Message:  fmt.Sprintf("無効な件数上限です: %q", maxSize),
		Category: "validation",
	}
}

// NewInvalidDateError は日付がYYYY-MM-DD形式でない場合のエラーを生成する。
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %q（YYYY-MM-DD）", date),
		Category: "validation",
	}
}

// NewInvalidTimeError は時刻がHH:MM形式でない場合のエラーを生成する。
func NewInvalidTimeError(t string) *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidTime,
		Message:  fmt.Sprintf("無効な時刻です: %q（HH:MM）", t),
		Category: "validation",
	}
}

// NewInvalidExpenseValueError は金額が正の値でない、または小数点以下が2桁を超える場合のエラーを生成する。
func NewInvalidExpenseValueError(value string) *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidExpenseValue,
		Message:  fmt.Sprintf("無効な金額です: %q（0より大きく、小数点以下2桁まで）", value),
		Category: "validation",
	}
}

// NewValidationError は境界での入力検証エラーを生成する。
// codeにはフィールド単位の検証コード（例: name_required）を渡す。
func NewValidationError(code, message string) *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     code,
		Message:  message,
		Category: "validation",
	}
}
