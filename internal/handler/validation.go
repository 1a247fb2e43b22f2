package handler

import (
	"net/mail"
	"strings"

	"github.com/hitoshi/kakeibo/internal/credential"
	"github.com/hitoshi/kakeibo/internal/model"
)

// validateRequired は空文字（空白のみを含む）を未入力として扱う。
func validateRequired(value, code, message string) *model.APIError {
	if strings.TrimSpace(value) == "" {
		return model.NewValidationError(code, message)
	}
	return nil
}

// validateEmail はメールアドレスの必須チェックと形式チェックを行う。
// 表示名付きの形式（"Alice <a@x.com>"）は受け付けない。
func validateEmail(email string) *model.APIError {
	if apiErr := validateRequired(email, "email_required", "メールアドレスは必須です。"); apiErr != nil {
		return apiErr
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.NewValidationError("invalid_email", "メールアドレスの形式が正しくありません。")
	}
	return nil
}

// validatePassword はパスワードの必須チェックとパスワードポリシーの検証を行う。
// ポリシー違反時は最初に違反したルールのコードを返し、メッセージに全違反を列挙する。
func validatePassword(password, requiredCode string) *model.APIError {
	if password == "" {
		return model.NewValidationError(requiredCode, "パスワードは必須です。")
	}
	if violations := credential.ValidatePassword(password); len(violations) > 0 {
		return model.NewValidationError(violations[0],
			"パスワードがポリシーを満たしていません: "+strings.Join(violations, ", "))
	}
	return nil
}

// firstError は最初の非nilの検証エラーを返す。
func firstError(errs ...*model.APIError) *model.APIError {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
