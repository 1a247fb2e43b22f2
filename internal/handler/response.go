package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/kakeibo/internal/middleware"
	"github.com/hitoshi/kakeibo/internal/model"
)

// maxRequestBodySize はJSONリクエストボディの上限（1MB）。
const maxRequestBodySize = 1 << 20

// 境界での入力検証コード
const (
	codeUnknownField       = "unknown_field"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidExpenseID   = "invalid_expense_id"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをdstにデコードする。
// 未知のフィールドはunknown_field、不正なJSONはinvalid_request_bodyとして返す。
func decodeJSON(r *http.Request, dst any) *model.APIError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if field, ok := unknownField(err); ok {
			return model.NewValidationError(codeUnknownField,
				fmt.Sprintf("未知のフィールドです: %s", field))
		}
		return model.NewValidationError(codeInvalidRequestBody, "リクエストボディが不正です。")
	}
	if dec.More() {
		return model.NewValidationError(codeInvalidRequestBody, "リクエストボディが不正です。")
	}
	return nil
}

// unknownField はDisallowUnknownFieldsによるエラーからフィールド名を取り出す。
// encoding/jsonはこのエラーを型で公開していないため、メッセージで判定する。
func unknownField(err error) (string, bool) {
	const prefix = "json: unknown field "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
}

// writeValidationError は境界での入力検証エラーを400で書き込む。
func writeValidationError(w http.ResponseWriter, code, message string) {
	middleware.WriteAPIError(w, model.NewValidationError(code, message))
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// requireUserID は認証済みユーザーIDを取得する。
// 取得できない場合は401を書き込み、falseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, &model.APIError{
			Kind:     model.KindUnauthorized,
			Code:     model.ErrCodeUnauthorized,
			Message:  "認証が必要です。",
			Category: "auth",
		})
		return "", false
	}
	return userID, true
}
