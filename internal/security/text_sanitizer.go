// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力するプロフィールのテキスト項目から
// HTMLマークアップを除去し、プレーンテキストとして保存できるようにする。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はテキスト項目のサニタイズ機能のインターフェース。
type Sanitizer interface {
	// Sanitize はタグを除去し前後の空白を取り除いたプレーンテキストを返す。
	Sanitize(raw string) string
}

// TextSanitizer はbluemondayのStrictPolicyを使うSanitizerの実装。
// ポリシーは生成後に変更しないため、複数のgoroutineから安全に使用できる。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
// StrictPolicyはすべての要素と属性を許可しないため、テキストノードのみが残る。
// script/styleは中身ごと除去される。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去したプレーンテキストを返す。
// bluemondayが出力するHTMLエスケープ（&#39; など）は元の文字に戻す。
// 応答はJSONでありHTMLとして描画されないため、エスケープしたまま保存しない。
func (s *TextSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

var _ Sanitizer = (*TextSanitizer)(nil)
