// Package credential はパスワードのハッシュ化と検証、パスワードポリシーを提供する。
package credential

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Cost はbcryptのワークファクタ。ビルド時に固定する。
const Cost = 10

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// MaxPasswordBytes はパスワードの最大バイト数。bcryptが扱える上限。
const MaxPasswordBytes = 72

// ErrPasswordTooLong はパスワードがMaxPasswordBytesを超える場合のエラー。
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// パスワードポリシー違反コード
const (
	RuleMinLength = "required_min_length"
	RuleMaxLength = "required_max_length"
	RuleUppercase = "required_one_uppercase"
	RuleLowercase = "required_one_lowercase"
	RuleNumber    = "required_one_number"
	RuleSpecial   = "required_one_special"
)

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`\W`)
)

// Hash は平文パスワードをbcryptでハッシュ化する。
// ソルトは呼び出しごとに生成されるため、同じ入力でも結果は毎回異なる。
func Hash(cleartext string) (string, error) {
	if len(cleartext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(cleartext), Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Verify は平文パスワードがハッシュと一致するかを返す。
// ハッシュが不正な形式の場合もfalseを返す。
func Verify(cleartext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(cleartext)) == nil
}

// ValidatePassword はパスワードポリシーを検証し、違反したルールのコードを返す。
// 違反がなければ空のスライスを返す。
//
// ルール: 6文字以上かつ72バイト以下、英大文字・英小文字・数字・記号をそれぞれ1文字以上含む。
func ValidatePassword(pw string) []string {
	violations := []string{}
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		violations = append(violations, RuleMinLength)
	}
	if len(pw) > MaxPasswordBytes {
		violations = append(violations, RuleMaxLength)
	}
	if !upperRe.MatchString(pw) {
		violations = append(violations, RuleUppercase)
	}
	if !lowerRe.MatchString(pw) {
		violations = append(violations, RuleLowercase)
	}
	if !digitRe.MatchString(pw) {
		violations = append(violations, RuleNumber)
	}
	if !specialRe.MatchString(pw) {
		violations = append(violations, RuleSpecial)
	}
	return violations
}
