// Package auth はセッショントークンの発行と検証を提供する。
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンが不正（署名不一致・形式不正・期限切れ等）であることを表す。
// 呼び出し側はerrors.Isで判定し、未認証レスポンスに変換する。
var ErrInvalidToken = errors.New("invalid token")

// Claims はトークンに埋め込まれるユーザーの識別情報。
type Claims struct {
	UserID string
	Name   string
	Email  string
}

// TokenConfig はトークンサービスの設定。
type TokenConfig struct {
	Secret []byte        // HS256署名鍵
	Issuer string        // issクレーム
	TTL    time.Duration // 有効期間
	Now    func() time.Time
}

// tokenClaims はJWTのパース・署名に使う内部クレーム型。
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// TokenService はHS256署名のJWTを発行・検証する。
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。
// 署名鍵が空の場合やTTLが0以下の場合はエラーを返す。
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive: %s", cfg.TTL)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenService{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}, nil
}

// Issue はクレームを埋め込んだ署名付きトークンと有効期限を返す。
func (s *TokenService) Issue(c Claims) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: c.UserID,
		Name:   c.Name,
		Email:  c.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify はトークンの署名・アルゴリズム・発行者・有効期限を検証し、クレームを返す。
// 失敗時は常にErrInvalidTokenをラップしたエラーを返す。
func (s *TokenService) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if strings.TrimSpace(parsed.UserID) == "" {
		return nil, fmt.Errorf("%w: userId claim is missing", ErrInvalidToken)
	}

	return &Claims{
		UserID: parsed.UserID,
		Name:   parsed.Name,
		Email:  parsed.Email,
	}, nil
}

// mapJWTError はjwtライブラリのエラーをErrInvalidTokenに変換する。
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: token is expired", ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: signature is invalid", ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: token is malformed", ErrInvalidToken)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
