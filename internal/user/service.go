// Package user はユーザー管理のドメインロジックを提供する。
// 登録・サインイン・プロフィール・退会・パスワード変更を扱う。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kakeibo/internal/auth"
	"github.com/hitoshi/kakeibo/internal/credential"
	"github.com/hitoshi/kakeibo/internal/events"
	"github.com/hitoshi/kakeibo/internal/metrics"
	"github.com/hitoshi/kakeibo/internal/model"
	"github.com/hitoshi/kakeibo/internal/repository"
	"github.com/hitoshi/kakeibo/internal/security"
)

// TokenIssuer はセッショントークン発行のインターフェース。
type TokenIssuer interface {
	Issue(claims auth.Claims) (string, time.Time, error)
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// SigninUser はサインイン応答に含まれるユーザー情報。
type SigninUser struct {
	ID    string
	Name  string
	Email string
}

// SigninResult はサインイン成功時の結果。
type SigninResult struct {
	User      SigninUser
	Token     string
	ExpiresAt time.Time
}

// UpdateProfileInput はプロフィール更新の入力。
// 可変項目はすべて置き換えられ、nilの任意項目は削除される。
type UpdateProfileInput struct {
	// CallerID は認証済みの呼び出し元ユーザーID。
	CallerID string
	// TargetID はリクエストボディで指定されたID。指定時はCallerIDと一致する必要がある。
	TargetID  *string
	Name      string
	Email     string
	LastName  *string
	Cellphone *string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	tokens    TokenIssuer
	sanitizer security.Sanitizer
	publisher events.Publisher
	metrics   metrics.MetricsCollector
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
// sanitizer, publisher, collectorがnilの場合は何もしない実装を使う。
func NewService(
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	sanitizer security.Sanitizer,
	publisher events.Publisher,
	collector metrics.MetricsCollector,
) *Service {
	if sanitizer == nil {
		sanitizer = security.NewTextSanitizer()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		userRepo:  userRepo,
		tokens:    tokens,
		sanitizer: sanitizer,
		publisher: publisher,
		metrics:   collector,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Register はユーザーを登録し、採番したIDを返す。
// メールアドレスが登録済みの場合はConflictを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return "", model.NewValidationError("name_required", "名前は必須です。")
	}

	hash, err := hashPassword("register", in.Password)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           s.newID(),
		Name:         name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", model.NewEmailAlreadyRegisteredError()
		}
		return "", fmt.Errorf("register: %w", err)
	}

	s.metrics.RecordRegistration()
	slog.InfoContext(ctx, "ユーザーを登録しました",
		slog.String("user_id", user.ID),
	)

	return user.ID, nil
}

// Signin はメールアドレスとパスワードを検証し、セッショントークンを発行する。
// 未登録のメールアドレスはNotFound、パスワード不一致はUnauthorizedを返す。
func (s *Service) Signin(ctx context.Context, email, password string) (*SigninResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}
	if user == nil {
		s.metrics.RecordSignin(metrics.SigninUnknownEmail)
		return nil, model.NewEmailNotRegisteredError()
	}

	if !credential.Verify(password, user.PasswordHash) {
		s.metrics.RecordSignin(metrics.SigninWrongPassword)
		return nil, model.NewIncorrectPasswordError()
	}

	token, expiresAt, err := s.tokens.Issue(auth.Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}

	s.metrics.RecordSignin(metrics.SigninSuccess)
	return &SigninResult{
		User:      SigninUser{ID: user.ID, Name: user.Name, Email: user.Email},
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// GetProfile はユーザーのプロフィールを返す。パスワードハッシュは含まない。
func (s *Service) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	user, err := s.findUser(ctx, "get profile", id)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

// UpdateProfile はプロフィールの可変項目を置き換える。
// 存在確認 → 本人確認 → 検証 の順に判定する。
func (s *Service) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*model.Profile, error) {
	user, err := s.findUser(ctx, "update profile", in.CallerID)
	if err != nil {
		return nil, err
	}

	if in.TargetID != nil && *in.TargetID != in.CallerID {
		return nil, model.NewProfileUpdateForbiddenError()
	}

	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name_required", "名前は必須です。")
	}

	user.Name = name
	user.Email = in.Email
	user.LastName = s.sanitizeOptional(in.LastName)
	user.Cellphone = s.sanitizeOptional(in.Cellphone)
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailAlreadyRegisteredError()
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return user.Profile(), nil
}

// DeleteAccount はユーザーと所有するすべての支出を削除する。
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	if _, err := s.findUser(ctx, "delete account", id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "退会処理を開始します",
		slog.String("user_id", id),
	)

	if err := s.userRepo.DeleteWithExpenses(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.metrics.RecordAccountDeleted()
	events.Emit(ctx, s.publisher, events.UserDeleted(id, s.now()))

	slog.InfoContext(ctx, "退会処理が完了しました",
		slog.String("user_id", id),
	)
	return nil
}

// ChangePassword は現在のパスワードを検証してから新しいパスワードに置き換える。
// 現在のパスワードが一致しない場合、保存済みハッシュは変更しない。
func (s *Service) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.findUser(ctx, "change password", id)
	if err != nil {
		return err
	}

	if !credential.Verify(currentPassword, user.PasswordHash) {
		return model.NewInvalidCurrentPasswordError()
	}

	hash, err := hashPassword("change password", newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	slog.InfoContext(ctx, "パスワードを変更しました",
		slog.String("user_id", id),
	)
	return nil
}

// hashPassword はパスワードをハッシュ化する。
// bcryptの上限を超えるパスワードは入力エラーとして返す。
func hashPassword(op, password string) (string, error) {
	hash, err := credential.Hash(password)
	if errors.Is(err, credential.ErrPasswordTooLong) {
		return "", model.NewValidationError(credential.RuleMaxLength, "パスワードは72バイト以内で入力してください。")
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hash, nil
}

// findUser はユーザーを取得し、存在しない場合はNotFoundを返す。
func (s *Service) findUser(ctx context.Context, op, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

func (s *Service) sanitizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	clean := s.sanitizer.Sanitize(*v)
	if clean == "" {
		return nil
	}
	return &clean
}
