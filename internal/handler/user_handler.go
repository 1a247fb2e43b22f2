package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/kakeibo/internal/middleware"
	"github.com/hitoshi/kakeibo/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Register はユーザーを登録し、採番したIDを返す。
	Register(ctx context.Context, in user.RegisterInput) (string, error)

	// Signin は資格情報を検証してセッショントークンを発行する。
	Signin(ctx context.Context, email, password string) (*signinResponse, error)

	// GetProfile はユーザーのプロフィールを返す。
	GetProfile(ctx context.Context, userID string) (*profileResponse, error)

	// UpdateProfile はプロフィールの可変項目を置き換える。
	UpdateProfile(ctx context.Context, in user.UpdateProfileInput) (*profileResponse, error)

	// DeleteAccount はユーザーと所有する全支出を削除する。
	DeleteAccount(ctx context.Context, userID string) error

	// ChangePassword は現在のパスワードを検証してから新しいパスワードに置き換える。
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// --- リクエスト/レスポンス型 ---

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	ID        *string `json:"id"`
	Name      string  `json:"name"`
	LastName  *string `json:"lastName"`
	Email     string  `json:"email"`
	Cellphone *string `json:"cellphone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type idResponse[T any] struct {
	ID T `json:"id"`
}

type signinUserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type signinResponse struct {
	User      signinUserResponse `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// profileResponse はプロフィールのレスポンス型。パスワードハッシュは含まない。
type profileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LastName  *string   `json:"lastName"`
	Email     string    `json:"email"`
	Cellphone *string   `json:"cellphone"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Register はユーザーを登録する。
// POST /user/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	if apiErr := firstError(
		validateRequired(req.Name, "name_required", "名前は必須です。"),
		validateEmail(req.Email),
		validatePassword(req.Password, "password_required"),
	); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	id, err := h.service.Register(r.Context(), user.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, idResponse[string]{ID: id})
}

// Signin はメールアドレスとパスワードでサインインし、トークンを返す。
// POST /user/signin
func (h *UserHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// サインインではパスワードポリシーを検証しない（登録済みの値と照合するだけ）
	if apiErr := firstError(
		validateEmail(req.Email),
		validateRequired(req.Password, "password_required", "パスワードは必須です。"),
	); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	resp, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetProfile は認証済みユーザーのプロフィールを返す。
// GET /user
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile は認証済みユーザーのプロフィールを置き換える。
// PUT /user
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	if apiErr := firstError(
		validateRequired(req.Name, "name_required", "名前は必須です。"),
		validateEmail(req.Email),
	); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), user.UpdateProfileInput{
		CallerID:  userID,
		TargetID:  req.ID,
		Name:      req.Name,
		Email:     req.Email,
		LastName:  req.LastName,
		Cellphone: req.Cellphone,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// DeleteAccount は認証済みユーザーを退会させる。所有する支出もすべて削除する。
// DELETE /user
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "ユーザーを削除しました。"})
}

// ChangePassword は認証済みユーザーのパスワードを変更する。
// PUT /user/changePassword
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	if apiErr := firstError(
		validateRequired(req.CurrentPassword, "currentPassword_required", "現在のパスワードは必須です。"),
		validatePassword(req.NewPassword, "newPassword_required"),
	); apiErr != nil {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "パスワードを変更しました。"})
}
