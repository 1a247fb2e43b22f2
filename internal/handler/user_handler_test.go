package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/kakeibo/internal/model"
	"github.com/hitoshi/kakeibo/internal/user"
)

const validPassword = "Secret1!"

// --- POST /user/register テスト ---

func TestUserHandler_Register_Success(t *testing.T) {
	var got user.RegisterInput
	svc := &mockUserService{
		registerFn: func(ctx context.Context, in user.RegisterInput) (string, error) {
			got = in
			return "user-123", nil
		},
	}
	h := NewUserHandler(svc)

	req := newJSONRequest(http.MethodPost, "/user/register",
		`{"name":"Alice","email":"alice@example.com","password":"`+validPassword+`"}`)
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusCreated, w.Body.String())
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ID != "user-123" {
		t.Errorf("id = %q, want %q", body.ID, "user-123")
	}
	if got.Name != "Alice" || got.Email != "alice@example.com" || got.Password != validPassword {
		t.Errorf("service input = %+v", got)
	}
}

func TestUserHandler_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"名前なし", `{"email":"a@x.com","password":"` + validPassword + `"}`, "name_required"},
		{"名前が空白のみ", `{"name":"   ","email":"a@x.com","password":"` + validPassword + `"}`, "name_required"},
		{"メールなし", `{"name":"A","password":"` + validPassword + `"}`, "email_required"},
		{"メール形式不正", `{"name":"A","email":"not-an-email","password":"` + validPassword + `"}`, "invalid_email"},
		{"表示名付きメール", `{"name":"A","email":"A <a@x.com>","password":"` + validPassword + `"}`, "invalid_email"},
		{"パスワードなし", `{"name":"A","email":"a@x.com"}`, "password_required"},
		{"パスワード短すぎ", `{"name":"A","email":"a@x.com","password":"Ab1!"}`, "required_min_length"},
		{"大文字なし", `{"name":"A","email":"a@x.com","password":"secret1!"}`, "required_one_uppercase"},
		{"小文字なし", `{"name":"A","email":"a@x.com","password":"SECRET1!"}`, "required_one_lowercase"},
		{"数字なし", `{"name":"A","email":"a@x.com","password":"Secret!!"}`, "required_one_number"},
		{"記号なし", `{"name":"A","email":"a@x.com","password":"Secret11"}`, "required_one_special"},
		{"未知のフィールド", `{"name":"A","email":"a@x.com","password":"` + validPassword + `","role":"admin"}`, "unknown_field"},
		{"不正なJSON", `{"name":`, "invalid_request_body"},
		{"型不一致", `{"name":123}`, "invalid_request_body"},
		{"複数のJSON値", `{"name":"A"} {}`, "invalid_request_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockUserService{
				registerFn: func(ctx context.Context, in user.RegisterInput) (string, error) {
					called = true
					return "", nil
				},
			}
			h := NewUserHandler(svc)

			w := httptest.NewRecorder()
			h.Register(w, newJSONRequest(http.MethodPost, "/user/register", tt.body))

			assertAPIError(t, w, http.StatusBadRequest, tt.wantCode)
			if called {
				t.Error("service must not be called on validation failure")
			}
		})
	}
}

func TestUserHandler_Register_Conflict(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(ctx context.Context, in user.RegisterInput) (string, error) {
			return "", model.NewEmailAlreadyRegisteredError()
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.Register(w, newJSONRequest(http.MethodPost, "/user/register",
		`{"name":"A","email":"a@x.com","password":"`+validPassword+`"}`))

	assertAPIError(t, w, http.StatusConflict, model.ErrCodeEmailAlreadyRegistered)
}

func TestUserHandler_Register_InternalError(t *testing.T) {
	svc := &mockUserService{
		registerFn: func(ctx context.Context, in user.RegisterInput) (string, error) {
			return "", errors.New("register: connection refused")
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.Register(w, newJSONRequest(http.MethodPost, "/user/register",
		`{"name":"A","email":"a@x.com","password":"`+validPassword+`"}`))

	assertAPIError(t, w, http.StatusInternalServerError, model.ErrCodeInternal)
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("internal error details must not leak into the response")
	}
}

// --- POST /user/signin テスト ---

func TestUserHandler_Signin_Success(t *testing.T) {
	expiresAt := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	svc := &mockUserService{
		signinFn: func(ctx context.Context, email, password string) (*signinResponse, error) {
			return &signinResponse{
				User:      signinUserResponse{ID: "user-1", Name: "Alice", Email: email},
				Token:     "token-abc",
				ExpiresAt: expiresAt,
			}, nil
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.Signin(w, newJSONRequest(http.MethodPost, "/user/signin",
		`{"email":"alice@example.com","password":"whatever"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["token"] != "token-abc" {
		t.Errorf("token = %v, want %q", body["token"], "token-abc")
	}
	if body["expiresAt"] != "2024-03-06T10:00:00Z" {
		t.Errorf("expiresAt = %v", body["expiresAt"])
	}
	u, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("user field missing: %v", body)
	}
	if u["id"] != "user-1" || u["email"] != "alice@example.com" {
		t.Errorf("user = %v", u)
	}
	if _, ok := u["passwordHash"]; ok {
		t.Error("password hash must never be serialized")
	}
}

func TestUserHandler_Signin_DoesNotApplyPasswordPolicy(t *testing.T) {
	var gotPassword string
	svc := &mockUserService{
		signinFn: func(ctx context.Context, email, password string) (*signinResponse, error) {
			gotPassword = password
			return nil, model.NewIncorrectPasswordError()
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.Signin(w, newJSONRequest(http.MethodPost, "/user/signin", `{"email":"a@x.com","password":"weak"}`))

	assertAPIError(t, w, http.StatusUnauthorized, model.ErrCodeIncorrectPassword)
	if gotPassword != "weak" {
		t.Errorf("password passed to service = %q, want %q", gotPassword, "weak")
	}
}

func TestUserHandler_Signin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"未登録メール", `{"email":"a@x.com","password":"p"}`, model.NewEmailNotRegisteredError(), http.StatusNotFound, model.ErrCodeEmailNotRegistered},
		{"パスワード不一致", `{"email":"a@x.com","password":"p"}`, model.NewIncorrectPasswordError(), http.StatusUnauthorized, model.ErrCodeIncorrectPassword},
		{"メールなし", `{"password":"p"}`, nil, http.StatusBadRequest, "email_required"},
		{"パスワードなし", `{"email":"a@x.com"}`, nil, http.StatusBadRequest, "password_required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				signinFn: func(ctx context.Context, email, password string) (*signinResponse, error) {
					return nil, tt.serviceErr
				},
			}
			h := NewUserHandler(svc)

			w := httptest.NewRecorder()
			h.Signin(w, newJSONRequest(http.MethodPost, "/user/signin", tt.body))

			assertAPIError(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

// --- GET /user テスト ---

func TestUserHandler_GetProfile_Success(t *testing.T) {
	createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &mockUserService{
		getProfileFn: func(ctx context.Context, userID string) (*profileResponse, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return &profileResponse{
				ID:        userID,
				Name:      "Alice",
				LastName:  strPtr("Smith"),
				Email:     "alice@example.com",
				CreatedAt: createdAt,
			}, nil
		},
	}
	h := NewUserHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/user", nil), "user-123")
	w := httptest.NewRecorder()

	h.GetProfile(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["lastName"] != "Smith" {
		t.Errorf("lastName = %v", body["lastName"])
	}
	if v, ok := body["cellphone"]; !ok || v != nil {
		t.Errorf("cellphone = %v, want null", v)
	}
	if body["createdAt"] != "2024-01-02T03:04:05Z" {
		t.Errorf("createdAt = %v", body["createdAt"])
	}
}

func TestUserHandler_GetProfile_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	// ユーザーIDを注入しない
	w := httptest.NewRecorder()
	h.GetProfile(w, httptest.NewRequest(http.MethodGet, "/user", nil))

	assertAPIError(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

func TestUserHandler_GetProfile_UserNotFound(t *testing.T) {
	svc := &mockUserService{
		getProfileFn: func(ctx context.Context, userID string) (*profileResponse, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.GetProfile(w, withUserID(httptest.NewRequest(http.MethodGet, "/user", nil), "ghost"))

	assertAPIError(t, w, http.StatusNotFound, model.ErrCodeUserNotFound)
}

// --- PUT /user テスト ---

func TestUserHandler_UpdateProfile_PassesCallerAndTarget(t *testing.T) {
	var got user.UpdateProfileInput
	svc := &mockUserService{
		updateProfileFn: func(ctx context.Context, in user.UpdateProfileInput) (*profileResponse, error) {
			got = in
			return &profileResponse{ID: in.CallerID, Name: in.Name, Email: in.Email}, nil
		},
	}
	h := NewUserHandler(svc)

	req := withUserID(newJSONRequest(http.MethodPut, "/user",
		`{"id":"user-123","name":"Bob","email":"bob@example.com","cellphone":"090"}`), "user-123")
	w := httptest.NewRecorder()

	h.UpdateProfile(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	if got.CallerID != "user-123" {
		t.Errorf("CallerID = %q", got.CallerID)
	}
	if got.TargetID == nil || *got.TargetID != "user-123" {
		t.Errorf("TargetID = %v", got.TargetID)
	}
	if got.LastName != nil {
		t.Errorf("LastName = %v, want nil", got.LastName)
	}
	if got.Cellphone == nil || *got.Cellphone != "090" {
		t.Errorf("Cellphone = %v", got.Cellphone)
	}
}

func TestUserHandler_UpdateProfile_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"他ユーザーID", `{"id":"other","name":"B","email":"b@x.com"}`, model.NewProfileUpdateForbiddenError(), http.StatusForbidden, model.ErrCodeProfileUpdateForbidden},
		{"ユーザー不在", `{"name":"B","email":"b@x.com"}`, model.NewUserNotFoundError(), http.StatusNotFound, model.ErrCodeUserNotFound},
		{"メール重複", `{"name":"B","email":"b@x.com"}`, model.NewEmailAlreadyRegisteredError(), http.StatusConflict, model.ErrCodeEmailAlreadyRegistered},
		{"名前なし", `{"email":"b@x.com"}`, nil, http.StatusBadRequest, "name_required"},
		{"メール形式不正", `{"name":"B","email":"bad"}`, nil, http.StatusBadRequest, "invalid_email"},
		{"パスワードは更新できない", `{"name":"B","email":"b@x.com","password":"x"}`, nil, http.StatusBadRequest, "unknown_field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				updateProfileFn: func(ctx context.Context, in user.UpdateProfileInput) (*profileResponse, error) {
					return nil, tt.serviceErr
				},
			}
			h := NewUserHandler(svc)

			w := httptest.NewRecorder()
			h.UpdateProfile(w, withUserID(newJSONRequest(http.MethodPut, "/user", tt.body), "user-123"))

			assertAPIError(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

// --- DELETE /user テスト ---

func TestUserHandler_DeleteAccount_Success(t *testing.T) {
	deleteCalled := false
	svc := &mockUserService{
		deleteAccountFn: func(ctx context.Context, userID string) error {
			deleteCalled = true
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return nil
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.DeleteAccount(w, withUserID(httptest.NewRequest(http.MethodDelete, "/user", nil), "user-123"))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !deleteCalled {
		t.Error("expected DeleteAccount to be called")
	}
}

func TestUserHandler_DeleteAccount_UserNotFound(t *testing.T) {
	svc := &mockUserService{
		deleteAccountFn: func(ctx context.Context, userID string) error {
			return model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.DeleteAccount(w, withUserID(httptest.NewRequest(http.MethodDelete, "/user", nil), "ghost"))

	assertAPIError(t, w, http.StatusNotFound, model.ErrCodeUserNotFound)
}

// --- PUT /user/changePassword テスト ---

func TestUserHandler_ChangePassword_Success(t *testing.T) {
	var gotCurrent, gotNew string
	svc := &mockUserService{
		changePasswordFn: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			gotCurrent, gotNew = currentPassword, newPassword
			return nil
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.ChangePassword(w, withUserID(newJSONRequest(http.MethodPut, "/user/changePassword",
		`{"currentPassword":"old","newPassword":"`+validPassword+`"}`), "user-123"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	if gotCurrent != "old" || gotNew != validPassword {
		t.Errorf("passwords = (%q, %q)", gotCurrent, gotNew)
	}
}

func TestUserHandler_ChangePassword_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"現在のパスワードなし", `{"newPassword":"` + validPassword + `"}`, nil, http.StatusBadRequest, "currentPassword_required"},
		{"新しいパスワードなし", `{"currentPassword":"old"}`, nil, http.StatusBadRequest, "newPassword_required"},
		{"ポリシー違反", `{"currentPassword":"old","newPassword":"short"}`, nil, http.StatusBadRequest, "required_min_length"},
		{"現在のパスワード不一致", `{"currentPassword":"old","newPassword":"` + validPassword + `"}`, model.NewInvalidCurrentPasswordError(), http.StatusBadRequest, model.ErrCodeInvalidCurrentPassword},
		{"ユーザー不在", `{"currentPassword":"old","newPassword":"` + validPassword + `"}`, model.NewUserNotFoundError(), http.StatusNotFound, model.ErrCodeUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				changePasswordFn: func(ctx context.Context, userID, currentPassword, newPassword string) error {
					return tt.serviceErr
				},
			}
			h := NewUserHandler(svc)

			w := httptest.NewRecorder()
			h.ChangePassword(w, withUserID(newJSONRequest(http.MethodPut, "/user/changePassword", tt.body), "user-123"))

			assertAPIError(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}
