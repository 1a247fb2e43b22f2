// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュで、APIレスポンスには決して含めない。
type User struct {
	ID           string
	Name         string
	LastName     *string
	Email        string
	Cellphone    *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile はユーザーの公開可能なプロフィール情報を表す。
type Profile struct {
	ID        string
	Name      string
	LastName  *string
	Email     string
	Cellphone *string
	CreatedAt time.Time
}

// Profile はUserからパスワードハッシュを除いたプロフィールを返す。
func (u *User) Profile() *Profile {
	return &Profile{
		ID:        u.ID,
		Name:      u.Name,
		LastName:  u.LastName,
		Email:     u.Email,
		Cellphone: u.Cellphone,
		CreatedAt: u.CreatedAt,
	}
}
