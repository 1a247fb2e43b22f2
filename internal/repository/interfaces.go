// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/kakeibo/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
var ErrDuplicateEmail = errors.New("email already exists")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	// 大文字小文字は区別する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はプロフィール項目（name, last_name, email, cellphone）を上書き更新する。
	// メールアドレスが他ユーザーと重複する場合はErrDuplicateEmailを返す。
	Update(ctx context.Context, user *model.User) error

	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// DeleteWithExpenses はユーザーと所有する全支出を同一トランザクションで削除する。
	DeleteWithExpenses(ctx context.Context, id string) error
}

// ExpenseRepository は支出データの永続化インターフェース。
type ExpenseRepository interface {
	// FindByID は指定IDの支出を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Expense, error)

	// Create は支出を作成し、採番されたIDを返す。
	Create(ctx context.Context, expense *model.Expense) (int64, error)

	// Delete は指定IDの支出を削除する。
	Delete(ctx context.Context, id int64) error

	// ListByUserID はユーザーの全支出をID昇順（作成順）で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Expense, error)
}
