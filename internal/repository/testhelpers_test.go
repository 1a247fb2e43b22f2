package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hitoshi/kakeibo/internal/database"
	"github.com/hitoshi/kakeibo/internal/model"
)

// newTestDB はマイグレーション済みのSQLiteデータベースを一時ディレクトリに作成する。
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "repo.db")
	require.NoError(t, database.RunMigrations(dbURL))

	db, err := database.Open(dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func newTestUser(id, email string) *model.User {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &model.User{
		ID:           id,
		Name:         "Alice",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
