package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category は支出カテゴリの静的な参照エントリを表す。
type Category struct {
	ID    int
	Label string
}

// Expense はユーザーが所有する支出レコードを表す。
// OccurredAtは日付と時刻を結合した時点で、UTCで保存される。
type Expense struct {
	ID         int64
	UserID     string
	CategoryID int
	Value      decimal.Decimal
	OccurredAt time.Time
	CreatedAt  time.Time
}

// MonthlyTotal は指定月の支出集計を表す。
// Monthは0始まりの月（0=1月）。
type MonthlyTotal struct {
	Month int
	Total decimal.Decimal
	Count int
}
