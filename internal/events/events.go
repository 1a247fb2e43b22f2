// Package events は台帳・アカウントのドメインイベント発行を提供する。
// 発行はベストエフォートで、失敗してもリクエスト処理は継続する。
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Type はイベント種別。AMQPのルーティングキーとしても使われる。
type Type string

const (
	TypeExpenseCreated Type = "expense.created"
	TypeExpenseDeleted Type = "expense.deleted"
	TypeUserDeleted    Type = "user.deleted"
)

// Event は発行されるメッセージ本体。
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"userId"`
	ExpenseID  *int64    `json:"expenseId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ExpenseCreated は支出作成イベントを生成する。
func ExpenseCreated(userID string, expenseID int64, at time.Time) Event {
	return Event{Type: TypeExpenseCreated, UserID: userID, ExpenseID: &expenseID, OccurredAt: at.UTC()}
}

// ExpenseDeleted は支出削除イベントを生成する。
func ExpenseDeleted(userID string, expenseID int64, at time.Time) Event {
	return Event{Type: TypeExpenseDeleted, UserID: userID, ExpenseID: &expenseID, OccurredAt: at.UTC()}
}

// UserDeleted は退会イベントを生成する。
func UserDeleted(userID string, at time.Time) Event {
	return Event{Type: TypeUserDeleted, UserID: userID, OccurredAt: at.UTC()}
}

// JSON はイベントをJSONにエンコードする。
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher はイベント発行のインターフェース。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher は何もしないPublisher。AMQP未設定時に使用する。
type NopPublisher struct{}

// Publish は常にnilを返す。
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Emit はイベントを発行し、失敗時は警告ログを出して握りつぶす。
// publisherがnilの場合は何もしない。
func Emit(ctx context.Context, publisher Publisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "イベントの発行に失敗しました",
			slog.String("type", string(event.Type)),
			slog.String("user_id", event.UserID),
			slog.String("error", err.Error()),
		)
	}
}
