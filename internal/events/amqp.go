package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second
	// redialInterval は再接続に失敗した後、次に接続を試みるまでの最短間隔。
	redialInterval = 5 * time.Second
)

// errBrokerUnavailable は再接続の待機中に発行しようとした場合のエラー。
var errBrokerUnavailable = errors.New("AMQP broker unavailable")

// channel はAMQPPublisherが使用するチャネル操作。*amqp.Channelが満たす。
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// session はブローカーとの1回分の接続。
// closedはチャネルまたは接続が閉じられると値を受け取るか閉じられる。
type session struct {
	conn   io.Closer
	ch     channel
	closed <-chan *amqp.Error
}

func (s *session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *session) close() error {
	var firstErr error
	if s.ch != nil {
		if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			firstErr = fmt.Errorf("close channel: %w", err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) && firstErr == nil {
			firstErr = fmt.Errorf("close connection: %w", err)
		}
	}
	return firstErr
}

// AMQPPublisher はRabbitMQのdirect exchangeにイベントを発行する。
// ルーティングキーはイベント種別。
// ブローカーの再起動などで接続が閉じられた場合は、次の発行時に再接続する。
type AMQPPublisher struct {
	mu       sync.Mutex
	sess     *session
	dial     func() (*session, error)
	exchange string
	now      func() time.Time
	nextDial time.Time
}

// NewAMQPPublisher はブローカーに接続し、durableなdirect exchangeを宣言する。
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	dial := func() (*session, error) { return dialSession(url, exchange) }
	sess, err := dial()
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{sess: sess, dial: dial, exchange: exchange, now: time.Now}, nil
}

func dialSession(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	// 接続が閉じられるとチャネルも閉じられるため、チャネル側の通知だけを見ればよい
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	return &session{conn: conn, ch: ch, closed: closed}, nil
}

// newAMQPPublisherWithChannel は任意のチャネルでAMQPPublisherを生成する（テスト用）。
func newAMQPPublisherWithChannel(ch channel, exchange string, now func() time.Time) *AMQPPublisher {
	return &AMQPPublisher{sess: &session{ch: ch}, exchange: exchange, now: now}
}

// Publish はイベントを永続メッセージとして発行する。
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := event.JSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		p.exchange,         // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.DebugContext(ctx, "イベントを発行しました",
		slog.String("type", string(event.Type)),
		slog.String("exchange", p.exchange),
	)
	return nil
}

// channelLocked は使用可能なチャネルを返す。接続が閉じられていれば再接続する。
// 再接続に失敗した場合はredialInterval経過まで接続を試みない。
func (p *AMQPPublisher) channelLocked() (channel, error) {
	if p.sess != nil && !p.sess.isClosed() {
		return p.sess.ch, nil
	}
	if p.sess != nil {
		p.sess.close()
		p.sess = nil
		slog.Warn("AMQP接続が閉じられました。再接続します", slog.String("exchange", p.exchange))
	}
	if p.dial == nil {
		return nil, errBrokerUnavailable
	}

	now := p.now()
	if now.Before(p.nextDial) {
		return nil, errBrokerUnavailable
	}

	sess, err := p.dial()
	if err != nil {
		p.nextDial = now.Add(redialInterval)
		return nil, fmt.Errorf("reconnect AMQP: %w", err)
	}
	p.sess = sess
	slog.Info("AMQP publisher reconnected", slog.String("exchange", p.exchange))
	return sess.ch, nil
}

// Close はチャネルと接続を閉じる。
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess == nil {
		return nil
	}
	err := p.sess.close()
	p.sess = nil
	// Close後は再接続しない
	p.dial = nil
	return err
}

var _ Publisher = (*AMQPPublisher)(nil)
