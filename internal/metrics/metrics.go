// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// サインイン結果のラベル値。
const (
	SigninSuccess       = "success"
	SigninUnknownEmail  = "unknown_email"
	SigninWrongPassword = "wrong_password"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSignin(outcome string)
	RecordRegistration()
	RecordAccountDeleted()
	RecordExpenseCreated()
	RecordExpenseDeleted()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	signins         *prometheus.CounterVec
	registrations   prometheus.Counter
	accountsDeleted prometheus.Counter
	expensesCreated prometheus.Counter
	expensesDeleted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kakeibo_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kakeibo_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		signins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kakeibo_signin_total",
			Help: "結果別のサインイン試行数",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakeibo_registrations_total",
			Help: "登録されたユーザーの合計数",
		}),
		accountsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakeibo_accounts_deleted_total",
			Help: "退会したユーザーの合計数",
		}),
		expensesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakeibo_expenses_created_total",
			Help: "作成された支出の合計数",
		}),
		expensesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kakeibo_expenses_deleted_total",
			Help: "削除された支出の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.signins,
		c.registrations,
		c.accountsDeleted,
		c.expensesCreated,
		c.expensesDeleted,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSignin はサインインの結果を記録する。
func (c *Collector) RecordSignin(outcome string) {
	c.signins.WithLabelValues(outcome).Inc()
}

// RecordRegistration はユーザー登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordAccountDeleted は退会を記録する。
func (c *Collector) RecordAccountDeleted() {
	c.accountsDeleted.Inc()
}

// RecordExpenseCreated は支出作成を記録する。
func (c *Collector) RecordExpenseCreated() {
	c.expensesCreated.Inc()
}

// RecordExpenseDeleted は支出削除を記録する。
func (c *Collector) RecordExpenseDeleted() {
	c.expensesDeleted.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordHTTPStatus(int)                {}
func (Nop) RecordRequestLatency(time.Duration) {}
func (Nop) RecordSignin(string)                {}
func (Nop) RecordRegistration()                {}
func (Nop) RecordAccountDeleted()              {}
func (Nop) RecordExpenseCreated()              {}
func (Nop) RecordExpenseDeleted()              {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
