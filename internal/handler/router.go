package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kakeibo/internal/metrics"
	"github.com/hitoshi/kakeibo/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	// TrustProxy がtrueの場合、X-Forwarded-For等からクライアントIPを復元する。
	TrustProxy bool
	Logger     *slog.Logger

	// 監視
	HealthChecker    HealthChecker
	MetricsCollector metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer

	// ユーザー
	UserService UserServiceInterface

	// 支出
	ExpenseService ExpenseServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → (RealIP) → Recovery → SecurityHeaders → CORS → Logging → Metrics
//
// 認証が必要なルートでは、さらに Auth → RateLimit(General) を適用する。
// 登録・サインインは認証の外に置き、IP単位のレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.MetricsCollector
	if collector == nil {
		collector = metrics.Nop{}
	}

	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	// CORS ミドルウェアはプリフライトを認証より先に処理する
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))

	userHandler := NewUserHandler(deps.UserService)
	expenseHandler := NewExpenseHandler(deps.ExpenseService)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())
		r.Post("/user/register", userHandler.Register)
		r.Post("/user/signin", userHandler.Signin)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		r.Get("/user", userHandler.GetProfile)
		r.Put("/user", userHandler.UpdateProfile)
		r.Delete("/user", userHandler.DeleteAccount)
		r.Put("/user/changePassword", userHandler.ChangePassword)

		// 支出台帳
		r.Post("/expense", expenseHandler.AddExpense)
		r.Get("/expense/list-all", expenseHandler.ListExpenses)
		r.Get("/expense/categories", expenseHandler.ListCategories)
		r.Get("/expense/total-month/{month}", expenseHandler.TotalForMonth)
		r.Delete("/expense/{id}", expenseHandler.DeleteExpense)
	})

	return r
}
