package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/kakeibo/internal/auth"
	"github.com/hitoshi/kakeibo/internal/catalog"
	"github.com/hitoshi/kakeibo/internal/config"
	"github.com/hitoshi/kakeibo/internal/database"
	"github.com/hitoshi/kakeibo/internal/events"
	"github.com/hitoshi/kakeibo/internal/expense"
	"github.com/hitoshi/kakeibo/internal/handler"
	"github.com/hitoshi/kakeibo/internal/metrics"
	"github.com/hitoshi/kakeibo/internal/middleware"
	"github.com/hitoshi/kakeibo/internal/repository"
	"github.com/hitoshi/kakeibo/internal/user"
)

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM受信）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.ServerPort, err)
	}
	return serve(ctx, cfg, ln)
}

// serve は全依存関係をワイヤリングし、lnでHTTPサーバーを起動する。
// ctxがキャンセルされるとShutdownTimeout以内に処理中のリクエストを完了させて終了する。
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		ln.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. ルーターの構築
	router, cleanup, err := buildRouter(ctx, cfg, db)
	if err != nil {
		ln.Close()
		return err
	}
	defer cleanup()

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("API server starting",
			slog.String("addr", ln.Addr().String()),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はリポジトリ・サービス・ミドルウェアを構築し、ルーターを返す。
// 戻り値のcleanupはレートリミッタとイベント発行の後始末を行う。
func buildRouter(ctx context.Context, cfg *config.Config, db *sql.DB) (http.Handler, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	// 1. リポジトリの初期化
	userRepo := repository.NewSQLUserRepo(db)
	expenseRepo := repository.NewSQLExpenseRepo(db)

	// 2. トークンとカテゴリ表
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.TokenSecret),
		Issuer: cfg.TokenIssuer,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create token service: %w", err)
	}

	categories, err := catalog.Load(cfg.CategoryFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load categories: %w", err)
	}

	// 3. イベント発行
	publisher, closePublisher := newPublisher(cfg)

	// 4. メトリクス
	var (
		collector metrics.MetricsCollector
		gatherer  prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.NewCollector(reg)
		gatherer = reg
	}

	// 5. ドメインサービスの初期化
	userService := user.NewService(userRepo, tokens, nil, publisher, collector)
	expenseService := expense.NewService(userRepo, expenseRepo, categories, loc, publisher, collector)

	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth))

	slog.InfoContext(ctx, "services initialized",
		slog.Int("categories", categories.Len()),
		slog.String("ledger_timezone", loc.String()),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
	)

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:     tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rl,
		TrustProxy:        cfg.TrustProxy,
		HealthChecker:     db,
		MetricsCollector:  collector,
		MetricsGatherer:   gatherer,
		UserService:       handler.NewUserServiceAdapter(userService),
		ExpenseService:    handler.NewExpenseServiceAdapter(expenseService, loc),
	})

	cleanup := func() {
		rl.Stop()
		closePublisher()
	}
	return router, cleanup, nil
}

// newPublisher はAMQP_URLが設定されていればAMQPのPublisherを返す。
// 未設定または接続に失敗した場合はイベントを発行しないPublisherで起動を続ける。
func newPublisher(cfg *config.Config) (events.Publisher, func()) {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}, func() {}
	}

	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		slog.Warn("AMQPに接続できないため、イベントを発行せずに起動します",
			slog.String("exchange", cfg.AMQPExchange),
			slog.String("error", err.Error()),
		)
		return events.NopPublisher{}, func() {}
	}

	slog.Info("AMQP publisher connected", slog.String("exchange", cfg.AMQPExchange))
	return p, func() {
		if err := p.Close(); err != nil {
			slog.Warn("failed to close AMQP publisher", slog.String("error", err.Error()))
		}
	}
}
