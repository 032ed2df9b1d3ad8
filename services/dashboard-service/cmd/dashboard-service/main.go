package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/salondesk/salondesk/libs/config"
	"github.com/salondesk/salondesk/libs/db"
	"github.com/salondesk/salondesk/libs/httpx"
	"github.com/salondesk/salondesk/libs/kafkax"
	otelx "github.com/salondesk/salondesk/libs/otel"
	"github.com/salondesk/salondesk/libs/runtime"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/cache"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/consumer"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/dashboard"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/handlers"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/storage"
)

func main() {
	config.Load()
	service := config.String("SERVICE_NAME", "dashboard-service")
	port, err := config.Port("PORT", "8087")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext(logger)
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	loc, err := config.Location("DASHBOARD_TIMEZONE", "UTC")
	if err != nil {
		panic(err)
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 20, 1)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0, 0),
		})
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{
			Name:     "redis",
			Check:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			Optional: true,
		})
	}

	var opts []dashboard.Option
	cacheTTL := config.Seconds("DASHBOARD_CACHE_TTL_SECONDS", 0)
	if rdb != nil && cacheTTL > 0 {
		loader := cache.New(rdb, cacheTTL, logger)
		opts = append(opts, dashboard.WithCache(loader))

		if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
			invalidations := consumer.New(logger, loader, loc, consumer.Config{
				Brokers: brokers,
				GroupID: config.String("KAFKA_GROUP_ID", service),
				Topics:  config.List("KAFKA_INVALIDATION_TOPICS", ""),
			})
			go invalidations.Run(ctx)
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers), Optional: true})
		}
		logger.Info("dashboard cache enabled", "ttl", cacheTTL.String())
	}

	svc := dashboard.NewService(storage.NewRepository(pool), logger, dashboard.Config{
		Location:                loc,
		AttentionCandidateLimit: config.Int("DASHBOARD_ATTENTION_CANDIDATE_LIMIT", dashboard.DefaultAttentionCandidateLimit, 1),
		SlowThreshold:           time.Duration(config.Int("DASHBOARD_SLOW_MS", 500, 0)) * time.Millisecond,
	}, opts...)

	if err := startGrpcServer(ctx, logger); err != nil {
		logger.Error("grpc server failed", "err", err)
	}

	mux := runtime.NewBaseMux(checks...)
	handlers.NewDashboardHandler(svc, loc, logger).Register(mux, config.String("JWT_SECRET", "dev-secret"))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(corsPolicy()),
		rateLimit(logger, rdb),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Seconds("REQUEST_TIMEOUT_SECONDS", 10*time.Second)),
	)
	handler = otelhttp.NewHandler(handler, "dashboard")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func corsPolicy() httpx.CORSPolicy {
	return httpx.CORSPolicy{
		AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
		AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,OPTIONS"),
		AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,"+httpx.RequestIDHeader),
		AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           config.Seconds("CORS_MAX_AGE_SECONDS", 10*time.Minute),
	}
}

// rateLimit shares the budget across instances when Redis is configured.
func rateLimit(logger *slog.Logger, rdb *redis.Client) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_PER_MINUTE", 120, 0)
	if limit == 0 {
		return nil
	}
	if rdb != nil {
		return httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "rl:dashboard:"+strconv.Itoa(limit), httpx.ClientIP).
			Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
	}
	return httpx.NewRateLimiter(limit, time.Minute, httpx.ClientIP).Middleware()
}
