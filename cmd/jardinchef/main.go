package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jardinchef/jardinchef-api/internal/config"
	"github.com/jardinchef/jardinchef-api/internal/domain"
	"github.com/jardinchef/jardinchef-api/internal/handler"
	"github.com/jardinchef/jardinchef-api/internal/infra/cache"
	"github.com/jardinchef/jardinchef-api/internal/infra/mailer"
	"github.com/jardinchef/jardinchef-api/internal/infra/observability"
	"github.com/jardinchef/jardinchef-api/internal/infra/resilience"
	"github.com/jardinchef/jardinchef-api/internal/infra/supabase"
	"github.com/jardinchef/jardinchef-api/internal/port"
	"github.com/jardinchef/jardinchef-api/internal/service"

	"go.uber.org/zap"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("badge_cache_ttl", cfg.BadgeCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Bool("auth_required", cfg.AuthRequired),
		zap.Bool("scan_enabled", cfg.ScanEnabled),
		zap.Bool("amqp_enabled", cfg.AMQPEnabled),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "jardinchef-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	badgeCache := cache.New[int](cfg.BadgeCacheTTL)
	templateCache := cache.New[[]domain.MessageTemplate](cfg.TemplateCacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Supabase store ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Email transport ---
	var sender port.EmailSender
	if cfg.AMQPEnabled {
		amqpSender, err := mailer.NewAMQPSender(cfg.AMQPURL, cfg.AMQPQueue, cfg.ReplyTo, logger)
		if err != nil {
			logger.Fatal("failed to connect to AMQP broker", zap.Error(err))
		}
		defer amqpSender.Close()
		sender = amqpSender
		logger.Info("email hand-off via AMQP", zap.String("queue", cfg.AMQPQueue))
	} else {
		sender = mailer.NewLogSender(logger)
		logger.Warn("AMQP disabled, reminders are logged instead of queued")
	}

	// --- Services ---
	clock := systemClock{}
	templates := service.NewTemplateCatalog(store, templateCache, logger)
	reminders := service.NewReminderService(
		store,
		store,
		templates,
		sender,
		clock,
		badgeCache,
		metrics,
		logger,
		cfg.CompanyName,
	)
	invoices := service.NewInvoiceService(store, logger)
	stats := service.NewStatsService(store, store, clock, logger)

	// --- Badge scan ---
	if cfg.ScanEnabled {
		userIDs := splitUserIDs(cfg.ScanUserIDs)
		if len(userIDs) == 0 {
			logger.Warn("scan enabled but SCAN_USER_IDS is empty, skipping")
		} else {
			scanner := service.NewBadgeScanner(reminders, cfg.ScanSchedule, userIDs, logger)
			if err := scanner.Start(); err != nil {
				logger.Fatal("failed to start badge scan", zap.Error(err))
			}
			defer func() { <-scanner.Stop().Done() }()
		}
	}

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Invoices:  invoices,
		Reminders: reminders,
		Templates: templates,
		Stats:     stats,
		Metrics:   metrics,
		Auth: handler.AuthConfig{
			JWTSecret: cfg.JWTSecret,
			Required:  cfg.AuthRequired,
		},
		Logger: logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func splitUserIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
