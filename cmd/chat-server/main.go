// cmd/chat-server/main.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property-chat/internal/api"
	"property-chat/internal/chat"
	"property-chat/internal/common/camunda"
	"property-chat/internal/common/config"
	"property-chat/internal/common/database"
	"property-chat/internal/common/logger"
	"property-chat/internal/common/observability"
	"property-chat/internal/matcher"
	"property-chat/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console", "stdout")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	_ = bootLog.Sync()

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chat server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("durability", cfg.Chat.Durability),
	)

	obs := observability.New(observability.Options{
		ServiceName:     cfg.App.Name,
		TracingEndpoint: cfg.Observability.TracingEndpoint,
		SampleRatio:     cfg.Observability.SampleRatio,
	}, log)
	defer obs.Shutdown()

	ctx := context.Background()
	var checks []api.ReadinessCheck

	// --- Store ---
	st := openStore(ctx, cfg, zapLog)
	defer st.Close()
	checks = append(checks, api.ReadinessCheck{Name: "store", Check: st.Ping})

	// --- Redis (optional, lead de-duplication) ---
	deduper := chat.NewLeadDeduper(nil, st, config.GetDuration(cfg.Chat.LeadDedupeTTL))
	if cfg.Database.Redis.Address != "" {
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, lead de-duplication falls back to the store", zap.Error(err))
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			deduper = chat.NewLeadDeduper(rdb.Client, st, config.GetDuration(cfg.Chat.LeadDedupeTTL))
			checks = append(checks, api.ReadinessCheck{Name: "redis", Check: rdb.Ping})
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Intent catalog ---
	catalog := matcher.DefaultCatalog()
	if cfg.Chat.CatalogPath != "" {
		catalog, err = matcher.LoadCatalogFile(cfg.Chat.CatalogPath)
		if err != nil {
			zapLog.Fatal("intent catalog load failed", zap.String("path", cfg.Chat.CatalogPath), zap.Error(err))
		}
		zapLog.Info("Intent catalog loaded", zap.String("path", cfg.Chat.CatalogPath))
	}
	m := matcher.New(catalog, matcher.RandomSelector{}, cfg.Chat.ConfidenceThreshold)

	// --- Camunda (optional, lead follow-up) ---
	var (
		zeebe    *camunda.Client
		followup chat.FollowupStarter
	)
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		followup = camunda.NewLeadFollowup(zeebe, cfg.Camunda.LeadFollowupProcessID, log)
		checks = append(checks, api.ReadinessCheck{Name: "zeebe", Check: zeebe.HealthCheck})
	}

	service := chat.NewService(cfg.Chat, chat.Dependencies{
		Matcher:       m,
		Store:         st,
		Deduper:       deduper,
		Followup:      followup,
		Observability: obs,
	}, log)

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	if zeebe != nil {
		workers = registerWorkers(ctx, workerDeps{
			cfg:     cfg,
			zeebe:   zeebe,
			service: service,
			store:   st,
			obs:     obs,
			log:     log,
			zapLog:  zapLog,
		})
	}

	// --- HTTP API ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(cfg.Server, service, checks, log),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("Chat API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("chat API server failed", zap.Error(err))
		}
	}()

	// --- Metrics & pprof ---
	var admin *http.Server
	if cfg.Observability.MetricsPort != 0 && cfg.Observability.MetricsPort != cfg.Server.Port {
		http.Handle("/metrics", promhttp.Handler())
		admin = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Observability.MetricsPort)}
		go func() {
			zapLog.Info("Metrics server listening", zap.String("addr", admin.Addr))
			if err := admin.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down chat API", zap.Error(err))
	}
	if admin != nil {
		_ = admin.Shutdown(shutdownCtx)
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Chat server stopped gracefully")
}

// openStore connects the configured driver. Failure to reach the backing
// database at startup is fatal.
func openStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) store.Store {
	driver := store.Driver(cfg.Storage.Driver)
	var opts []store.Option

	switch driver {
	case store.DriverPostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("postgres schema failed", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")
		opts = append(opts, store.WithDB(pg.DB))

	case store.DriverSupabase:
		client, err := database.NewSupabase(cfg.Supabase)
		if err != nil {
			zapLog.Fatal("supabase client failed", zap.Error(err))
		}
		zapLog.Info("Supabase client initialized")
		opts = append(opts, store.WithSupabaseClient(client))

	default:
		zapLog.Warn("using in-memory store, transcripts are lost on restart")
	}

	st, err := store.NewStore(driver, opts...)
	if err != nil {
		zapLog.Fatal("store init failed", zap.Error(err))
	}
	return st
}
