package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/hibiken/asynq"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/sharethebill/internal/auth"
	"github.com/mmynk/sharethebill/internal/config"
	"github.com/mmynk/sharethebill/internal/ledger"
	"github.com/mmynk/sharethebill/internal/metrics"
	"github.com/mmynk/sharethebill/internal/middleware"
	"github.com/mmynk/sharethebill/internal/notify"
	"github.com/mmynk/sharethebill/internal/scheduler"
	"github.com/mmynk/sharethebill/internal/service"
	"github.com/mmynk/sharethebill/internal/storage"
	"github.com/mmynk/sharethebill/internal/storage/redisstore"
	"github.com/mmynk/sharethebill/internal/storage/sqlite"
	"github.com/mmynk/sharethebill/internal/wallet"
	"github.com/mmynk/sharethebill/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	slog.Info("Configuration loaded", "config", cfg)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage is required; there is no in-memory fallback
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	// Wallet lookups: registered addresses first, then Farcaster verifications
	registry := wallet.NewStoreResolver(store)
	resolver := wallet.Chain{registry}
	if cfg.Neynar.APIKey != "" {
		resolver = append(resolver, wallet.NewNeynarResolver(cfg.Neynar.APIKey, ""))
		slog.Info("Neynar address lookups enabled")
	}

	// Notifications
	farcaster := notify.NewFarcasterSink(store, cfg.Notify.AppURL)
	deliver := notify.NewComposite(notify.LogSink{}, farcaster)

	var notifier ledger.Notifier = deliver
	if cfg.Notify.Queue != "" {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		}
		client := asynq.NewClient(redisOpt)
		defer client.Close()

		worker := notify.NewWorker(redisOpt, cfg.Notify.Queue, deliver)
		if err := worker.Start(); err != nil {
			return fmt.Errorf("failed to start notification worker: %w", err)
		}
		defer worker.Shutdown()

		notifier = notify.NewQueueSink(client, cfg.Notify.Queue)
		slog.Info("Queued notifications enabled", "queue", cfg.Notify.Queue)
	}

	l := ledger.New(store, resolver, notifier)
	defer l.WaitForNotifications()

	if cfg.Reminder.Schedule != "" {
		sched, err := scheduler.New(l, cfg.Reminder.Schedule)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.TokenDuration())
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	defer limiter.Stop()

	mux := http.NewServeMux()

	// Register Connect services
	service.Register(mux,
		service.NewBillService(l),
		service.NewWalletService(registry, resolver, farcaster),
		connect.WithInterceptors(
			middleware.RequireAuth(jwtManager),
			limiter.Interceptor(),
			middleware.LoggingInterceptor(),
		),
	)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.StoreRedis:
		store, err := redisstore.New(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "database", cfg.SQLitePath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, "+service.ErrorKindHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
