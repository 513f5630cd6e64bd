package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/askboxhq/askbox/internal/admission"
	"github.com/askboxhq/askbox/internal/config"
	"github.com/askboxhq/askbox/internal/core/store"
	"github.com/askboxhq/askbox/internal/counter"
	errwrap "github.com/askboxhq/askbox/internal/errors"
	"github.com/askboxhq/askbox/internal/observability"
	"github.com/askboxhq/askbox/internal/server"
	"github.com/askboxhq/askbox/internal/server/handlers"
	"github.com/askboxhq/askbox/internal/summarize"
	"github.com/askboxhq/askbox/internal/usage"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server will cleanly shut down the HTTP server, stop the summary worker,
and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load configuration", err)
		}

		observability.InitServerLogger(appName, cfg.Logging.Level)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(appName, cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		host := cfg.Server.Host
		port := cfg.Server.Port

		logger.Info("Initializing server",
			zap.String("service", appName),
			zap.String("version", versionInfo.Version),
			zap.String("host", host),
			zap.Int("port", port),
			zap.String("counter_backend", cfg.Counter.Backend),
			zap.String("fail_mode", cfg.Admission.FailMode))

		// Counter store shared by the rate limiter and usage accounting
		counterStore, closeCounter, err := openCounterStore(cmd.Context(), cfg)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "counter store initialization failed")
		}

		// Admission layer
		limiter := admission.NewLimiter(counterStore, logger)
		limiter.Policies = admissionPolicies(cfg)
		if cfg.Admission.FailMode == "fail-closed" {
			limiter.Mode = admission.FailClosed
		}
		gate := admission.NewGate(limiter, admission.NewDuplicateFilter(cfg.Admission.DuplicateCapacity))

		accountant := usage.NewAccountant(counterStore, logger)

		// Persistence
		db, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "store open failed")
		}
		if err := db.Migrate(cmd.Context()); err != nil {
			_ = db.Close()
			return errwrap.WrapDatabaseError(cmd.Context(), err, "store migration failed")
		}

		// Summarization service and background worker
		client := summarize.NewClient(cfg.Summarize.BaseURL, cfg.Summarize.APIKey, cfg.Summarize.Model)
		client.Timeout = cfg.Summarize.Timeout
		summarizer := summarize.NewService(db, client, accountant, logger)

		worker := summarize.NewWorker(summarizer, db.Notifier(), summarize.Policy{
			BatchSize:   cfg.Summarize.BatchSize,
			MaxInterval: cfg.Summarize.MaxInterval,
		}, logger)
		workerCtx, stopWorker := context.WithCancel(context.Background())
		go worker.Run(workerCtx)

		// Health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("store", handlers.HealthCheckerFunc(func(ctx context.Context) error {
			return db.DB.PingContext(ctx)
		}))
		hm.RegisterChecker("counter_store", handlers.HealthCheckerFunc(func(ctx context.Context) error {
			_, _, err := counterStore.Get(ctx, "health:probe")
			return err
		}))
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}

		// HTTP surface
		api := &handlers.API{
			Store:         db,
			Gate:          gate,
			Summarizer:    summarizer,
			SummaryPolicy: summaryOverride(cfg),
		}
		srv := server.New(host, port, api)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		// Handler 2: Close stores and stop the worker
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Stopping summary worker and closing stores...")
			stopWorker()
			if err := db.Close(); err != nil {
				logger.Warn("Store close returned error", zap.Error(err))
			}
			if closeCounter != nil {
				if err := closeCounter(); err != nil {
					logger.Warn("Counter store close returned error", zap.Error(err))
				}
			}
			return nil
		})

		// Handler 3: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			reloaded, err := config.Load(viper.GetViper())
			if err != nil {
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			// Limit policies can be swapped at runtime; structural settings
			// (ports, backends) need a restart.
			limiter.Policies = admissionPolicies(reloaded)

			logger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server...",
				zap.String("host", host),
				zap.Int("port", port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

// openCounterStore builds the configured counter store backend. The returned
// close function is nil for the in-memory backend.
func openCounterStore(ctx context.Context, cfg *config.Config) (counter.Store, func() error, error) {
	if cfg.Counter.Backend == "redis" {
		redisStore, err := counter.NewRedisStore(ctx, counter.RedisConfig{
			Addrs:       cfg.Counter.Redis.Addrs,
			Password:    cfg.Counter.Redis.Password,
			DB:          cfg.Counter.Redis.DB,
			KeyPrefix:   cfg.Counter.Redis.KeyPrefix,
			PoolSize:    cfg.Counter.Redis.PoolSize,
			DialTimeout: cfg.Counter.Redis.DialTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisStore, redisStore.Close, nil
	}

	return counter.NewMemoryStore(), nil, nil
}

// admissionPolicies merges configured policy overrides onto the defaults.
func admissionPolicies(cfg *config.Config) map[admission.Scope]admission.Policy {
	policies := make(map[admission.Scope]admission.Policy, len(admission.DefaultPolicies))
	for scope, policy := range admission.DefaultPolicies {
		policies[scope] = policy
	}

	for name, override := range cfg.Admission.Policies {
		scope := admission.Scope(name)
		policy := admission.Policy{
			PerMinute: override.PerMinute,
			PerHour:   override.PerHour,
			PerDay:    override.PerDay,
			Window:    override.Window,
			Message:   override.Message,
		}
		if policy.Window <= 0 {
			policy.Window = admission.DefaultWindow
		}
		if policy.Message == "" {
			if existing, ok := policies[scope]; ok {
				policy.Message = existing.Message
			}
		}
		policies[scope] = policy
	}

	return policies
}

// summaryOverride returns the summary-request policy override when one is
// configured, so the per-call-site limit reaches the gate.
func summaryOverride(cfg *config.Config) *admission.Policy {
	override, ok := cfg.Admission.Policies[string(admission.ScopeSummaryRequest)]
	if !ok {
		return nil
	}
	policy := admission.Policy{
		PerMinute: override.PerMinute,
		PerHour:   override.PerHour,
		PerDay:    override.PerDay,
		Window:    override.Window,
		Message:   override.Message,
	}
	if policy.Window <= 0 {
		policy.Window = admission.DefaultWindow
	}
	return &policy
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
