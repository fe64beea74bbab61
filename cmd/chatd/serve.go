package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chat_backend/internal/audit"
	"chat_backend/internal/auth"
	"chat_backend/internal/catalog"
	"chat_backend/internal/chat"
	"chat_backend/internal/config"
	"chat_backend/internal/httpapi"
	"chat_backend/internal/keys"
	"chat_backend/internal/logging"
	"chat_backend/internal/providers"
	"chat_backend/internal/ratelimit"
	"chat_backend/internal/settings"
	"chat_backend/internal/storage"
)

var logger = logging.NewLogger("chatd")

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logging.SetLogLevel(cfg.LogLevel)

			migrate, _ := cmd.Flags().GetBool("migrate")
			return serve(cfg, migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Create missing tables before serving")
	return cmd
}

func openDB(cfg *config.Config) (*storage.DB, error) {
	dbConfig := storage.DefaultDBConfig()
	dbConfig.URL = cfg.Database.URL
	dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
	dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
	dbConfig.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	dbConfig.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime
	if cfg.Database.QueryTimeout > 0 {
		dbConfig.QueryTimeout = cfg.Database.QueryTimeout
	}
	return storage.NewDB(dbConfig)
}

func serve(cfg *config.Config, migrate bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	store := storage.NewCachedSettingsStore(db.NewSettingsRepository(), cfg.Cache.SettingsCacheSize, cfg.Cache.SettingsCacheTTL)
	go cleanupLoop(ctx, store, cfg.Cache.SettingsCacheTTL)

	keyManager, err := keys.NewManager(cfg.KeyManagement.Key, cfg.KeyManagement.Secret)
	if err != nil {
		return fmt.Errorf("failed to initialise key management: %w", err)
	}

	healthChecks := map[string]httpapi.HealthCheck{"database": db.Health}

	var limiter ratelimit.Limiter = ratelimit.NewNoopLimiter()
	if cfg.Redis.Address != "" {
		redisClient, err := storage.NewRedisClient(ctx, storage.RedisConfig{
			Address:      cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()

		limiter = ratelimit.NewRateLimiter(redisClient.Client())
		healthChecks["redis"] = redisClient.Health
	} else {
		logger.Warn("REDIS_ADDRESS not set, rate limiting disabled")
	}

	var sink audit.Sink = audit.NewNoopSink()
	var bufferedSink *audit.BufferedSink
	if cfg.LoggingSink.Enabled {
		writer, err := audit.NewS3Writer(ctx, cfg.LoggingSink.S3Bucket, cfg.LoggingSink.S3Region, cfg.LoggingSink.S3Prefix, cfg.LoggingSink.PodName)
		if err != nil {
			return fmt.Errorf("failed to create audit writer: %w", err)
		}
		bufferedSink = audit.NewBufferedSink(writer, cfg.LoggingSink.BufferSize, cfg.LoggingSink.FlushSize, cfg.LoggingSink.FlushInterval, cfg.LoggingSink.PodName)
		sink = bufferedSink
	}

	cat := catalog.Default()
	svc := settings.NewService(store, keyManager, cat, sink)
	relay := chat.NewRelay(svc, providers.NewFactory(cfg, cfg.Provider.RequestTimeout))

	router := httpapi.NewRouter(&httpapi.Dependencies{
		Settings:      svc,
		Catalog:       cat,
		Chat:          relay,
		Identity:      auth.NewJWTIdentityProvider(cfg.JWTSecret),
		RateLimit:     limiter,
		Limits:        cfg.RateLimit,
		InternalToken: cfg.InternalAPIToken,
		CORSOrigins:   cfg.CORSOrigins,
		HealthChecks:  healthChecks,
	})

	addr := ":" + cfg.HTTPPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat backend listening", "addr", addr, "models", cat.Len())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Flush remaining audit records to S3
	if bufferedSink != nil {
		if err := bufferedSink.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown audit sink", "error", err)
		}
	}

	logger.Info("server exited")
	return nil
}

func cleanupLoop(ctx context.Context, store *storage.CachedSettingsStore, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.CleanupExpired(); n > 0 {
				logger.Debug("evicted expired settings", "count", n)
			}
		}
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the settings tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Migrated %s database\n", db.Driver())
			return nil
		},
	}
}
