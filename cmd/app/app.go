package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acg-climbing/sessions-api/internal/api"
	"github.com/acg-climbing/sessions-api/internal/cache"
	"github.com/acg-climbing/sessions-api/internal/config"
	"github.com/acg-climbing/sessions-api/internal/db"
	"github.com/acg-climbing/sessions-api/internal/logger"
	"github.com/acg-climbing/sessions-api/internal/notify"
	"github.com/acg-climbing/sessions-api/internal/realtime"
	"github.com/acg-climbing/sessions-api/internal/repository/dao"
	"github.com/acg-climbing/sessions-api/internal/service"
)

const (
	configPath      = "./cmd/app/config.yml"
	shutdownTimeout = 10 * time.Second
)

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	if err = logger.SetLevel(conf.API.LogLevel); err != nil {
		zap.L().Warn("keeping default log level", zap.Error(err))
	}
	defer zap.L().Sync() //nolint:errcheck

	config.Watch(configPath, func(fresh *config.AppConfig, err error) {
		if err != nil {
			zap.L().Warn("config reload failed", zap.Error(err))
			return
		}
		if err := logger.SetLevel(fresh.API.LogLevel); err != nil {
			zap.L().Warn("config reload: bad log level", zap.Error(err))
			return
		}
		zap.L().Info("config reloaded", zap.String("log_level", fresh.API.LogLevel))
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresDB, err := openDatabase(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}
	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate tables -> %w", err)
	}

	identities, closeCache, err := openIdentityCache(ctx, conf.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize identity cache -> %w", err)
	}
	defer closeCache()

	hub := realtime.NewHub(conf.API.AllowedCORSDomains)
	go hub.Run(ctx)

	var sinks []realtime.Publisher
	if conf.NATS.URL != "" {
		bus, err := realtime.NewNATSBus(conf.NATS.URL, conf.NATS.Subject)
		if err != nil {
			return fmt.Errorf("failed to connect to nats -> %w", err)
		}
		defer bus.Close() //nolint:errcheck

		if err = bus.Relay(hub); err != nil {
			return fmt.Errorf("failed to subscribe to changes -> %w", err)
		}
		sinks = append(sinks, bus)
		zap.L().Info("change feed via nats", zap.String("subject", conf.NATS.Subject))
	} else {
		sinks = append(sinks, hub)
	}

	if conf.Telegram.BotToken != "" {
		tg, err := notify.NewTelegram(conf.Telegram.BotToken, conf.Telegram.ChatID)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram -> %w", err)
		}
		go tg.Run(ctx)
		sinks = append(sinks, tg)
	}

	deps := api.Deps{
		Identities: identities,
		Feed:       realtime.NewFeed(sinks...),
		Hub:        hub,
	}
	if conf.OAuth.Enabled() {
		deps.Google = service.NewGoogleOAuth(conf.OAuth)
	} else {
		zap.L().Info("google sign-in disabled")
	}

	s := api.NewServer(conf, postgresDB, deps)

	addr := ":" + s.Config.API.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown -> %w", err)
	}

	return nil
}

func openDatabase(conf *config.AppConfig) (*gorm.DB, error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return db.OpenPostgresWithURL(dbURL)
	}

	return db.OpenPostgres(conf.Postgres)
}

func openIdentityCache(ctx context.Context, conf *config.RedisConfig) (cache.IdentityCache, func(), error) {
	if conf.URL == "" {
		zap.L().Info("identity cache in process memory")
		return cache.NewMemory(), func() {}, nil
	}

	r, err := cache.NewRedis(ctx, conf.URL)
	if err != nil {
		return nil, nil, err
	}

	return r, func() {
		if err := r.Close(); err != nil {
			zap.L().Warn("closing redis", zap.Error(err))
		}
	}, nil
}
