package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/classifier"
	"github.com/rishabh7970/OneBox-For-Emails/internal/config"
	"github.com/rishabh7970/OneBox-For-Emails/internal/demo"
	"github.com/rishabh7970/OneBox-For-Emails/internal/handler"
	"github.com/rishabh7970/OneBox-For-Emails/internal/httpserver"
	"github.com/rishabh7970/OneBox-For-Emails/internal/mailsource"
	"github.com/rishabh7970/OneBox-For-Emails/internal/notify"
	"github.com/rishabh7970/OneBox-For-Emails/internal/pipeline"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
	"github.com/rishabh7970/OneBox-For-Emails/internal/scheduler"
	"github.com/rishabh7970/OneBox-For-Emails/internal/syncer"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/kv"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/logger"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/secretbox"
)

func main() {
	// Load .env if present (local development)
	_ = godotenv.Load()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("store initialization failed", zap.Error(err))
	}
	defer cleanup()

	secrets, err := secretbox.New(cfg.SecretKey)
	if err != nil {
		log.Fatal("secret key invalid", zap.Error(err))
	}

	accountRepo := repository.NewAccountRepository(store)
	emailRepo := repository.NewEmailRepository(store)
	settingsRepo := repository.NewSettingsRepository(store)

	source := mailsource.NewIMAPSource()
	worker := syncer.New(accountRepo, emailRepo, source, secrets, cfg.Sync.FailureThreshold, log)

	gateway := classifier.NewOpenAI(classifier.OpenAIConfig{
		APIKey:     cfg.Classifier.APIKey,
		BaseURL:    cfg.Classifier.BaseURL,
		Model:      cfg.Classifier.Model,
		Timeout:    time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Classifier.MaxRetries,
	}, log)

	dispatcher := notify.NewDispatcher(settingsRepo, log)
	sched := scheduler.New(emailRepo, gateway, dispatcher, scheduler.Config{
		Concurrency: cfg.Scheduler.Concurrency,
		MaxAttempts: cfg.Scheduler.MaxAttempts,
	}, log)

	coord := pipeline.New(
		accountRepo, emailRepo, settingsRepo,
		worker, sched, gateway, secrets,
		time.Duration(cfg.Sync.IntervalSeconds)*time.Second,
		log,
	)
	go coord.Run(ctx)

	seeder := demo.NewSeeder(accountRepo, emailRepo, secrets)

	router := httpserver.NewRouter(httpserver.Handlers{
		Accounts: handler.NewAccountHandler(coord),
		Emails:   handler.NewEmailHandler(coord, emailRepo),
		Pipeline: handler.NewPipelineHandler(coord),
		Settings: handler.NewSettingsHandler(settingsRepo),
		Demo:     handler.NewDemoHandler(seeder),
	}, log)

	log.Info("starting onebox server",
		zap.String("port", cfg.Server.Port),
		zap.String("store_backend", cfg.Store.Backend),
	)
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}

// newStore builds the configured message-store backend.
func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (kv.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		return kv.NewMemoryStore(), func() {}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info("redis store connected", zap.String("addr", cfg.Store.Redis.Addr))
		return kv.NewRedisStore(rdb), func() { rdb.Close() }, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		store := kv.NewPostgresStore(pool)
		if err := store.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres init: %w", err)
		}
		log.Info("postgres store connected")
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
