package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/config"
	"github.com/nutricoach/nutricoach/internal/db"
	"github.com/nutricoach/nutricoach/internal/httpapi"
	"github.com/nutricoach/nutricoach/internal/httpapi/handlers"
	"github.com/nutricoach/nutricoach/internal/kvstore"
	"github.com/nutricoach/nutricoach/internal/logging"
	"github.com/nutricoach/nutricoach/internal/store/rabbitmq"
	"github.com/nutricoach/nutricoach/internal/userdata"
	"github.com/redis/go-redis/v9"
)

func buildStore(cfg config.Config) (kvstore.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return kvstore.NewRedisStore(client), nil
	case "mysql":
		gdb, err := db.ConnectMySQL(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return kvstore.NewGormStore(gdb)
	case "", "sqlite":
		gdb, err := db.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return kvstore.NewGormStore(gdb)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND=%q", cfg.StoreBackend)
	}
}

func buildAIClient(ctx context.Context, cfg config.Config) *ai.Client {
	reg := ai.NewRegistry()
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		// An empty server-level key is fine: the provider prefers the
		// per-call user key and rejects requests only when both are absent.
		if model == "" {
			model = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model), nil
	})

	provider, err := reg.Get(ctx, cfg.AIProvider, "")
	if err != nil {
		log.Printf("ai provider unavailable: %v (generation endpoints will report unconfigured)", err)
		return ai.Unconfigured()
	}
	return ai.NewClient(provider)
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogDir)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	store, err := buildStore(cfg)
	if err != nil {
		logger.Fatalw("store init failed", "backend", cfg.StoreBackend, "err", err)
	}
	repo := userdata.NewRepo(store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient := buildAIClient(ctx, cfg)

	var jobs *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		jobs, err = rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logger.Warnw("rabbitmq unavailable, async meal-plan jobs disabled", "err", err)
			jobs = nil
		} else {
			defer jobs.Close()
		}
	}

	h := handlers.NewHandler(cfg, repo, aiClient, jobs, logger)
	router := httpapi.NewRouter(h)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Infow("server started", "port", cfg.ServerPort, "backend", cfg.StoreBackend, "ai_available", aiClient.IsAvailable())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("shutdown failed", "err", err)
	}
}
