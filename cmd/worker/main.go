package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/nutricoach/nutricoach/internal/actions"
	"github.com/nutricoach/nutricoach/internal/ai"
	"github.com/nutricoach/nutricoach/internal/config"
	"github.com/nutricoach/nutricoach/internal/db"
	"github.com/nutricoach/nutricoach/internal/kvstore"
	"github.com/nutricoach/nutricoach/internal/store/rabbitmq"
	"github.com/nutricoach/nutricoach/internal/userdata"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func buildStore(cfg config.Config) (kvstore.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return kvstore.NewRedisStore(client), nil
	case "mysql":
		gdb, err := db.ConnectMySQL(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return kvstore.NewGormStore(gdb)
	default:
		gdb, err := db.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return kvstore.NewGormStore(gdb)
	}
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	repo := userdata.NewRepo(store)

	reg := ai.NewRegistry()
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model), nil
	})

	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}
	acts := actions.New(ai.NewClient(provider))

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil)
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.JobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, acts, repo, m); err != nil {
					log.Printf("worker=%d job %s failed cost=%s err=%v", workerID, m.JobID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// handleJob runs one queued meal-plan generation: mark the job running,
// call the flow, cache the plan on success and record the terminal
// status either way.
func handleJob(ctx context.Context, acts *actions.Actions, repo *userdata.Repo, m rabbitmq.JobMessage) error {
	job, err := repo.GetJob(ctx, m.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		// Record lost or cleared; the message is stale.
		return nil
	}

	job.Status = userdata.JobRunning
	job.UpdatedAt = time.Now()
	if err := repo.SaveJob(ctx, *job); err != nil {
		return err
	}

	out, genErr := acts.GenerateMealPlan(ctx, m.Input)
	if genErr != nil {
		job.Status = userdata.JobFailed
		job.Error = genErr.Error()
		job.UpdatedAt = time.Now()
		if err := repo.SaveJob(ctx, *job); err != nil {
			return err
		}
		return genErr
	}

	cached := userdata.CachedMealPlan{
		Plan: userdata.MealPlan{
			Days:          out.Days,
			TotalCalories: out.TotalCalories,
			Notes:         out.Notes,
		},
		GeneratedAt: time.Now(),
	}
	if err := repo.SaveMealPlan(ctx, m.UserID, cached); err != nil {
		job.Status = userdata.JobFailed
		job.Error = "failed to store plan"
		job.UpdatedAt = time.Now()
		_ = repo.SaveJob(ctx, *job)
		return err
	}

	job.Status = userdata.JobSucceeded
	job.Error = ""
	job.UpdatedAt = time.Now()
	return repo.SaveJob(ctx, *job)
}
