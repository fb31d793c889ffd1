package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/ai"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/answer"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/config"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/convo"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/db"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/domain"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/nlsql"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/pipeline"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/schema"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/store/rabbitmq"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/store/redisstore"
)

func newProvider(cfg config.Config) (ai.Provider, error) {
	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model, cfg.LLMTimeout), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		if model == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model, cfg.LLMTimeout), nil
	})
	return reg.Get(context.Background(), strings.ToLower(cfg.AIProvider), "")
}

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

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := convo.NewRepo(gdb, cfg.HistoryLimit)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rds.Close() }()

	provider, err := newProvider(cfg)
	if err != nil {
		log.Fatal("ai provider", zap.Error(err))
	}

	pool := db.NewPool(cfg.QueryDSN)
	cache := schema.NewCache(schema.NewMySQLIntrospector(pool), cfg.SchemaTTL, rds, log)

	classifier, err := domain.NewClassifier()
	if err != nil {
		log.Fatal("domain classifier", zap.Error(err))
	}

	runner := nlsql.NewRunner(
		nlsql.NewGenerator(provider),
		nlsql.NewGormExecutor(pool),
		cfg.MaxSQLRetries,
		cfg.QueryTimeout,
		rds,
		cfg.SQLCacheExpiry,
		log,
	)

	formatter := answer.NewFormatter(
		answer.NewSpecRenderer(rds, cfg.SQLCacheExpiry),
		answer.NewLLMSummarizer(provider),
		log,
	)

	resolver := pipeline.NewResolver(cache, classifier, runner, formatter, repo,
		pipeline.NewConversational(provider), log)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel", zap.Error(err))
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatal("queue declare", zap.Error(err))
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started",
		zap.String("queue", cfg.RabbitQueue),
		zap.Int("concurrency", concurrency))

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.JobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Warn("bad message", zap.Int("worker", workerID), zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, resolver, repo, m.JobID); err != nil {
					log.Warn("job failed",
						zap.Int("worker", workerID),
						zap.String("job", m.JobID),
						zap.Duration("cost", time.Since(start)),
						zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Warn("ack failed", zap.Int("worker", workerID),
						zap.String("job", m.JobID), zap.Error(err))
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func handleJob(ctx context.Context, resolver *pipeline.Resolver, repo *convo.Repo, jobID string) error {
	_ = repo.UpdateJobStatusRunning(ctx, jobID)

	job, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	// Replays after a crash-and-redeliver are no-ops.
	if job.Status == convo.JobSucceeded || job.Status == convo.JobFailed {
		return nil
	}

	conversation, err := repo.GetConversation(ctx, job.ConversationID)
	if err != nil {
		_ = repo.MarkJobFailed(ctx, jobID, "conversation not found")
		return err
	}

	_, err = resolver.Resolve(ctx, pipeline.Input{
		ConversationID: job.ConversationID,
		Database:       conversation.Database,
		Question:       job.Question,
	})
	if err != nil {
		_ = repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}

	var turnID uint64
	if turns, terr := repo.RecentTurns(ctx, job.ConversationID, 1); terr == nil && len(turns) > 0 {
		turnID = turns[len(turns)-1].ID
	}
	return repo.MarkJobSucceeded(ctx, jobID, turnID)
}
