package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/ai"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/answer"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/config"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/convo"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/db"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/domain"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/httpapi"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/httpapi/handlers"
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

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := gdb.AutoMigrate(&convo.Conversation{}, &convo.Turn{}, &convo.Job{}); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rds.Close() }()
	if err := rds.Ping(context.Background()); err != nil {
		log.Warn("redis unreachable, caches disabled", zap.Error(err))
	}

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

	repo := convo.NewRepo(gdb, cfg.HistoryLimit)
	resolver := pipeline.NewResolver(cache, classifier, runner, formatter, repo,
		pipeline.NewConversational(provider), log)

	var jobs handlers.JobPublisher
	pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Warn("rabbitmq unreachable, batch endpoint disabled", zap.Error(err))
	} else {
		jobs = pub
		defer func() { _ = pub.Close() }()
	}

	h := handlers.NewHandler(cfg, resolver, repo, rds, jobs, log)
	router := httpapi.NewRouter(cfg, h, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
