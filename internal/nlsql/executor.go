package nlsql

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/db"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/store/redisstore"
)

// DBExecutor is the database boundary of the retry loop.
type DBExecutor interface {
	Execute(ctx context.Context, database, sql string) (*QueryResult, error)
}

// GormExecutor runs statements against the analyzed server.
type GormExecutor struct {
	pool *db.Pool
}

func NewGormExecutor(pool *db.Pool) *GormExecutor {
	return &GormExecutor{pool: pool}
}

func (e *GormExecutor) Execute(ctx context.Context, database, sql string) (*QueryResult, error) {
	gdb, err := e.pool.Get(database)
	if err != nil {
		return nil, err
	}

	rows, err := gdb.WithContext(ctx).Raw(sql).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// State names one phase of the retry machine; attempts record the phase they
// ended in for diagnostics.
type State string

const (
	StateGenerating State = "generating"
	StateExecuting  State = "executing"
	StateSucceeded  State = "succeeded"
	StateRetrying   State = "retrying"
	StateFailed     State = "failed"
)

// Attempt is one generation+execution cycle. The history lives only for the
// turn and never exceeds the retry ceiling.
type Attempt struct {
	Index  int
	Prompt string
	SQL    string
	Err    error
	State  State
}

// RunInput is the fixed context of one turn; the runner varies only the
// error feedback between attempts.
type RunInput struct {
	Question string
	Database string
	Prompt   PromptInput // Question/Snapshot/Domain/Tables/History pre-filled
}

// Outcome is what the retry loop hands back: the final result or error, the
// SQL that produced it (last attempted SQL on failure), and the full attempt
// history for diagnostics.
type Outcome struct {
	Result   *QueryResult
	SQL      string
	Attempts []Attempt
	Err      error
}

// Runner drives GENERATING -> EXECUTING -> (SUCCEEDED | RETRYING | FAILED):
// recoverable rejections re-prompt with the database error embedded, up to
// the retry ceiling; unrecoverable errors (including timeouts) end the turn
// immediately. Attempts are strictly sequential.
type Runner struct {
	gen          *Generator
	exec         DBExecutor
	maxRetries   int
	queryTimeout time.Duration
	redis        *redisstore.Store
	cacheTTL     time.Duration
	log          *zap.Logger
}

func NewRunner(gen *Generator, exec DBExecutor, maxRetries int, queryTimeout time.Duration,
	redis *redisstore.Store, cacheTTL time.Duration, log *zap.Logger) *Runner {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		gen:          gen,
		exec:         exec,
		maxRetries:   maxRetries,
		queryTimeout: queryTimeout,
		redis:        redis,
		cacheTTL:     cacheTTL,
		log:          log,
	}
}

func sqlCacheKey(in RunInput) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(in.Question))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.Join(in.Prompt.Tables, ",")))
	return fmt.Sprintf("llm_sql_%s_%x", in.Database, h.Sum64())
}

func (r *Runner) Run(ctx context.Context, in RunInput) Outcome {
	var (
		attempts   []Attempt
		priorSQL   string
		priorError string
		lastErr    error
		genRetried bool
	)

	maxAttempts := r.maxRetries + 1
	for i := 0; i < maxAttempts; i++ {
		prompt := in.Prompt
		prompt.PriorSQL = priorSQL
		prompt.PriorError = priorError
		promptText := BuildPrompt(prompt)

		sql, err := r.generate(ctx, in, promptText, i == 0 && priorError == "")
		if err != nil {
			attempts = append(attempts, Attempt{Index: i, Prompt: promptText, Err: err, State: StateFailed})
			// One re-prompt with the same context covers transient LLM
			// failures; a second failure is fatal.
			if !genRetried && i+1 < maxAttempts {
				genRetried = true
				lastErr = err
				continue
			}
			return Outcome{SQL: priorSQL, Attempts: attempts, Err: err}
		}

		execCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.queryTimeout > 0 {
			execCtx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		}
		result, err := r.exec.Execute(execCtx, in.Database, sql)
		cancel()
		if err == nil {
			attempts = append(attempts, Attempt{Index: i, Prompt: promptText, SQL: sql, State: StateSucceeded})
			return Outcome{Result: result, SQL: sql, Attempts: attempts}
		}

		lastErr = err
		if ClassifyExecError(err) == Unrecoverable {
			attempts = append(attempts, Attempt{Index: i, Prompt: promptText, SQL: sql, Err: err, State: StateFailed})
			return Outcome{SQL: sql, Attempts: attempts, Err: err}
		}

		attempts = append(attempts, Attempt{Index: i, Prompt: promptText, SQL: sql, Err: err, State: StateRetrying})
		r.log.Warn("generated sql rejected, retrying",
			zap.String("database", in.Database),
			zap.Int("attempt", i),
			zap.Error(err))
		priorSQL, priorError = sql, err.Error()
	}

	return Outcome{SQL: priorSQL, Attempts: attempts, Err: lastErr}
}

// generate pulls from the redis SQL cache on clean first attempts and fills
// it on success; error-corrected regenerations always hit the model.
func (r *Runner) generate(ctx context.Context, in RunInput, promptText string, cacheable bool) (string, error) {
	key := sqlCacheKey(in)
	if cacheable {
		if cached := r.redis.Get(ctx, key); cached != "" {
			return cached, nil
		}
	}
	sql, err := r.gen.Generate(ctx, promptText)
	if err != nil {
		return "", err
	}
	if cacheable {
		r.redis.Set(ctx, key, sql, r.cacheTTL)
	}
	return sql, nil
}
