package nlsql

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

type scriptedExecutor struct {
	errs  []error
	calls int
	sqls  []string
}

func (e *scriptedExecutor) Execute(ctx context.Context, database, sql string) (*QueryResult, error) {
	_ = ctx
	_ = database
	i := e.calls
	e.calls++
	e.sqls = append(e.sqls, sql)
	if i < len(e.errs) && e.errs[i] != nil {
		return nil, e.errs[i]
	}
	return &QueryResult{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}, nil
}

func testRunInput() RunInput {
	return RunInput{
		Question: "how many employees",
		Database: "shop",
		Prompt: PromptInput{
			Question: "how many employees",
			Snapshot: testPromptSnapshot(),
			Tables:   []string{"employees"},
		},
	}
}

func TestRun_SucceedsFirstAttempt(t *testing.T) {
	prov := &scriptedProvider{replies: []string{"SELECT count(*) FROM employees"}}
	exec := &scriptedExecutor{}
	runner := NewRunner(NewGenerator(prov), exec, 2, 0, nil, 0, nil)

	out := runner.Run(context.Background(), testRunInput())
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.SQL != "SELECT count(*) FROM employees" {
		t.Fatalf("unexpected sql: %q", out.SQL)
	}
	if len(out.Attempts) != 1 || out.Attempts[0].State != StateSucceeded {
		t.Fatalf("unexpected attempts: %+v", out.Attempts)
	}
	if out.Result == nil || out.Result.RowCount() != 1 {
		t.Fatalf("missing result")
	}
}

func TestRun_RecoverableErrorRepromptsWithErrorText(t *testing.T) {
	prov := &scriptedProvider{replies: []string{
		"SELECT namee FROM employees",
		"SELECT name FROM employees",
	}}
	exec := &scriptedExecutor{errs: []error{
		&mysql.MySQLError{Number: 1054, Message: "Unknown column 'namee' in 'field list'"},
		nil,
	}}
	runner := NewRunner(NewGenerator(prov), exec, 2, 0, nil, 0, nil)

	out := runner.Run(context.Background(), testRunInput())
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}

	// Final SQL is the corrected second statement.
	if out.SQL != "SELECT name FROM employees" {
		t.Fatalf("unexpected final sql: %q", out.SQL)
	}

	// The second prompt embeds the failed SQL and the database error verbatim.
	if len(prov.prompts) != 2 {
		t.Fatalf("expected 2 generations, got %d", len(prov.prompts))
	}
	second := prov.prompts[1]
	if !strings.Contains(second, "SELECT namee FROM employees") {
		t.Fatalf("retry prompt missing prior sql:\n%s", second)
	}
	if !strings.Contains(second, "Unknown column 'namee'") {
		t.Fatalf("retry prompt missing database error:\n%s", second)
	}

	if len(out.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(out.Attempts))
	}
	if out.Attempts[0].State != StateRetrying || out.Attempts[1].State != StateSucceeded {
		t.Fatalf("unexpected attempt states: %s, %s", out.Attempts[0].State, out.Attempts[1].State)
	}
}

func TestRun_RetryCeiling(t *testing.T) {
	rejection := &mysql.MySQLError{Number: 1054, Message: "Unknown column 'x'"}
	prov := &scriptedProvider{replies: []string{"SELECT x FROM t1", "SELECT x FROM t1", "SELECT x FROM t1", "SELECT x FROM t1"}}
	exec := &scriptedExecutor{errs: []error{rejection, rejection, rejection, rejection}}
	runner := NewRunner(NewGenerator(prov), exec, 2, 0, nil, 0, nil)

	out := runner.Run(context.Background(), testRunInput())
	if out.Err == nil {
		t.Fatal("expected exhaustion error")
	}
	// Ceiling of 2 retries = 3 attempts total, never more.
	if len(out.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(out.Attempts))
	}
	if exec.calls != 3 {
		t.Fatalf("expected 3 executions, got %d", exec.calls)
	}
}

func TestRun_UnrecoverableFailsImmediately(t *testing.T) {
	prov := &scriptedProvider{replies: []string{"SELECT 1"}}
	exec := &scriptedExecutor{errs: []error{
		&mysql.MySQLError{Number: 1045, Message: "Access denied for user"},
	}}
	runner := NewRunner(NewGenerator(prov), exec, 2, 0, nil, 0, nil)

	out := runner.Run(context.Background(), testRunInput())
	if out.Err == nil {
		t.Fatal("expected error")
	}
	if len(out.Attempts) != 1 || out.Attempts[0].State != StateFailed {
		t.Fatalf("unexpected attempts: %+v", out.Attempts)
	}
	if exec.calls != 1 {
		t.Fatalf("unrecoverable error consumed retries: %d executions", exec.calls)
	}
}

func TestRun_TimeoutDoesNotRetry(t *testing.T) {
	prov := &scriptedProvider{replies: []string{"SELECT 1"}}
	exec := &scriptedExecutor{errs: []error{context.DeadlineExceeded}}
	runner := NewRunner(NewGenerator(prov), exec, 2, time.Second, nil, 0, nil)

	out := runner.Run(context.Background(), testRunInput())
	if out.Err == nil {
		t.Fatal("expected error")
	}
	if exec.calls != 1 {
		t.Fatalf("timeout consumed retries: %d executions", exec.calls)
	}
}

func TestRun_GenerationFailureRetriedOnce(t *testing.T) {
	prov := &scriptedProvider{
		errs:    []error{errors.New("llm down"), nil},
		replies: []string{"", "SELECT 1"},
	}
	exec := &scriptedExecutor{}
	runner := NewRunner(NewGenerator(prov), exec, 2, 0, nil, 0, nil)

	out := runner.Run(context.Background(), testRunInput())
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if prov.calls != 2 {
		t.Fatalf("expected 2 llm calls, got %d", prov.calls)
	}
	if len(out.Attempts) != 2 || out.Attempts[0].State != StateFailed {
		t.Fatalf("unexpected attempts: %+v", out.Attempts)
	}
}

func TestRun_GenerationFailureTwiceIsFatal(t *testing.T) {
	prov := &scriptedProvider{errs: []error{errors.New("llm down"), errors.New("llm down")}}
	exec := &scriptedExecutor{}
	runner := NewRunner(NewGenerator(prov), exec, 2, 0, nil, 0, nil)

	out := runner.Run(context.Background(), testRunInput())
	if !errors.Is(out.Err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", out.Err)
	}
	if exec.calls != 0 {
		t.Fatalf("expected no executions, got %d", exec.calls)
	}
}

func TestClassifyExecError(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorClass
	}{
		{&mysql.MySQLError{Number: 1054}, Recoverable},
		{&mysql.MySQLError{Number: 1064}, Recoverable},
		{&mysql.MySQLError{Number: 1146}, Recoverable},
		{&mysql.MySQLError{Number: 1045}, Unrecoverable},
		{&mysql.MySQLError{Number: 2013}, Unrecoverable},
		{context.DeadlineExceeded, Unrecoverable},
		{errors.New("no such column: namee"), Recoverable},
		{errors.New("dial tcp 127.0.0.1:3306: connection refused"), Unrecoverable},
		{errors.New("something entirely new"), Unrecoverable},
	}
	for _, tc := range cases {
		if got := ClassifyExecError(tc.err); got != tc.want {
			t.Errorf("ClassifyExecError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
