package nlsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/ai"
)

const (
	generateTemperature = 0
	generateMaxTokens   = 500
)

// Completions that contain these are placeholder hallucinations, not SQL
// against the provided schema.
var placeholderIdents = []string{
	"your_table_name", "your_column_name", "table_name", "column_name",
}

// Generator wraps the LLM call and parses the completion down to a single
// SELECT statement. It has no retry logic of its own.
type Generator struct {
	provider ai.Provider
}

func NewGenerator(provider ai.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate returns exactly one executable statement or ErrGeneration.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := g.provider.Chat(ctx,
		[]ai.Message{{Role: "user", Content: prompt}},
		ai.Options{Temperature: generateTemperature, MaxTokens: generateMaxTokens},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	sql, err := ExtractSQL(completion)
	if err != nil {
		return "", err
	}
	return sql, nil
}

// ExtractSQL strips markdown fences and surrounding prose from a completion
// and validates that what remains is one plain SELECT. Extra prose is
// stripped, never trusted.
func ExtractSQL(completion string) (string, error) {
	sql := strings.TrimSpace(completion)

	if idx := strings.Index(sql, "```"); idx >= 0 {
		rest := sql[idx+3:]
		// Fence may carry a language tag on the same line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], " \t") {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		sql = strings.TrimSpace(rest)
	}

	// Keep only the statement itself when the model prepended prose.
	if !isSelect(sql) {
		for _, marker := range []string{"SELECT", "Select", "select", "WITH", "With", "with"} {
			if idx := strings.Index(sql, marker); idx > 0 {
				sql = strings.TrimSpace(sql[idx:])
				break
			}
		}
	}

	// Exactly one statement: drop anything after the first terminator.
	if idx := strings.IndexByte(sql, ';'); idx >= 0 {
		sql = strings.TrimSpace(sql[:idx])
	}

	if sql == "" {
		return "", fmt.Errorf("%w: completion contained no SQL", ErrGeneration)
	}
	lower := strings.ToLower(sql)
	for _, placeholder := range placeholderIdents {
		if strings.Contains(lower, placeholder) {
			return "", fmt.Errorf("%w: completion used placeholder identifier %q", ErrGeneration, placeholder)
		}
	}
	if !isSelect(sql) {
		return "", fmt.Errorf("%w: refusing non-SELECT statement", ErrGeneration)
	}
	return sql, nil
}

func isSelect(sql string) bool {
	lower := strings.ToLower(strings.TrimSpace(sql))
	return strings.HasPrefix(lower, "select") || strings.HasPrefix(lower, "with")
}
