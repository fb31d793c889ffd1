package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/ai"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/nlsql"
)

const (
	summaryTemperature = 0.3
	summaryMaxTokens   = 300
	summaryMaxRows     = 20
)

// LLMSummarizer asks the model for a short prose answer over the result set.
type LLMSummarizer struct {
	provider ai.Provider
}

func NewLLMSummarizer(provider ai.Provider) *LLMSummarizer {
	return &LLMSummarizer{provider: provider}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, question string, res *nlsql.QueryResult) (string, error) {
	rows := Rows(res)
	if len(rows) > summaryMaxRows {
		rows = rows[:summaryMaxRows]
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are a business analyst. Answer the question in one short paragraph ")
	b.WriteString("using only the data provided. Do not mention SQL, tables, or JSON.\n\n")
	fmt.Fprintf(&b, "Question: %q\n", question)
	fmt.Fprintf(&b, "Data (%d of %d rows): %s\n", len(rows), res.RowCount(), data)

	answer, err := s.provider.Chat(ctx,
		[]ai.Message{{Role: "user", Content: b.String()}},
		ai.Options{Temperature: summaryTemperature, MaxTokens: summaryMaxTokens},
	)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("empty summary completion")
	}
	return answer, nil
}

// fallbackSummary is the templated prose used when no summarizer is wired or
// the model call fails. It is total over any result shape.
func fallbackSummary(res *nlsql.QueryResult) string {
	if res == nil || res.Empty() {
		return "The query returned no results."
	}
	rows := Rows(res)
	if len(rows) == 1 {
		if len(res.Columns) == 1 {
			return fmt.Sprintf("I found: %v", rows[0][res.Columns[0]])
		}
		parts := make([]string, 0, len(res.Columns))
		for _, col := range res.Columns {
			parts = append(parts, fmt.Sprintf("%s: %v", col, rows[0][col]))
		}
		return fmt.Sprintf("I found %d pieces of information. %s.", len(res.Columns), strings.Join(parts, ", "))
	}
	return fmt.Sprintf("I found %d records with %d columns each.", res.RowCount(), res.ColumnCount())
}
