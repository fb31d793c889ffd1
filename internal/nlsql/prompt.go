package nlsql

import (
	"fmt"
	"strings"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/domain"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/schema"
)

// PromptInput carries everything one prompt needs. PriorSQL/PriorError are
// set only on retries.
type PromptInput struct {
	Question   string
	Snapshot   *schema.Snapshot
	Domain     domain.Context
	Tables     []string
	History    string // truncated prior-turn context, may be empty
	PriorSQL   string
	PriorError string
}

// BuildPrompt assembles the bounded SQL-generation prompt: compact schema for
// the relevant tables only, the domain note, the question, and on retries the
// failed SQL with the verbatim database error so the model can self-correct.
func BuildPrompt(in PromptInput) string {
	notes := domain.PromptNotes(in.Domain.Domain)

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert SQL analyst for a %s system.\n", in.Domain.Domain)
	b.WriteString(notes.Description)
	b.WriteString("\n\n")
	b.WriteString("IMPORTANT: Use ONLY the actual table names and column names from the schema below. ")
	b.WriteString("Do NOT use placeholder names like 'your_table_name' or 'table_name'.\n\n")

	b.WriteString("Schema (compact format):\n")
	b.WriteString(in.Snapshot.Compact(in.Tables))
	b.WriteString("\n")

	if len(notes.Patterns) > 0 {
		b.WriteString("\nCommon patterns for this domain:\n")
		for _, p := range notes.Patterns {
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}

	if in.History != "" {
		b.WriteByte('\n')
		b.WriteString(in.History)
		b.WriteByte('\n')
	}

	if in.PriorError != "" {
		b.WriteString("\nThe previously generated query:\n")
		b.WriteString(in.PriorSQL)
		fmt.Fprintf(&b, "\nfailed with the error: %q.\n", in.PriorError)
	}

	fmt.Fprintf(&b, "\nQuestion: %q\n", in.Question)
	b.WriteString("\nUse only the schema above. Output only the SQL query with actual table and column names.")
	return b.String()
}
