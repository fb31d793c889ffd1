package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/ai"
)

const (
	fallbackTemperature = 0.5
	fallbackMaxTokens   = 200

	fallbackApology = "I wasn't able to turn that into a database query. " +
		"Try asking about specific data, for example counts, totals, or lists."
)

// Conversational produces the non-SQL reply used for small talk and for
// questions no query could be generated for. The reply is grounded in the
// table list so the model does not invent data.
type Conversational struct {
	provider ai.Provider
}

func NewConversational(provider ai.Provider) *Conversational {
	return &Conversational{provider: provider}
}

func (c *Conversational) Reply(ctx context.Context, question string, tables []string) string {
	if c == nil || c.provider == nil {
		return fallbackApology
	}

	var b strings.Builder
	b.WriteString("You are a friendly data assistant. The user said something that is not a data question, ")
	b.WriteString("or their question could not be answered with a query. Reply in one or two short sentences. ")
	b.WriteString("Plain language only, no SQL, no technical jargon. ")
	b.WriteString("If it helps, suggest what they could ask about.\n\n")
	fmt.Fprintf(&b, "Available data: %s\n", strings.Join(tables, ", "))
	fmt.Fprintf(&b, "User said: %q\n", question)

	reply, err := c.provider.Chat(ctx,
		[]ai.Message{{Role: "user", Content: b.String()}},
		ai.Options{Temperature: fallbackTemperature, MaxTokens: fallbackMaxTokens},
	)
	if err != nil || strings.TrimSpace(reply) == "" {
		return fallbackApology
	}
	return strings.TrimSpace(reply)
}
