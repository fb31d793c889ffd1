package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion call. Zero values mean provider defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Provider is a blocking chat-completion client. Timeouts come from the
// request context or the provider's http client; retries are the caller's job.
type Provider interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}
