package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/answer"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/convo"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/domain"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/nlsql"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/schema"
)

const rejectedQueryReply = "I generated a query but the database could not run it. " +
	"Try rephrasing the question or naming the exact fields you want."

// SchemaSource yields the current snapshot for a database.
type SchemaSource interface {
	Get(ctx context.Context, database string) (*schema.Snapshot, error)
}

// QueryRunner drives the generate-execute-retry loop.
type QueryRunner interface {
	Run(ctx context.Context, in nlsql.RunInput) nlsql.Outcome
}

// TurnStore persists exchanges and serves prior context.
type TurnStore interface {
	AppendTurn(ctx context.Context, t *convo.Turn) error
	RecentTurns(ctx context.Context, conversationID string, limit int) ([]convo.Turn, error)
}

// Input is one question addressed to one conversation.
type Input struct {
	ConversationID string
	Database       string
	Question       string
}

// Resolver runs a question through the whole pipeline: guards, schema,
// domain, SQL generation and retry, classification, formatting, persistence.
// Strictly sequential. Expected failures come back as text envelopes; the
// only error it returns is an unavailable schema (or a dead context).
type Resolver struct {
	schemas    SchemaSource
	classifier *domain.Classifier
	runner     QueryRunner
	formatter  *answer.Formatter
	turns      TurnStore
	fallback   *Conversational
	log        *zap.Logger
}

func NewResolver(schemas SchemaSource, classifier *domain.Classifier, runner QueryRunner,
	formatter *answer.Formatter, turns TurnStore, fallback *Conversational, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		schemas:    schemas,
		classifier: classifier,
		runner:     runner,
		formatter:  formatter,
		turns:      turns,
		fallback:   fallback,
		log:        log,
	}
}

func (r *Resolver) Resolve(ctx context.Context, in Input) (*answer.Envelope, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return answer.TextEnvelope("Please ask a question about your data.", ""), nil
	}

	if isSensitive(question) {
		env := answer.TextEnvelope(sensitiveRefusal, "")
		r.record(ctx, in, question, env)
		return env, nil
	}

	if isSmallTalk(question) {
		env := answer.TextEnvelope(r.fallback.Reply(ctx, question, nil), "")
		r.record(ctx, in, question, env)
		return env, nil
	}

	snap, err := r.schemas.Get(ctx, in.Database)
	if err != nil {
		return nil, err
	}

	if isDocQuestion(question) {
		env := answer.TextEnvelope(docAnswer(question, snap), "")
		r.record(ctx, in, question, env)
		return env, nil
	}

	// Diagram requests resolve from the snapshot alone, before any SQL.
	if cls := answer.Classify(question, answer.ResultShape{}); cls.Kind == answer.KindDiagram {
		env := r.formatter.FormatDiagram(ctx, buildGraph(question, snap))
		r.record(ctx, in, question, env)
		return env, nil
	}

	dc := r.classifier.Classify(question)
	tables := r.classifier.RelevantTables(question, snap, dc)
	history := r.history(ctx, in.ConversationID)

	out := r.runner.Run(ctx, nlsql.RunInput{
		Question: question,
		Database: in.Database,
		Prompt: nlsql.PromptInput{
			Question: question,
			Snapshot: snap,
			Domain:   dc,
			Tables:   tables,
			History:  history,
		},
	})

	var env *answer.Envelope
	switch {
	case out.Err == nil:
		shape := answer.ResultShape{Rows: out.Result.RowCount(), Columns: out.Result.ColumnCount()}
		env = r.formatter.Format(ctx, answer.Classify(question, shape), question, out.SQL, out.Result)
	case errors.Is(out.Err, nlsql.ErrGeneration):
		r.log.Warn("sql generation exhausted, conversational fallback",
			zap.String("conversation", in.ConversationID),
			zap.Error(out.Err))
		env = answer.TextEnvelope(r.fallback.Reply(ctx, question, snap.TableNames()), "")
	default:
		r.log.Warn("query execution failed",
			zap.String("conversation", in.ConversationID),
			zap.Int("attempts", len(out.Attempts)),
			zap.Error(out.Err))
		env = answer.TextEnvelope(rejectedQueryReply, out.SQL)
	}

	r.record(ctx, in, question, env)
	return env, nil
}

func (r *Resolver) history(ctx context.Context, conversationID string) string {
	if r.turns == nil || conversationID == "" {
		return ""
	}
	turns, err := r.turns.RecentTurns(ctx, conversationID, 0)
	if err != nil {
		r.log.Warn("loading conversation history failed",
			zap.String("conversation", conversationID),
			zap.Error(err))
		return ""
	}
	return convo.HistoryText(turns)
}

// record persists the turn best-effort; a failed write never fails the answer.
func (r *Resolver) record(ctx context.Context, in Input, question string, env *answer.Envelope) {
	if r.turns == nil || in.ConversationID == "" {
		return
	}
	turn := &convo.Turn{
		ConversationID: in.ConversationID,
		Question:       question,
		Answer:         turnAnswer(env),
		ResponseType:   env.Type,
		SQL:            env.SQL,
	}
	if err := r.turns.AppendTurn(ctx, turn); err != nil {
		r.log.Warn("persisting turn failed",
			zap.String("conversation", in.ConversationID),
			zap.Error(err))
	}
}

// turnAnswer is the compact answer text stored with the turn and replayed in
// later prompts. Structured payloads store a synopsis, not the data.
func turnAnswer(env *answer.Envelope) string {
	switch env.Type {
	case "text":
		if s, ok := env.Content.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", env.Content)
	case "table":
		if rows, ok := env.Content.([]map[string]any); ok {
			return fmt.Sprintf("table with %d rows", len(rows))
		}
		return "table"
	case "chart":
		return fmt.Sprintf("%s chart", env.ChartType)
	case "card":
		if cards, ok := env.Content.([]answer.Card); ok {
			return fmt.Sprintf("%d metric cards", len(cards))
		}
		return "metric cards"
	case "diagram":
		return "relationship diagram"
	default:
		return env.Type
	}
}

// buildGraph scopes the diagram to one table when the question names one,
// otherwise covers the whole database.
func buildGraph(question string, snap *schema.Snapshot) answer.Graph {
	lower := strings.ToLower(question)
	if table, ok := namedTable(lower, snap); ok {
		g := answer.Graph{Title: "Relationships of " + table, Nodes: []string{table}}
		for _, rel := range snap.Relationships {
			if rel.SourceTable != table && rel.TargetTable != table {
				continue
			}
			g.Edges = append(g.Edges, answer.GraphEdge{
				From:  rel.SourceTable,
				To:    rel.TargetTable,
				Label: rel.SourceColumn,
			})
			if rel.SourceTable != table {
				g.Nodes = append(g.Nodes, rel.SourceTable)
			}
			if rel.TargetTable != table {
				g.Nodes = append(g.Nodes, rel.TargetTable)
			}
		}
		return g
	}

	g := answer.Graph{Title: "Schema of " + snap.Database, Nodes: snap.TableNames()}
	for _, rel := range snap.Relationships {
		g.Edges = append(g.Edges, answer.GraphEdge{
			From:  rel.SourceTable,
			To:    rel.TargetTable,
			Label: rel.SourceColumn,
		})
	}
	return g
}
