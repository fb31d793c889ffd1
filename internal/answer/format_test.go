package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/nlsql"
)

type fakeRenderer struct {
	err       error
	lastKind  ChartKind
	lastPts   []ChartPoint
	lastGraph Graph
}

func (r *fakeRenderer) RenderChart(ctx context.Context, kind ChartKind, title string, points []ChartPoint) (string, error) {
	_ = ctx
	_ = title
	if r.err != nil {
		return "", r.err
	}
	r.lastKind = kind
	r.lastPts = points
	return "charts/test-handle", nil
}

func (r *fakeRenderer) RenderDiagram(ctx context.Context, g Graph) (string, error) {
	_ = ctx
	if r.err != nil {
		return "", r.err
	}
	r.lastGraph = g
	return "charts/test-diagram", nil
}

type fakeSummarizer struct {
	reply string
	err   error
}

func (s *fakeSummarizer) Summarize(ctx context.Context, question string, res *nlsql.QueryResult) (string, error) {
	_ = ctx
	_ = question
	_ = res
	return s.reply, s.err
}

func salesResult() *nlsql.QueryResult {
	return &nlsql.QueryResult{
		Columns: []string{"region", "total"},
		Rows: [][]any{
			{"north", int64(120)},
			{"south", int64(80)},
		},
	}
}

func TestFormat_Table(t *testing.T) {
	f := NewFormatter(&fakeRenderer{}, &fakeSummarizer{}, nil)

	env := f.Format(context.Background(), Classification{Kind: KindTable}, "show sales", "SELECT 1", salesResult())
	if env.Type != "table" {
		t.Fatalf("expected table, got %s", env.Type)
	}
	rows, ok := env.Content.([]map[string]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("unexpected content: %#v", env.Content)
	}
	if env.SQL == nil || *env.SQL != "SELECT 1" {
		t.Fatalf("sql not carried: %v", env.SQL)
	}
}

func TestFormat_Chart(t *testing.T) {
	render := &fakeRenderer{}
	f := NewFormatter(render, &fakeSummarizer{}, nil)

	env := f.Format(context.Background(), Classification{Kind: KindChart, Chart: ChartBar},
		"bar chart of sales by region", "SELECT 1", salesResult())
	if env.Type != "chart" {
		t.Fatalf("expected chart, got %s", env.Type)
	}
	if env.ChartType != "bar" {
		t.Fatalf("expected chart_type bar, got %q", env.ChartType)
	}
	if env.Content != "charts/test-handle" {
		t.Fatalf("unexpected handle: %v", env.Content)
	}
	if len(render.lastPts) != 2 || render.lastPts[0].X != "north" || render.lastPts[0].Value != 120 {
		t.Fatalf("unexpected points: %+v", render.lastPts)
	}
	if len(env.DataPreview) != 2 {
		t.Fatalf("expected data preview, got %v", env.DataPreview)
	}
}

func TestFormat_ChartRenderFailureDegradesToTable(t *testing.T) {
	f := NewFormatter(&fakeRenderer{err: errors.New("render down")}, &fakeSummarizer{}, nil)

	env := f.Format(context.Background(), Classification{Kind: KindChart, Chart: ChartPie},
		"pie chart of sales", "SELECT 1", salesResult())
	if env.Type != "table" {
		t.Fatalf("expected degradation to table, got %s", env.Type)
	}
}

func TestFormat_StackWithTwoColumnsDegrades(t *testing.T) {
	f := NewFormatter(&fakeRenderer{}, &fakeSummarizer{}, nil)

	env := f.Format(context.Background(), Classification{Kind: KindChart, Chart: ChartStack},
		"stacked chart of sales", "SELECT 1", salesResult())
	if env.Type != "table" {
		t.Fatalf("expected table for 2-column stack, got %s", env.Type)
	}
}

func TestFormat_StackPoints(t *testing.T) {
	render := &fakeRenderer{}
	f := NewFormatter(render, &fakeSummarizer{}, nil)

	res := &nlsql.QueryResult{
		Columns: []string{"quarter", "region", "total"},
		Rows: [][]any{
			{"Q1", "north", int64(10)},
			{"Q1", "south", int64(20)},
		},
	}
	env := f.Format(context.Background(), Classification{Kind: KindChart, Chart: ChartStack},
		"stacked chart of sales", "SELECT 1", res)
	if env.Type != "chart" {
		t.Fatalf("expected chart, got %s", env.Type)
	}
	if render.lastPts[1].X != "Q1" || render.lastPts[1].Series != "south" || render.lastPts[1].Value != 20 {
		t.Fatalf("unexpected stack points: %+v", render.lastPts)
	}
}

func TestFormat_CardSingleValue(t *testing.T) {
	f := NewFormatter(&fakeRenderer{}, &fakeSummarizer{}, nil)

	res := &nlsql.QueryResult{Columns: []string{"total_revenue"}, Rows: [][]any{{int64(4200)}}}
	env := f.Format(context.Background(), Classification{Kind: KindCard}, "revenue as a metric", "SELECT 1", res)
	if env.Type != "card" {
		t.Fatalf("expected card, got %s", env.Type)
	}
	cards, ok := env.Content.([]Card)
	if !ok || len(cards) != 1 {
		t.Fatalf("unexpected content: %#v", env.Content)
	}
	if cards[0].Title != "Total Revenue" || cards[0].Value != "4200" {
		t.Fatalf("unexpected card: %+v", cards[0])
	}
}

func TestFormat_CardCapsAtFour(t *testing.T) {
	f := NewFormatter(&fakeRenderer{}, &fakeSummarizer{}, nil)

	res := &nlsql.QueryResult{
		Columns: []string{"a", "b", "c", "d", "e", "f"},
		Rows:    [][]any{{int64(1), int64(2), int64(3), int64(4), int64(5), int64(6)}},
	}
	env := f.Format(context.Background(), Classification{Kind: KindCard}, "metrics", "SELECT 1", res)
	cards := env.Content.([]Card)
	if len(cards) != 4 {
		t.Fatalf("expected 4 cards, got %d", len(cards))
	}
}

func TestFormat_CardEmptyResultFallsBackToTable(t *testing.T) {
	f := NewFormatter(&fakeRenderer{}, &fakeSummarizer{}, nil)

	res := &nlsql.QueryResult{Columns: []string{"total"}}
	env := f.Format(context.Background(), Classification{Kind: KindCard}, "metric", "SELECT 1", res)
	if env.Type != "table" {
		t.Fatalf("expected table fallback, got %s", env.Type)
	}
}

func TestFormat_TextUsesSummarizer(t *testing.T) {
	f := NewFormatter(&fakeRenderer{}, &fakeSummarizer{reply: "Sales are strongest in the north."}, nil)

	env := f.Format(context.Background(), Classification{Kind: KindText}, "explain sales", "SELECT 1", salesResult())
	if env.Type != "text" {
		t.Fatalf("expected text, got %s", env.Type)
	}
	if env.Content != "Sales are strongest in the north." {
		t.Fatalf("unexpected content: %v", env.Content)
	}
}

func TestFormat_TextSummarizerFailureUsesTemplate(t *testing.T) {
	f := NewFormatter(&fakeRenderer{}, &fakeSummarizer{err: errors.New("llm down")}, nil)

	env := f.Format(context.Background(), Classification{Kind: KindText}, "explain sales", "SELECT 1", salesResult())
	content, _ := env.Content.(string)
	if !strings.Contains(content, "2 records") {
		t.Fatalf("expected templated fallback, got %q", content)
	}
}

func TestFormatDiagram(t *testing.T) {
	render := &fakeRenderer{}
	f := NewFormatter(render, &fakeSummarizer{}, nil)

	g := Graph{
		Title: "Schema of shop",
		Nodes: []string{"employees", "departments"},
		Edges: []GraphEdge{{From: "employees", To: "departments", Label: "dept_id"}},
	}
	env := f.FormatDiagram(context.Background(), g)
	if env.Type != "diagram" {
		t.Fatalf("expected diagram, got %s", env.Type)
	}
	if env.Content != "charts/test-diagram" {
		t.Fatalf("unexpected content: %v", env.Content)
	}
	if env.SQL != nil {
		t.Fatalf("diagram must carry null sql, got %v", *env.SQL)
	}
}

func TestFallbackSummary_Shapes(t *testing.T) {
	if got := fallbackSummary(nil); !strings.Contains(got, "no results") {
		t.Fatalf("nil result: %q", got)
	}

	one := &nlsql.QueryResult{Columns: []string{"count"}, Rows: [][]any{{int64(42)}}}
	if got := fallbackSummary(one); !strings.Contains(got, "42") {
		t.Fatalf("1x1 result: %q", got)
	}

	if got := fallbackSummary(salesResult()); !strings.Contains(got, "2 records") {
		t.Fatalf("multi-row result: %q", got)
	}
}
