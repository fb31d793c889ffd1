package answer

import (
	"context"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/nlsql"
)

// ChartPoint is one (x, series, value) tuple handed to the renderer. For
// single-series charts the series is the value column name.
type ChartPoint struct {
	X      string
	Series string
	Value  float64
}

// Graph describes a schema relationship diagram for rendering.
type Graph struct {
	Title string
	Nodes []string
	Edges []GraphEdge
}

type GraphEdge struct {
	From  string
	To    string
	Label string
}

// Renderer turns chart tuples or graphs into an image handle (a path or URL
// the client can fetch). Rendering failures degrade the response, they never
// fail the request.
type Renderer interface {
	RenderChart(ctx context.Context, kind ChartKind, title string, points []ChartPoint) (string, error)
	RenderDiagram(ctx context.Context, g Graph) (string, error)
}

// Summarizer produces a prose answer from a result set. Implementations must
// return a usable string or an error; the formatter substitutes a templated
// fallback on error.
type Summarizer interface {
	Summarize(ctx context.Context, question string, res *nlsql.QueryResult) (string, error)
}
