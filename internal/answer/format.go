package answer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/nlsql"
)

const (
	maxCards        = 4
	chartPreviewLen = 5
	titleMaxLen     = 80
)

// Formatter turns a classified result into an envelope. Formatting is total:
// rendering and summarization failures degrade the response (chart to table,
// text to template), they never surface as request errors.
type Formatter struct {
	render    Renderer
	summarize Summarizer
	log       *zap.Logger
}

func NewFormatter(render Renderer, summarize Summarizer, log *zap.Logger) *Formatter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Formatter{render: render, summarize: summarize, log: log}
}

type formatInput struct {
	question string
	sql      string
	res      *nlsql.QueryResult
}

// variant is the shared capability of every response kind. Each variant
// builds its own envelope; unsupported shapes fall through to another
// variant rather than erroring.
type variant interface {
	envelope(ctx context.Context, f *Formatter, in formatInput) *Envelope
}

func variantFor(cls Classification) variant {
	switch cls.Kind {
	case KindChart:
		return chartVariant{kind: cls.Chart}
	case KindCard:
		return cardVariant{}
	case KindText:
		return textVariant{}
	default:
		return tableVariant{}
	}
}

// Format builds the envelope for a classified result. Diagram requests never
// reach here; the pipeline resolves them from the schema before any SQL runs.
func (f *Formatter) Format(ctx context.Context, cls Classification, question, sql string, res *nlsql.QueryResult) *Envelope {
	return variantFor(cls).envelope(ctx, f, formatInput{question: question, sql: sql, res: res})
}

// FormatDiagram renders a schema relationship graph. When no renderer is
// wired the structure itself becomes the content.
func (f *Formatter) FormatDiagram(ctx context.Context, g Graph) *Envelope {
	if f.render != nil {
		handle, err := f.render.RenderDiagram(ctx, g)
		if err == nil {
			return &Envelope{Type: string(KindDiagram), Content: handle, SQL: nil, Title: g.Title}
		}
		f.log.Warn("diagram rendering failed", zap.String("title", g.Title), zap.Error(err))
	}
	return &Envelope{Type: string(KindDiagram), Content: g, SQL: nil, Title: g.Title}
}

type tableVariant struct{}

func (tableVariant) envelope(_ context.Context, _ *Formatter, in formatInput) *Envelope {
	return &Envelope{Type: string(KindTable), Content: Rows(in.res), SQL: sqlPtr(in.sql)}
}

type cardVariant struct{}

func (cardVariant) envelope(ctx context.Context, f *Formatter, in formatInput) *Envelope {
	res := in.res
	if res == nil || res.Empty() {
		return tableVariant{}.envelope(ctx, f, in)
	}

	rows := Rows(res)
	var cards []Card
	if len(rows) == 1 {
		for _, col := range res.Columns {
			if len(cards) == maxCards {
				break
			}
			cards = append(cards, Card{Title: columnTitle(col), Value: displayValue(rows[0][col])})
		}
	} else {
		for i, col := range res.Columns {
			if len(cards) == maxCards {
				break
			}
			sum, ok := columnSum(res, i)
			if !ok {
				continue
			}
			cards = append(cards, Card{Title: "Total " + columnTitle(col), Value: formatNumber(sum)})
		}
	}
	if len(cards) == 0 {
		return tableVariant{}.envelope(ctx, f, in)
	}
	return &Envelope{Type: string(KindCard), Content: cards, SQL: sqlPtr(in.sql)}
}

type chartVariant struct {
	kind ChartKind
}

func (v chartVariant) envelope(ctx context.Context, f *Formatter, in formatInput) *Envelope {
	points, ok := chartPoints(v.kind, in.res)
	if !ok {
		f.log.Warn("result shape unsuitable for chart, degrading to table",
			zap.String("chart", string(v.kind)),
			zap.Int("columns", in.res.ColumnCount()))
		return tableVariant{}.envelope(ctx, f, in)
	}

	title := questionTitle(in.question)
	if f.render == nil {
		return tableVariant{}.envelope(ctx, f, in)
	}
	handle, err := f.render.RenderChart(ctx, v.kind, title, points)
	if err != nil {
		f.log.Warn("chart rendering failed, degrading to table",
			zap.String("chart", string(v.kind)), zap.Error(err))
		return tableVariant{}.envelope(ctx, f, in)
	}
	return &Envelope{
		Type:        string(KindChart),
		Content:     handle,
		SQL:         sqlPtr(in.sql),
		ChartType:   string(v.kind),
		Title:       title,
		DataPreview: preview(in.res, chartPreviewLen),
	}
}

type textVariant struct{}

func (textVariant) envelope(ctx context.Context, f *Formatter, in formatInput) *Envelope {
	if f.summarize != nil {
		prose, err := f.summarize.Summarize(ctx, in.question, in.res)
		if err == nil {
			return TextEnvelope(prose, in.sql)
		}
		f.log.Warn("summarization failed, using template", zap.Error(err))
	}
	return TextEnvelope(fallbackSummary(in.res), in.sql)
}

// chartPoints extracts (x, series, value) tuples. Single-series charts take
// the first column as x and the first numeric column as value; stack charts
// need the (x, series, value) triple explicitly.
func chartPoints(kind ChartKind, res *nlsql.QueryResult) ([]ChartPoint, bool) {
	if res == nil || res.Empty() {
		return nil, false
	}
	if kind == ChartStack {
		if res.ColumnCount() < 3 {
			return nil, false
		}
		points := make([]ChartPoint, 0, len(res.Rows))
		for _, row := range res.Rows {
			val, ok := toFloat(row[2])
			if !ok {
				return nil, false
			}
			points = append(points, ChartPoint{
				X:      displayValue(NormalizeValue(row[0])),
				Series: displayValue(NormalizeValue(row[1])),
				Value:  val,
			})
		}
		return points, true
	}

	if res.ColumnCount() < 2 {
		return nil, false
	}
	valueIdx := -1
	for i := 1; i < len(res.Columns); i++ {
		if _, ok := toFloat(res.Rows[0][i]); ok {
			valueIdx = i
			break
		}
	}
	if valueIdx < 0 {
		return nil, false
	}
	series := res.Columns[valueIdx]
	points := make([]ChartPoint, 0, len(res.Rows))
	for _, row := range res.Rows {
		val, ok := toFloat(row[valueIdx])
		if !ok {
			return nil, false
		}
		points = append(points, ChartPoint{
			X:      displayValue(NormalizeValue(row[0])),
			Series: series,
			Value:  val,
		})
	}
	return points, true
}

func columnSum(res *nlsql.QueryResult, idx int) (float64, bool) {
	var sum float64
	for _, row := range res.Rows {
		v, ok := toFloat(row[idx])
		if !ok {
			return 0, false
		}
		sum += v
	}
	return sum, true
}

func toFloat(v any) (float64, bool) {
	switch x := NormalizeValue(v).(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func displayValue(v any) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok {
		return formatNumber(f)
	}
	return fmt.Sprintf("%v", v)
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func columnTitle(col string) string {
	words := strings.FieldsFunc(col, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func questionTitle(question string) string {
	title := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(question), "?!."))
	if title == "" {
		return "Query Result"
	}
	if len(title) > titleMaxLen {
		title = title[:titleMaxLen]
	}
	return strings.ToUpper(title[:1]) + title[1:]
}
