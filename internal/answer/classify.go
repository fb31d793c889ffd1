package answer

import "strings"

// Kind is the closed set of response variants. Every kind knows how to build
// its own envelope; adding a presentation means adding a variant here and a
// case in the formatter, nothing else.
type Kind string

const (
	KindTable   Kind = "table"
	KindChart   Kind = "chart"
	KindCard    Kind = "card"
	KindText    Kind = "text"
	KindDiagram Kind = "diagram"
)

// ChartKind names one supported visualization.
type ChartKind string

const (
	ChartPie     ChartKind = "pie"
	ChartBar     ChartKind = "bar"
	ChartStack   ChartKind = "stack"
	ChartLine    ChartKind = "line"
	ChartScatter ChartKind = "scatter"
)

// ResultShape is the dimensional summary the classifier sees. It never
// inspects values, only the question text and the shape.
type ResultShape struct {
	Rows    int
	Columns int
}

// Classification is the chosen variant plus the chart kind when relevant.
type Classification struct {
	Kind  Kind
	Chart ChartKind
}

// Keyword groups, checked in strict precedence order. An explicit request
// for prose wins over everything, a chart request wins over an explicit
// "table", and the absence of any cue means table.
var (
	textWords = []string{"paragraph", "explain", "explanation", "in words", "describe in text", "narrate"}

	chartPhrases = []struct {
		kind    ChartKind
		phrases []string
	}{
		{ChartPie, []string{"pie chart", "pie diagram", "pie graph"}},
		{ChartStack, []string{"stack chart", "stacked chart", "stacked bar", "stack diagram", "stacked graph"}},
		{ChartBar, []string{"bar chart", "bar diagram", "bar graph"}},
		{ChartLine, []string{"line chart", "line diagram", "line graph", "trend chart"}},
		{ChartScatter, []string{"scatter plot", "scatter chart", "scatter diagram", "scatter graph"}},
	}

	cardWords = []string{"card", "cards", "metric", "metrics", "kpi", "summary card"}

	diagramWords = []string{"relationship diagram", "er diagram", "entity relationship", "schema diagram", "table diagram", "database diagram", "draw the relationship", "draw relationships"}
)

// Classify picks the response variant for a question and result shape. The
// precedence is a total order, so the same question always lands on the same
// variant: text override, then chart, then card, then diagram, then table.
// A stack chart needs at least three columns (x, series, value); with fewer
// the request degrades to a table instead of failing downstream.
func Classify(question string, shape ResultShape) Classification {
	q := strings.ToLower(question)

	for _, w := range textWords {
		if strings.Contains(q, w) {
			return Classification{Kind: KindText}
		}
	}

	for _, group := range chartPhrases {
		for _, p := range group.phrases {
			if strings.Contains(q, p) {
				if group.kind == ChartStack && shape.Columns < 3 {
					return Classification{Kind: KindTable}
				}
				return Classification{Kind: KindChart, Chart: group.kind}
			}
		}
	}

	for _, w := range cardWords {
		if containsWord(q, w) {
			return Classification{Kind: KindCard}
		}
	}

	for _, w := range diagramWords {
		if strings.Contains(q, w) {
			return Classification{Kind: KindDiagram}
		}
	}

	return Classification{Kind: KindTable}
}

// containsWord matches whole words only, so "cardiology" never asks for
// cards.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}
