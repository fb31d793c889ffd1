package answer

// Envelope is the complete, typed response for one question. The HTTP layer
// forwards it verbatim. SQL is always present (null when no statement was
// executable), even on error paths, for auditability.
type Envelope struct {
	Type        string           `json:"type"` // table | chart | card | text | diagram
	Content     any              `json:"content"`
	SQL         *string          `json:"sql"`
	ChartType   string           `json:"chart_type,omitempty"`
	Title       string           `json:"title,omitempty"`
	DataPreview []map[string]any `json:"data_preview,omitempty"`
}

// Card is one labeled metric entry.
type Card struct {
	Title  string  `json:"title"`
	Value  string  `json:"value"`
	Change *string `json:"change"`
}

func sqlPtr(sql string) *string {
	if sql == "" {
		return nil
	}
	return &sql
}

// TextEnvelope builds the text-typed envelope used for answers and absorbed
// failures alike.
func TextEnvelope(content, sql string) *Envelope {
	return &Envelope{Type: "text", Content: content, SQL: sqlPtr(sql)}
}
