package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

type Relationship struct {
	SourceTable  string `json:"source_table"`
	SourceColumn string `json:"source_column"`
	TargetTable  string `json:"target_table"`
	TargetColumn string `json:"target_column"`
	// Inferred marks relationships derived from column naming rather than
	// declared foreign keys.
	Inferred bool `json:"inferred,omitempty"`
}

type Table struct {
	Name       string           `json:"name"`
	Columns    []Column         `json:"columns"`
	SampleRows []map[string]any `json:"sample_rows,omitempty"`
}

// Snapshot is an immutable point-in-time capture of one database's structure.
// It is replaced wholesale on refresh, never mutated in place.
type Snapshot struct {
	Database      string           `json:"database"`
	Tables        map[string]Table `json:"tables"`
	Relationships []Relationship   `json:"relationships"`
	CapturedAt    time.Time        `json:"captured_at"`
}

func (s *Snapshot) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Snapshot) HasTable(name string) bool {
	_, ok := s.Tables[name]
	return ok
}

// FreshAt reports whether the snapshot is younger than ttl at the given instant.
func (s *Snapshot) FreshAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CapturedAt) < ttl
}

// Compact renders the named tables in the token-efficient prompt form
// table[col(type)*PK!NULL,...]FK:col->table. Types are truncated and sample
// rows, indexes and other metadata are elided so prompt size stays roughly
// constant regardless of schema width. Unknown names are skipped.
func (s *Snapshot) Compact(tables []string) string {
	fkByTable := make(map[string][]string)
	for _, rel := range s.Relationships {
		if rel.Inferred {
			continue
		}
		fkByTable[rel.SourceTable] = append(fkByTable[rel.SourceTable],
			fmt.Sprintf("%s->%s", rel.SourceColumn, rel.TargetTable))
	}

	sorted := append([]string(nil), tables...)
	sort.Strings(sorted)

	var b strings.Builder
	for _, name := range sorted {
		t, ok := s.Tables[name]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(name)
		b.WriteByte('[')
		for i, col := range t.Columns {
			if i > 0 {
				b.WriteByte(',')
			}
			typ := col.Type
			if len(typ) > 10 {
				typ = typ[:10]
			}
			b.WriteString(col.Name)
			b.WriteByte('(')
			b.WriteString(typ)
			b.WriteByte(')')
			if col.PrimaryKey {
				b.WriteString("*PK")
			}
			if !col.Nullable {
				b.WriteString("!NULL")
			}
		}
		b.WriteByte(']')
		if fks := fkByTable[name]; len(fks) > 0 {
			b.WriteString("FK:")
			b.WriteString(strings.Join(fks, ","))
		}
	}
	return b.String()
}
