package schema

import (
	"strings"
	"testing"
	"time"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Database: "shop",
		Tables: map[string]Table{
			"employees": {
				Name: "employees",
				Columns: []Column{
					{Name: "id", Type: "bigint", PrimaryKey: true},
					{Name: "name", Type: "varchar(255)"},
					{Name: "dept_id", Type: "bigint", Nullable: true},
				},
			},
			"departments": {
				Name: "departments",
				Columns: []Column{
					{Name: "id", Type: "bigint", PrimaryKey: true},
					{Name: "title", Type: "varchar(64)", Nullable: true},
				},
			},
		},
		Relationships: []Relationship{
			{SourceTable: "employees", SourceColumn: "dept_id", TargetTable: "departments", TargetColumn: "id"},
			{SourceTable: "employees", SourceColumn: "manager_id", TargetTable: "employees", TargetColumn: "id", Inferred: true},
		},
		CapturedAt: time.Now(),
	}
}

func TestCompact_Format(t *testing.T) {
	snap := sampleSnapshot()

	got := snap.Compact([]string{"employees"})
	want := "employees[id(bigint)*PK!NULL,name(varchar(25)!NULL,dept_id(bigint)]FK:dept_id->departments"
	if got != want {
		t.Fatalf("compact mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestCompact_TypeTruncation(t *testing.T) {
	snap := sampleSnapshot()
	got := snap.Compact([]string{"employees"})
	if strings.Contains(got, "varchar(255)") {
		t.Fatalf("type not truncated: %q", got)
	}
}

func TestCompact_InferredRelationshipsExcluded(t *testing.T) {
	snap := sampleSnapshot()
	got := snap.Compact([]string{"employees"})
	if strings.Contains(got, "manager_id") {
		t.Fatalf("inferred relationship leaked into FK list: %q", got)
	}
}

func TestCompact_UnknownTablesSkipped(t *testing.T) {
	snap := sampleSnapshot()
	got := snap.Compact([]string{"departments", "nope"})
	if strings.Contains(got, "nope") {
		t.Fatalf("unknown table rendered: %q", got)
	}
	if !strings.HasPrefix(got, "departments[") {
		t.Fatalf("expected departments block, got %q", got)
	}
}

func TestCompact_SortedAndOnePerLine(t *testing.T) {
	snap := sampleSnapshot()
	got := snap.Compact([]string{"employees", "departments"})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "departments[") || !strings.HasPrefix(lines[1], "employees[") {
		t.Fatalf("tables not sorted: %q", got)
	}
}

func TestFreshAt(t *testing.T) {
	snap := &Snapshot{CapturedAt: time.Now().Add(-30 * time.Minute)}
	if !snap.FreshAt(time.Now(), time.Hour) {
		t.Fatal("snapshot within ttl reported stale")
	}
	if snap.FreshAt(time.Now(), 10*time.Minute) {
		t.Fatal("snapshot past ttl reported fresh")
	}
}
