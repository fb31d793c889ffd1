package schema

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/db"
)

const sampleRowsPerTable = 2

// Introspector builds a fresh Snapshot from a live database.
type Introspector interface {
	Introspect(ctx context.Context, database string) (*Snapshot, error)
}

// MySQLIntrospector reads information_schema on the analyzed server.
type MySQLIntrospector struct {
	pool *db.Pool
}

func NewMySQLIntrospector(pool *db.Pool) *MySQLIntrospector {
	return &MySQLIntrospector{pool: pool}
}

type columnRow struct {
	TableName  string `gorm:"column:TABLE_NAME"`
	ColumnName string `gorm:"column:COLUMN_NAME"`
	ColumnType string `gorm:"column:COLUMN_TYPE"`
	IsNullable string `gorm:"column:IS_NULLABLE"`
	ColumnKey  string `gorm:"column:COLUMN_KEY"`
}

type fkRow struct {
	TableName            string `gorm:"column:TABLE_NAME"`
	ColumnName           string `gorm:"column:COLUMN_NAME"`
	ReferencedTableName  string `gorm:"column:REFERENCED_TABLE_NAME"`
	ReferencedColumnName string `gorm:"column:REFERENCED_COLUMN_NAME"`
}

func (m *MySQLIntrospector) Introspect(ctx context.Context, database string) (*Snapshot, error) {
	gdb, err := m.pool.Get(database)
	if err != nil {
		return nil, err
	}

	var cols []columnRow
	if err := gdb.WithContext(ctx).Raw(`
		SELECT TABLE_NAME, COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		ORDER BY TABLE_NAME, ORDINAL_POSITION`).Scan(&cols).Error; err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Database:   database,
		Tables:     make(map[string]Table),
		CapturedAt: time.Now(),
	}
	for _, c := range cols {
		t := snap.Tables[c.TableName]
		t.Name = c.TableName
		t.Columns = append(t.Columns, Column{
			Name:       c.ColumnName,
			Type:       c.ColumnType,
			Nullable:   c.IsNullable == "YES",
			PrimaryKey: c.ColumnKey == "PRI",
		})
		snap.Tables[c.TableName] = t
	}

	var fks []fkRow
	if err := gdb.WithContext(ctx).Raw(`
		SELECT TABLE_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE() AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY TABLE_NAME, COLUMN_NAME`).Scan(&fks).Error; err != nil {
		return nil, err
	}
	for _, fk := range fks {
		snap.Relationships = append(snap.Relationships, Relationship{
			SourceTable:  fk.TableName,
			SourceColumn: fk.ColumnName,
			TargetTable:  fk.ReferencedTableName,
			TargetColumn: fk.ReferencedColumnName,
		})
	}

	snap.Relationships = append(snap.Relationships, inferRelationships(snap)...)

	for name, t := range snap.Tables {
		rows, err := sampleRows(ctx, gdb, name)
		if err != nil {
			// Sample rows are LLM grounding only; a table that cannot be
			// read does not fail the whole snapshot.
			continue
		}
		t.SampleRows = rows
		snap.Tables[name] = t
	}

	return snap, nil
}

// inferRelationships finds foreign-key-like columns by naming convention:
// a column x_id pointing at a table named x or xs with no declared FK.
func inferRelationships(snap *Snapshot) []Relationship {
	declared := make(map[string]bool)
	for _, rel := range snap.Relationships {
		declared[rel.SourceTable+"."+rel.SourceColumn] = true
	}

	var inferred []Relationship
	for tableName, t := range snap.Tables {
		for _, col := range t.Columns {
			base, ok := strings.CutSuffix(col.Name, "_id")
			if !ok || base == "" {
				continue
			}
			if declared[tableName+"."+col.Name] {
				continue
			}
			target := ""
			for _, cand := range []string{base, base + "s", base + "es"} {
				if cand != tableName && snap.HasTable(cand) {
					target = cand
					break
				}
			}
			if target == "" {
				continue
			}
			inferred = append(inferred, Relationship{
				SourceTable:  tableName,
				SourceColumn: col.Name,
				TargetTable:  target,
				TargetColumn: "id",
				Inferred:     true,
			})
		}
	}
	return inferred
}

func sampleRows(ctx context.Context, gdb *gorm.DB, table string) ([]map[string]any, error) {
	var rows []map[string]any
	q := fmt.Sprintf("SELECT * FROM `%s` LIMIT %d", table, sampleRowsPerTable)
	if err := gdb.WithContext(ctx).Raw(q).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
