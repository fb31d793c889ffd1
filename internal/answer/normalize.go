package answer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/nlsql"
)

// Column names treated as secrets; their values never leave the system.
var sensitiveColumnWords = []string{"password", "secret", "token", "key", "credential"}

const redactedValue = "[REDACTED]"

// NormalizeValue coerces any driver value to a JSON-safe one. It is total:
// whatever the driver produced, it returns something encodable and never
// panics. Unrepresentable numbers (NaN, Inf) and nil become null.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x.Format("2006-01-02 15:04:05")
	case *time.Time:
		if x == nil || x.IsZero() {
			return nil
		}
		return x.Format("2006-01-02 15:04:05")
	case []byte:
		return string(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

func isSensitiveColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range sensitiveColumnWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// Rows converts a result to ordered field->value records, normalized and
// with sensitive columns redacted.
func Rows(res *nlsql.QueryResult) []map[string]any {
	if res == nil {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		rec := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			if i >= len(row) {
				rec[col] = nil
				continue
			}
			if isSensitiveColumn(col) {
				rec[col] = redactedValue
				continue
			}
			rec[col] = NormalizeValue(row[i])
		}
		out = append(out, rec)
	}
	return out
}

// preview returns the first n normalized rows for chart payloads.
func preview(res *nlsql.QueryResult, n int) []map[string]any {
	rows := Rows(res)
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
