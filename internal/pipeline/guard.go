package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/schema"
)

// Questions probing for secrets are refused before any schema or SQL work.
var sensitiveWords = []string{"password", "passwords", "secret", "secrets", "credential", "credentials", "token", "api key"}

const sensitiveRefusal = "I can't help with credentials, passwords, or other secrets. " +
	"Ask me about your business data instead."

func isSensitive(question string) bool {
	q := strings.ToLower(question)
	for _, w := range sensitiveWords {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

var greetings = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "thanks", "thank you", "bye", "goodbye"}

// isSmallTalk spots short greetings so they never reach SQL generation.
func isSmallTalk(question string) bool {
	q := strings.ToLower(strings.TrimRight(strings.TrimSpace(question), "!. "))
	if len(strings.Fields(q)) > 4 {
		return false
	}
	for _, g := range greetings {
		if q == g || strings.HasPrefix(q, g+" ") {
			return true
		}
	}
	return false
}

var docPhrases = []string{
	"what tables", "which tables", "list tables", "list the tables", "show tables",
	"available tables", "what data do you have", "what can i ask",
	"what columns", "which columns", "list columns", "describe table", "structure of",
}

func isDocQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, p := range docPhrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// docAnswer answers structure questions straight from the snapshot. Column
// questions need a resolvable table name; otherwise the table list is the
// helpful default.
func docAnswer(question string, snap *schema.Snapshot) string {
	q := strings.ToLower(question)
	if table, ok := namedTable(q, snap); ok &&
		(strings.Contains(q, "column") || strings.Contains(q, "describe") || strings.Contains(q, "structure")) {
		return describeTable(snap.Tables[table])
	}
	names := snap.TableNames()
	return fmt.Sprintf("The %s database has %d tables: %s.",
		snap.Database, len(names), strings.Join(names, ", "))
}

// namedTable finds the longest table name mentioned in the question, so
// "order_items" wins over "orders" when both appear.
func namedTable(lowerQuestion string, snap *schema.Snapshot) (string, bool) {
	names := snap.TableNames()
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for _, name := range names {
		if strings.Contains(lowerQuestion, strings.ToLower(name)) {
			return name, true
		}
	}
	return "", false
}

func describeTable(t schema.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table %s has %d columns:\n", t.Name, len(t.Columns))
	for _, col := range t.Columns {
		fmt.Fprintf(&b, "- %s (%s)", col.Name, col.Type)
		if col.PrimaryKey {
			b.WriteString(" [primary key]")
		}
		if !col.Nullable {
			b.WriteString(" [required]")
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
