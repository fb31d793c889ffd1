package domain

import (
	"sort"
	"strings"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/schema"
)

// businessTerms maps colloquial nouns to the canonical table-ish term they
// stand for. Both the classifier and table relevance expand through it.
var businessTerms = map[string]string{
	"staff":       "employee",
	"personnel":   "employee",
	"workforce":   "employee",
	"headcount":   "employee",
	"goods":       "product",
	"merchandise": "product",
	"wares":       "product",
	"clients":     "customer",
	"client":      "customer",
	"vendors":     "supplier",
	"vendor":      "supplier",
	"revenue":     "sales",
	"earnings":    "sales",
	"spending":    "expense",
	"bills":       "invoice",
	"time off":    "leave",
	"vacation":    "leave",
	"wages":       "payroll",
	"salary":      "payroll",
}

const maxFallbackTables = 3

// fallbackPrefixes selects domain tables by naming convention when no term
// matched anything.
var fallbackPrefixes = map[Domain]string{
	HR:        "hr_",
	Inventory: "inv_",
	Financial: "core_fin_",
}

var commonFallbackTables = []string{"employees", "products", "sales", "payments", "users", "accounts"}

// RelevantTables picks the snapshot tables worth showing the model for this
// question: exact term matches first (table name parts, full names,
// singular/plural, business-term expansions), then domain fallbacks.
// Deterministic for a fixed snapshot.
func (c *Classifier) RelevantTables(question string, snap *schema.Snapshot, dc Context) []string {
	q := strings.ToLower(question)
	for colloquial, canonical := range c.terms {
		if strings.Contains(q, colloquial) {
			q += " " + canonical
		}
	}

	matched := make(map[string]bool)
	for term, tables := range buildIndex(snap) {
		if strings.Contains(q, term) {
			for _, t := range tables {
				matched[t] = true
			}
		}
	}

	if len(matched) == 0 {
		for _, t := range fallbackTables(dc.Domain, snap.TableNames()) {
			matched[t] = true
		}
	}

	out := make([]string, 0, len(matched))
	for t := range matched {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// buildIndex maps lookup terms to the snapshot tables they identify.
func buildIndex(snap *schema.Snapshot) map[string][]string {
	index := make(map[string][]string)
	add := func(term, table string) {
		term = strings.TrimSpace(term)
		if len(term) <= 2 {
			return
		}
		index[term] = append(index[term], table)
	}

	for _, name := range snap.TableNames() {
		lower := strings.ToLower(name)
		add(lower, name)
		for _, part := range strings.Split(lower, "_") {
			add(part, name)
			// Singular/plural forms so "employee" finds "employees".
			if strings.HasSuffix(part, "s") {
				add(strings.TrimSuffix(part, "s"), name)
			} else {
				add(part+"s", name)
			}
		}
	}
	return index
}

func fallbackTables(d Domain, allTables []string) []string {
	if prefix, ok := fallbackPrefixes[d]; ok {
		var out []string
		for _, t := range allTables {
			if strings.HasPrefix(t, prefix) {
				out = append(out, t)
				if len(out) == maxFallbackTables {
					break
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	have := make(map[string]bool, len(allTables))
	for _, t := range allTables {
		have[t] = true
	}
	var out []string
	for _, t := range commonFallbackTables {
		if have[t] {
			out = append(out, t)
		}
	}
	return out
}
