package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Domain is a business subject area used to scope prompt content.
type Domain string

const (
	HR        Domain = "hr"
	Inventory Domain = "inventory"
	Financial Domain = "financial"
	Reporting Domain = "reporting"
	General   Domain = "general"
)

// priority fixes the tie-break order: on equal scores the earlier domain wins.
var priority = []Domain{HR, Inventory, Financial, Reporting, General}

// keywords maps each domain to its question-keyword set. The map is closed:
// every priority entry must have a set, which NewClassifier verifies.
var keywords = map[Domain][]string{
	HR: {
		"employee", "hire", "attendance", "leave", "hr", "human", "resource",
		"staff", "personnel", "workforce", "payroll", "shift", "schedule", "department",
	},
	Inventory: {
		"product", "stock", "inventory", "sales", "purchase", "item",
		"goods", "merchandise", "supply", "order", "category", "brand",
	},
	Financial: {
		"account", "payment", "transaction", "financial", "money",
		"invoice", "bank", "balance", "revenue", "expense", "budget", "credit",
	},
	Reporting: {
		"report", "chart", "dashboard", "analytics", "statistics",
		"summary", "overview", "trend", "graph",
	},
	General: {
		"user", "person", "party", "entity", "customer", "supplier",
	},
}

// Context is the classification result handed downstream. It is computed once
// per question and read-only afterwards.
type Context struct {
	Domain       Domain
	MatchedTerms []string
	Score        int
}

// Classifier scores questions against the domain keyword sets, expanding
// colloquial nouns through the business-term dictionary first. Classify is a
// pure function: same question, same result.
type Classifier struct {
	keywords map[Domain][]string
	terms    map[string]string
}

func NewClassifier() (*Classifier, error) {
	for _, d := range priority {
		if len(keywords[d]) == 0 {
			return nil, fmt.Errorf("domain %q has no keyword set", d)
		}
	}
	return &Classifier{keywords: keywords, terms: businessTerms}, nil
}

func (c *Classifier) Classify(question string) Context {
	q := strings.ToLower(question)

	// Expand through the business-term dictionary: a colloquial noun in the
	// question also counts as its canonical term.
	expanded := q
	for colloquial, canonical := range c.terms {
		if strings.Contains(q, colloquial) {
			expanded += " " + canonical
		}
	}

	best := Context{Domain: General}
	for _, d := range priority {
		var matched []string
		for _, kw := range c.keywords[d] {
			if strings.Contains(expanded, kw) {
				matched = append(matched, kw)
			}
		}
		// Strictly-greater keeps the priority order as the tie-break.
		if len(matched) > best.Score {
			sort.Strings(matched)
			best = Context{Domain: d, MatchedTerms: matched, Score: len(matched)}
		}
	}

	if best.Score == 0 {
		return Context{Domain: General}
	}
	return best
}
