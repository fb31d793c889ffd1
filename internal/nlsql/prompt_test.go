package nlsql

import (
	"strings"
	"testing"
	"time"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/domain"
	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/schema"
)

func testPromptSnapshot() *schema.Snapshot {
	return &schema.Snapshot{
		Database: "shop",
		Tables: map[string]schema.Table{
			"employees": {
				Name: "employees",
				Columns: []schema.Column{
					{Name: "id", Type: "bigint", PrimaryKey: true},
					{Name: "name", Type: "varchar(255)"},
				},
			},
		},
		CapturedAt: time.Now(),
	}
}

func TestBuildPrompt_ContainsSchemaAndQuestion(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Question: "how many employees",
		Snapshot: testPromptSnapshot(),
		Domain:   domain.Context{Domain: domain.HR},
		Tables:   []string{"employees"},
	})

	if !strings.Contains(prompt, "employees[") {
		t.Fatalf("prompt missing compact schema:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"how many employees"`) {
		t.Fatalf("prompt missing question:\n%s", prompt)
	}
	if !strings.Contains(prompt, "placeholder") {
		t.Fatalf("prompt missing placeholder warning:\n%s", prompt)
	}
	if strings.Contains(prompt, "previously generated") {
		t.Fatalf("first prompt must not carry a retry block:\n%s", prompt)
	}
}

func TestBuildPrompt_RetryBlockOnlyWithPriorError(t *testing.T) {
	in := PromptInput{
		Question:   "how many employees",
		Snapshot:   testPromptSnapshot(),
		Domain:     domain.Context{Domain: domain.HR},
		Tables:     []string{"employees"},
		PriorSQL:   "SELECT namee FROM employees",
		PriorError: "Unknown column 'namee'",
	}
	prompt := BuildPrompt(in)

	if !strings.Contains(prompt, "SELECT namee FROM employees") {
		t.Fatalf("retry prompt missing prior sql:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Unknown column 'namee'") {
		t.Fatalf("retry prompt missing prior error:\n%s", prompt)
	}
}

func TestBuildPrompt_IncludesHistory(t *testing.T) {
	in := PromptInput{
		Question: "and how many of those are managers",
		Snapshot: testPromptSnapshot(),
		Domain:   domain.Context{Domain: domain.HR},
		Tables:   []string{"employees"},
		History:  "Previous conversation:\nQ: how many employees\nA: 42\n",
	}
	prompt := BuildPrompt(in)
	if !strings.Contains(prompt, "Previous conversation:") {
		t.Fatalf("prompt missing history block:\n%s", prompt)
	}
}
