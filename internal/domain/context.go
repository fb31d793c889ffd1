package domain

// Notes is the short domain-specific guidance embedded in SQL prompts.
type Notes struct {
	Description string
	Patterns    []string
}

var promptNotes = map[Domain]Notes{
	HR: {
		Description: "This is an HR management system. Focus on employee, attendance, leave, and payroll data.",
		Patterns: []string{
			"For attendance queries, join employees with attendance_records",
			"For leave queries, use leave_requests and leave_types",
			"Employee data is in employees table, personal info in persons",
		},
	},
	Inventory: {
		Description: "This is an inventory management system. Focus on products, sales, purchases, and stock.",
		Patterns: []string{
			"For stock queries, use product_stock_levels",
			"For sales analysis, join sales with sales_items",
			"Product info is in products table with categories and brands",
		},
	},
	Financial: {
		Description: "This is a financial management system. Focus on accounts, transactions, and payments.",
		Patterns: []string{
			"For payment queries, use payments and transactions tables",
			"Account balances are in accounts table",
			"Transaction categories help classify financial data",
		},
	},
	Reporting: {
		Description: "This is a reporting system. Focus on dashboards, charts, and analytics.",
		Patterns: []string{
			"For report queries, use reports and report_types",
			"For dashboard data, join dashboard_tiles with charts",
		},
	},
	General: {
		Description: "This is a general business system with core entities like customers, users, and parties.",
		Patterns: []string{
			"For customer queries, use core_parties table with type='CUSTOMER'",
			"Core entities are linked through foreign key relationships",
		},
	},
}

// PromptNotes returns the prompt guidance for a domain. Unknown domains get
// the general notes.
func PromptNotes(d Domain) Notes {
	if n, ok := promptNotes[d]; ok {
		return n
	}
	return promptNotes[General]
}
