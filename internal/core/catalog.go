package core

import "github.com/shopspring/decimal"

// DefaultBadges returns the fixed badge catalog every new garden starts
// with. Earning only ever flips Earned forward and stamps EarnedOn.
func DefaultBadges() []Badge {
	return []Badge{
		{ID: "first-step", Name: "First Step", Description: "Registered your first debt", Icon: "award"},
		{ID: "streak-7", Name: "7-Day Streak", Description: "Active 7 days in a row", Icon: "zap"},
		{ID: "strategist", Name: "Strategist", Description: "Completed a weekly challenge", Icon: "target"},
		{ID: "saver", Name: "Saver", Description: "Recorded 10 income entries", Icon: "piggy-bank"},
	}
}

// DefaultChallenges returns the fixed challenge catalog. Only Progress and
// Completed are ever mutated.
func DefaultChallenges() []Challenge {
	return []Challenge{
		{
			ID:          "save-500",
			Title:       "Save $500 this week",
			Description: "Record income and expenses to save $500",
			Target:      decimal.NewFromInt(500),
			Reward:      "Saver badge",
		},
		{
			ID:          "pay-on-time",
			Title:       "Pay 2 debts on time",
			Description: "Mark 2 payments as completed",
			Target:      decimal.NewFromInt(2),
			Reward:      "Punctual badge",
		},
		{
			ID:          "micro-lessons",
			Title:       "Complete 3 micro-lessons",
			Description: "Learn about personal finance",
			Target:      decimal.NewFromInt(3),
			Reward:      "Student badge",
		},
	}
}

// NewStreak seeds a streak as if today were the first active day.
func NewStreak(today Date) Streak {
	return Streak{Current: 1, Longest: 1, LastActivityDate: today}
}

// DemoDebts returns sample debts used when demo seeding is enabled.
func DemoDebts() []Debt {
	return []Debt{
		{
			ID:      "demo-card-a",
			Name:    "Credit Card A",
			Amount:  decimal.NewFromInt(5200),
			Paid:    decimal.NewFromInt(1500),
			Rate:    decimal.NewFromFloat(18.5),
			DueDate: NewDate(2025, 12, 15),
		},
		{
			ID:      "demo-loan-b",
			Name:    "Personal Loan B",
			Amount:  decimal.NewFromInt(4500),
			Paid:    decimal.NewFromInt(1200),
			Rate:    decimal.NewFromFloat(12.0),
			DueDate: NewDate(2025, 12, 20),
		},
		{
			ID:      "demo-store-c",
			Name:    "Store Credit C",
			Amount:  decimal.NewFromInt(2750),
			Paid:    decimal.NewFromInt(800),
			Rate:    decimal.NewFromFloat(21.0),
			DueDate: NewDate(2025, 12, 10),
		},
	}
}

// DemoTransactions returns sample transactions used when demo seeding is
// enabled.
func DemoTransactions() []Transaction {
	return []Transaction{
		{
			ID:          "demo-salary",
			Type:        Income,
			Amount:      decimal.NewFromInt(3000),
			Category:    "Salary",
			Date:        NewDate(2025, 11, 1),
			Description: "Monthly paycheck",
		},
		{
			ID:          "demo-groceries",
			Type:        Expense,
			Amount:      decimal.NewFromInt(500),
			Category:    "Groceries",
			Date:        NewDate(2025, 11, 5),
			Description: "Supermarket",
		},
	}
}
