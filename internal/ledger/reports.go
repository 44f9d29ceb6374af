package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeekDays is the length of the weekly series.
const WeekDays = 7

// Stats totals a set of entries.
type Stats struct {
	Sales    decimal.Decimal `json:"sales"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// DayTotal is one point of the weekly series.
type DayTotal struct {
	Date     time.Time       `json:"date"`
	Weekday  string          `json:"weekday"`
	Sales    decimal.Decimal `json:"sales"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Summarize totals sales and expenses. Balance is sales minus expenses.
func Summarize(entries []Entry) Stats {
	st := Stats{Sales: decimal.Zero, Expenses: decimal.Zero}
	for _, e := range entries {
		switch e.Kind {
		case KindSale:
			st.Sales = st.Sales.Add(e.Amount)
		case KindExpense:
			st.Expenses = st.Expenses.Add(e.Amount)
		}
	}
	st.Balance = st.Sales.Sub(st.Expenses)
	return st
}

// SavingsTotal sums all savings.
func SavingsTotal(savings []Saving) decimal.Decimal {
	total := decimal.Zero
	for _, s := range savings {
		total = total.Add(s.Amount)
	}
	return total
}

// Weekly returns daily totals for the seven days ending on today, oldest first.
func Weekly(entries []Entry, today time.Time) []DayTotal {
	end := Day(today)
	start := end.AddDate(0, 0, -(WeekDays - 1))

	days := make([]DayTotal, WeekDays)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = DayTotal{
			Date:     d,
			Weekday:  d.Weekday().String()[:3],
			Sales:    decimal.Zero,
			Expenses: decimal.Zero,
		}
	}
	for _, e := range entries {
		on := Day(e.OccurredOn)
		if on.Before(start) || on.After(end) {
			continue
		}
		i := int(on.Sub(start).Hours() / 24)
		switch e.Kind {
		case KindSale:
			days[i].Sales = days[i].Sales.Add(e.Amount)
		case KindExpense:
			days[i].Expenses = days[i].Expenses.Add(e.Amount)
		}
	}
	return days
}

// Recent returns the last n entries in recording order.
func Recent(entries []Entry, n int) []Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

var (
	saleCategories = []string{
		"Direct Product Sale", "Service Fee", "Wholesale", "Retail",
		"Subscription", "Consulting", "Other",
	}
	expenseCategories = []string{
		"Rent", "Salary", "Inventory/Stock", "Utilities", "Marketing",
		"Travel", "Taxes", "Maintenance", "Office Supplies", "Other",
	}
)

// DefaultCategories lists the built-in categories offered for a kind.
func DefaultCategories(kind Kind) []string {
	switch kind {
	case KindSale:
		return append([]string(nil), saleCategories...)
	case KindExpense:
		return append([]string(nil), expenseCategories...)
	}
	return nil
}
