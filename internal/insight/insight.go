package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/digishe/digishe/internal/ledger"
)

// RecentEntries is how many of the latest entries feed a summary.
const RecentEntries = 10

const (
	// FallbackNoKey is returned when no generator is configured.
	FallbackNoKey = "Tracking your finances is the first step toward business growth. Keep it up!"
	// FallbackEmpty is returned when the generator replies with no text.
	FallbackEmpty = "Your dedication to record-keeping is setting your business up for success."
	// FallbackError is returned when the generator fails or times out.
	FallbackError = "Great job documenting your business journey! Every entry counts towards your success."
)

// Summary is what a generator knows about a business.
type Summary struct {
	BusinessName string
	Category     string
	Sales        decimal.Decimal
	Expenses     decimal.Decimal
	Currency     string
}

// NewSummary totals the most recent entries of a business.
func NewSummary(name, category string, entries []ledger.Entry, currency string) Summary {
	st := ledger.Summarize(ledger.Recent(entries, RecentEntries))
	return Summary{
		BusinessName: name,
		Category:     category,
		Sales:        st.Sales,
		Expenses:     st.Expenses,
		Currency:     currency,
	}
}

// Generator produces a one-sentence business tip. Implementations never fail:
// they return a fallback string instead.
type Generator interface {
	Generate(ctx context.Context, s Summary) string
}

// Static always returns the same tip.
type Static string

func (s Static) Generate(context.Context, Summary) string {
	return string(s)
}

// FormatAmount renders amount in currency using the currency's symbol and
// separators. Digits beyond the currency's minor unit are kept, never rounded.
// Unknown currencies fall back to "<amount> <code>".
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
	}
	fraction := int32(cur.Fraction)
	for !amount.Equal(amount.Truncate(fraction)) {
		fraction++
	}
	f := cur.Formatter()
	formatter := money.NewFormatter(int(fraction), f.Decimal, f.Thousand, f.Grapheme, f.Template)
	return formatter.Format(amount.Shift(fraction).IntPart())
}

// Prompt builds the generator prompt for s.
func Prompt(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s (%s)\n", s.BusinessName, s.Category)
	fmt.Fprintf(&b, "Recent Stats: Total Sales %s, Total Expenses %s\n",
		FormatAmount(s.Sales, s.Currency), FormatAmount(s.Expenses, s.Currency))
	b.WriteString("Task: Give a very short, encouraging, and simple business tip (one sentence) for a woman business owner. ")
	b.WriteString("Focus on growth and financial health. Keep the language simple and friendly.")
	return b.String()
}
