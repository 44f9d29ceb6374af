package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/digishe/digishe/internal/insight"
	"github.com/digishe/digishe/internal/ledger"
)

type summaryCmd struct {
	phone  string
	recent int
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the totals and weekly series of a business" }
func (*summaryCmd) Usage() string {
	return `admin summary -phone <number> [-n <recent>]

  Prints the stored totals, the last seven days and the most recent entries
  of the business owned by the phone number.
`
}

func (s *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.phone, "phone", "", "Owner phone number, local or international format.")
	f.IntVar(&s.recent, "n", 5, "Number of recent entries to list.")
}

func (s *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if s.phone == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.close()

	user, b, err := e.owned(ctx, s.phone)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	entries, err := e.store.Entries(ctx, b.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	savings, err := e.store.Savings(ctx, b.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	cur := e.cfg.Currency
	stats := ledger.Summarize(entries)
	fmt.Printf("%s (%s), owner %s %s, active=%t\n\n", b.Name, b.Category, user.Name, user.Phone, b.IsActive)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Sales\t%s\t\n", insight.FormatAmount(stats.Sales, cur))
	fmt.Fprintf(w, "Expenses\t%s\t\n", insight.FormatAmount(stats.Expenses, cur))
	fmt.Fprintf(w, "Balance\t%s\t\n", insight.FormatAmount(stats.Balance, cur))
	fmt.Fprintf(w, "Savings\t%s\t\n", insight.FormatAmount(ledger.SavingsTotal(savings), cur))
	w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Day\tDate\tSales\tExpenses\t")
	for _, d := range ledger.Weekly(entries, time.Now()) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", d.Weekday, d.Date.Format(time.DateOnly),
			insight.FormatAmount(d.Sales, cur), insight.FormatAmount(d.Expenses, cur))
	}
	w.Flush()

	recent := ledger.Recent(entries, s.recent)
	if len(recent) == 0 {
		return subcommands.ExitSuccess
	}
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, entry := range recent {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.OccurredOn.Format(time.DateOnly), entry.Kind, entry.Category, insight.FormatAmount(entry.Amount, cur))
	}
	w.Flush()
	return subcommands.ExitSuccess
}
