package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type historyCmd struct {
	symbol string
	start  string
	end    string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show recorded daily prices or portfolio value" }
func (*historyCmd) Usage() string {
	return `portfoy history [-sym <symbol>] [-s <start_date>] [-d <end_date>]

  With -sym, lists the recorded daily prices of one symbol. Without it,
  lists the daily portfolio value snapshots.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "sym", "", "Symbol to show price history for.")
	f.StringVar(&c.start, "s", "", "Start date of the range.")
	f.StringVar(&c.end, "d", "", "End date of the range.")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := parseRange(c.start, c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	_, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	var b strings.Builder
	if c.symbol != "" {
		points, err := store.PriceHistory(strings.ToUpper(c.symbol), r)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(&b, "# %s price history (%d days)\n\n", cell(strings.ToUpper(c.symbol)), len(points))
		b.WriteString("| Date | Price |\n|------|------:|\n")
		for _, p := range points {
			fmt.Fprintf(&b, "| %s | %s |\n", p.Date, money(p.Price))
		}
	} else {
		snaps, err := store.Snapshots(r)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(&b, "# Portfolio history (%d days)\n\n", len(snaps))
		b.WriteString("| Date | Value | USD | Unrealized | Realized |\n")
		b.WriteString("|------|------:|----:|-----------:|---------:|\n")
		for _, s := range snaps {
			fmt.Fprintf(&b, "| %s | %s | $%.2f | %s | %s |\n",
				s.Date, money(s.TotalValue), s.TotalValueUSD,
				money(s.UnrealizedPnL), money(s.RealizedPnL))
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
