package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	portfolio "github.com/emrek92/Portfoy-Takip"
)

type holdingCmd struct {
	refresh bool
}

func (*holdingCmd) Name() string     { return "holdings" }
func (*holdingCmd) Synopsis() string { return "display current holdings with valuation" }
func (*holdingCmd) Usage() string {
	return `portfoy holdings [-refresh]

  Shows the open position per symbol: FIFO quantity, average cost, current
  value and unrealized PnL. Oversold symbols are flagged.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "Refresh stale market data first.")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if c.refresh {
		if _, err := svc.RefreshMarketData(ctx, portfolio.ScopeAll, false); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	v, err := svc.Holdings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	b.WriteString("# Holdings\n\n")
	b.WriteString("| Symbol | Name | Class | Quantity | Avg Cost | Price | Value | PnL | PnL % | Day % |\n")
	b.WriteString("|--------|------|-------|---------:|---------:|------:|------:|----:|------:|------:|\n")
	for _, h := range v.Holdings {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %%%.2f | %%%.2f |\n",
			cell(h.Symbol), cell(h.Name), h.Type,
			h.Quantity, h.AvgCost, h.CurrentPrice, h.Value,
			h.UnrealizedPnL.SignedString(), h.UnrealizedPnLPct, h.DayChangePct)
	}
	fmt.Fprintf(&b, "\nRealized PnL: %s\n", v.RealizedPnL.SignedString())

	for _, h := range v.Holdings {
		if h.UnmatchedSell.IsPositive() {
			fmt.Fprintf(&b, "\n**Warning**: %s has %s sold units with no matching purchase.\n",
				cell(h.Symbol), h.UnmatchedSell)
		}
	}
	if len(v.Excluded) > 0 {
		fmt.Fprintf(&b, "\n**Warning**: %d transaction(s) excluded for invalid dates (ids %v).\n",
			len(v.Excluded), v.Excluded)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
