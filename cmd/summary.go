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

type summaryCmd struct {
	refresh bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio performance summary" }
func (*summaryCmd) Usage() string {
	return `portfoy summary [-refresh]

  Displays the aggregate portfolio view: total value, cost basis, realized
  and unrealized PnL, top and worst performers and period changes.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "Refresh stale market data first.")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	sum, err := svc.Summary()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio Summary (%s)\n\n", sum.Date)
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total Value | %s |\n", sum.TotalValue)
	fmt.Fprintf(&b, "| Total Value (USD) | $%.2f |\n", sum.TotalValueUSD)
	fmt.Fprintf(&b, "| Cost Basis | %s |\n", sum.CostBasis)
	fmt.Fprintf(&b, "| Unrealized PnL | %s |\n", sum.UnrealizedPnL.SignedString())
	fmt.Fprintf(&b, "| Realized PnL | %s |\n", sum.RealizedPnL.SignedString())
	fmt.Fprintf(&b, "| Total Return | %s |\n", sum.TotalReturn.SignedString())
	fmt.Fprintf(&b, "| ROI | %%%.2f |\n", sum.ROIPct)
	fmt.Fprintf(&b, "| Holdings | %d |\n", sum.HoldingsCount)
	fmt.Fprintf(&b, "| Top Performer | %s |\n", cell(sum.TopPerformer))
	fmt.Fprintf(&b, "| Worst Performer | %s |\n", cell(sum.WorstPerformer))
	fmt.Fprintf(&b, "| Avg Holding Days | %.0f |\n", sum.AvgHoldingDays)
	fmt.Fprintf(&b, "| Daily | %s (%%%.2f) |\n", money(sum.Daily.Change), sum.Daily.ChangePct)
	fmt.Fprintf(&b, "| Weekly | %s (%%%.2f) |\n", money(sum.Weekly.Change), sum.Weekly.ChangePct)
	fmt.Fprintf(&b, "| Monthly | %s (%%%.2f) |\n", money(sum.Monthly.Change), sum.Monthly.ChangePct)
	if !sum.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "\nPrices as of %s\n", sum.LastUpdated.Local().Format("2006-01-02 15:04"))
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
