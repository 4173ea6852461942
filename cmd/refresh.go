package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	portfolio "github.com/emrek92/Portfoy-Takip"
)

type refreshCmd struct {
	scope string
	force bool
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "refresh cached market data" }
func (*refreshCmd) Usage() string {
	return `portfoy refresh [-scope general|funds|all] [-force]

  Fetches fresh prices for stale symbols. Funds come from TEFAS (4h cache),
  everything else from canlidoviz (15m cache). -force ignores the cache.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.scope, "scope", "all", "Which asset group to refresh (general, funds, all).")
	f.BoolVar(&c.force, "force", false, "Refresh even when the cache is fresh.")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	scope, err := portfolio.ParseRefreshScope(c.scope)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	outcomes, err := svc.RefreshMarketData(ctx, scope, c.force)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var updated, skipped, failed int
	for _, o := range outcomes {
		switch o.Status {
		case portfolio.StatusUpdated:
			updated++
		case portfolio.StatusSkippedFresh:
			skipped++
		case portfolio.StatusFailed:
			failed++
			fmt.Fprintf(os.Stderr, "failed %s: %v\n", o.Symbol, o.Err)
		}
	}
	fmt.Printf("Refreshed %d symbols: %d updated, %d fresh, %d failed\n",
		len(outcomes), updated, skipped, failed)
	return subcommands.ExitSuccess
}
