package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	portfolio "github.com/emrek92/Portfoy-Takip"
)

type watchCmd struct {
	general string
	funds   string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "keep market data fresh in the background" }
func (*watchCmd) Usage() string {
	return `portfoy watch [-general <schedule>] [-funds <schedule>]

  Runs until interrupted, refreshing market data on a cron schedule. The
  per-class cache still applies, so tighter schedules cost nothing while
  prices are fresh.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.general, "general", "@every 15m", "Schedule for the general group.")
	f.StringVar(&c.funds, "funds", "@every 1h", "Schedule for the fund group.")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	log := Logger()
	sched := portfolio.NewScheduler(log)
	refresher := portfolio.NewRefresher(store, providerFor(log), log)
	if err := sched.AddRefresh(c.general, refresher, portfolio.ScopeGeneral); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if err := sched.AddRefresh(c.funds, refresher, portfolio.ScopeFunds); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	// Prime the cache before the first tick.
	if _, err := svc.RefreshMarketData(ctx, portfolio.ScopeAll, false); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("Watching market data. Ctrl-C to stop.")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}
	return subcommands.ExitSuccess
}
