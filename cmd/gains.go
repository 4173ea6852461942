package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type gainsCmd struct {
	start string
	end   string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "report realized PnL for a period" }
func (*gainsCmd) Usage() string {
	return `portfoy gains [-s <start_date>] [-d <end_date>]

  Reports FIFO realized gains for sells dated inside the period. Cost basis
  always comes from the complete ledger history, so a lot sold before the
  period is correctly unavailable inside it.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "Start date of the period.")
	f.StringVar(&c.end, "d", "", "End date of the period.")
}

func (c *gainsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := parseRange(c.start, c.end)
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

	realized, err := svc.RealizedPnLInRange(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	md := fmt.Sprintf("# Realized Gains\n\nPeriod %s to %s: **%s**\n",
		orOpen(c.start), orOpen(c.end), realized.SignedString())
	printMarkdown(md)
	return subcommands.ExitSuccess
}

func orOpen(s string) string {
	if s == "" {
		return "(open)"
	}
	return s
}

type perfCmd struct {
	start string
	end   string
}

func (*perfCmd) Name() string     { return "perf" }
func (*perfCmd) Synopsis() string { return "report portfolio value change over a period" }
func (*perfCmd) Usage() string {
	return `portfoy perf -s <start_date> [-d <end_date>]

  Diffs total portfolio value between the closest snapshots at the two ends
  of the period. Without snapshot history the change is zero.
`
}

func (c *perfCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "Start date of the period.")
	f.StringVar(&c.end, "d", "", "End date of the period, defaults to today.")
}

func (c *perfCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := parseRange(c.start, c.end)
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

	perf, err := svc.RangePerformance(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	md := fmt.Sprintf("# Performance\n\nPeriod %s to %s: %s to %s, **%s** (%%%.2f)\n",
		orOpen(c.start), orOpen(c.end),
		money(perf.StartValue), money(perf.EndValue),
		money(perf.Change), perf.ChangePct)
	printMarkdown(md)
	return subcommands.ExitSuccess
}
