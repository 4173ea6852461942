package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
)

type infoCmd struct {
	symbol string
}

func (*infoCmd) Name() string     { return "info" }
func (*infoCmd) Synopsis() string { return "show the cached market data for a symbol" }
func (*infoCmd) Usage() string {
	return `portfoy info -sym <symbol>

  Shows the asset cache row: last known price, day change and update time.
`
}

func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "sym", "", "Symbol to look up.")
}

func (c *infoCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" {
		fmt.Fprintln(os.Stderr, "Error: -sym is required")
		return subcommands.ExitUsageError
	}
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	a, err := svc.AssetInfo(strings.ToUpper(c.symbol))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cell(a.Symbol))
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Name | %s |\n", cell(a.Name))
	fmt.Fprintf(&b, "| Class | %s |\n", a.Type)
	fmt.Fprintf(&b, "| Price | %s |\n", money(a.CurrentPrice))
	fmt.Fprintf(&b, "| Day Change | %%%.2f |\n", a.DayChangePct)
	if !a.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "| Updated | %s |\n", a.LastUpdated.Local().Format("2006-01-02 15:04"))
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search cached assets by symbol or name" }
func (*searchCmd) Usage() string {
	return `portfoy search <query>

  Matches the query against symbol, name and class of every cached asset.
`
}

func (*searchCmd) SetFlags(f *flag.FlagSet) {}

func (c *searchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.Join(f.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: a search query is required")
		return subcommands.ExitUsageError
	}
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	matches, err := svc.SearchAssets(query)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Matches for %q (%d)\n\n", query, len(matches))
	b.WriteString("| Symbol | Name | Class | Price | Day % |\n")
	b.WriteString("|--------|------|-------|------:|------:|\n")
	for _, a := range matches {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %%%.2f |\n",
			cell(a.Symbol), cell(a.Name), a.Type, money(a.CurrentPrice), a.DayChangePct)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type updatesCmd struct{}

func (*updatesCmd) Name() string     { return "updates" }
func (*updatesCmd) Synopsis() string { return "show when market data was last refreshed" }
func (*updatesCmd) Usage() string {
	return `portfoy updates

  Shows the last cache write per refresh group (funds and general market).
`
}

func (*updatesCmd) SetFlags(f *flag.FlagSet) {}

func (c *updatesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	fund, general, err := svc.LastUpdates()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Funds:   %s\n", formatStamp(fund))
	fmt.Printf("General: %s\n", formatStamp(general))
	return subcommands.ExitSuccess
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
