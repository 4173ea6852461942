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

type txCmd struct {
	start  string
	end    string
	symbol string
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list transactions in the ledger" }
func (*txCmd) Usage() string {
	return `portfoy tx [-s <start_date>] [-d <end_date>] [-sym <symbol>] [-tail <n>]

  Lists ledger transactions, optionally filtered by date range and symbol.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.start, "s", "", "Start date of the range.")
	f.StringVar(&p.end, "d", "", "End date of the range.")
	f.StringVar(&p.symbol, "sym", "", "Only show transactions for this symbol.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

func (p *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := parseRange(p.start, p.end)
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

	txs, err := svc.Transactions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	symbol := strings.ToUpper(p.symbol)
	var rows []portfolio.Transaction
	for _, tx := range txs {
		if symbol != "" && tx.Symbol != symbol {
			continue
		}
		if day, err := tx.Day(); err == nil && !r.Contains(day) {
			continue
		}
		rows = append(rows, tx)
	}
	if p.tail > 0 && len(rows) > p.tail {
		rows = rows[len(rows)-p.tail:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Transactions (%d)\n\n", len(rows))
	b.WriteString("| ID | Date | Type | Symbol | Class | Quantity | Price | Total |\n")
	b.WriteString("|---:|------|------|--------|-------|---------:|------:|------:|\n")
	for _, tx := range rows {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s |\n",
			tx.ID, cell(tx.Date), tx.Kind, cell(tx.Symbol), tx.Type,
			tx.Quantity, tx.Price, tx.Total())
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
