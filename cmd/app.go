// Package cmd implements the CLI application to manage the portfolio.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	portfolio "github.com/emrek92/Portfoy-Takip"
	"github.com/emrek92/Portfoy-Takip/canlidoviz"
	"github.com/emrek92/Portfoy-Takip/tefas"
)

// Commands lists every subcommand in registration order. A main package
// registers them on a commander and executes the user-selected one.
var Commands = []subcommands.Command{
	&buyCmd{},
	&sellCmd{},
	&txCmd{},
	&updateTxCmd{},
	&deleteTxCmd{},
	&summaryCmd{},
	&holdingCmd{},
	&refreshCmd{},
	&watchCmd{},
	&gainsCmd{},
	&perfCmd{},
	&historyCmd{},
	&infoCmd{},
	&searchCmd{},
	&updatesCmd{},
	&exportCmd{},
	&importCmd{},
	&clearCmd{},
}

// as a CLI application it is short lived, so global flags are fine.

var dbPath = flag.String("db", defaultDBPath(), "Path to the portfolio database")
var verbose = flag.Bool("v", false, "Enable debug logging")

func defaultDBPath() string {
	if p := os.Getenv("PORTFOY_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "portfolio.db"
	}
	return filepath.Join(home, ".portfoy", "portfolio.db")
}

// Logger builds the CLI logger: human readable console output on stderr,
// warnings only unless -v.
func Logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// OpenService opens the database and wires the full service: store, price
// sources and refresh coordinator. The caller must Close the returned store.
func OpenService() (*portfolio.Service, *portfolio.Store, error) {
	log := Logger()
	store, err := portfolio.OpenStore(*dbPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open database %q: %w", *dbPath, err)
	}
	refresher := portfolio.NewRefresher(store, providerFor(log), log)
	return portfolio.NewService(store, refresher, log), store, nil
}

// providerFor wires the two upstream price sources behind one provider.
func providerFor(log zerolog.Logger) portfolio.QuoteProvider {
	return portfolio.MultiProvider{
		Funds:   tefas.NewClient(tefas.WithLogger(log)),
		General: canlidoviz.NewClient(canlidoviz.WithLogger(log)),
	}
}

// printMarkdown renders markdown to the terminal, falling back to the raw
// text when rendering fails (e.g. output is not a terminal).
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// parseRange builds a date range from optional -s and -d flags.
func parseRange(start, end string) (portfolio.DateRange, error) {
	var r portfolio.DateRange
	if start != "" {
		from, err := portfolio.ParseDate(start)
		if err != nil {
			return r, fmt.Errorf("invalid start date: %w", err)
		}
		r.From = from
	}
	if end != "" {
		to, err := portfolio.ParseDate(end)
		if err != nil {
			return r, fmt.Errorf("invalid end date: %w", err)
		}
		r.To = to
	}
	return r, nil
}

// money formats a float in ledger currency for table cells.
func money(v float64) string {
	return portfolio.TRY(v).String()
}

// cell escapes a string for use inside a markdown table.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
