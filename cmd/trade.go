package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	portfolio "github.com/emrek92/Portfoy-Takip"
)

// tradeFlags are the fields shared by the buy and sell subcommands.
type tradeFlags struct {
	date     string
	symbol   string
	class    string
	quantity float64
	price    float64
	fees     float64
	currency string
	broker   string
	notes    string
}

func (t *tradeFlags) register(f *flag.FlagSet) {
	f.StringVar(&t.date, "d", portfolio.Today().String(), "Transaction date (YYYY-MM-DD).")
	f.StringVar(&t.symbol, "sym", "", "Asset symbol (e.g. THYAO, USD, AFT).")
	f.StringVar(&t.class, "class", "", "Asset class (fon, hisse, kripto, doviz, emtia, endeks). Inferred when empty.")
	f.Float64Var(&t.quantity, "q", 0, "Quantity.")
	f.Float64Var(&t.price, "p", 0, "Unit price.")
	f.Float64Var(&t.fees, "fees", 0, "Transaction fees.")
	f.StringVar(&t.currency, "c", portfolio.DefaultCurrency, "Currency code.")
	f.StringVar(&t.broker, "broker", "", "Broker name.")
	f.StringVar(&t.notes, "notes", "", "Free-form notes.")
}

func (t *tradeFlags) transaction(kind portfolio.TxKind) (portfolio.Transaction, error) {
	class := portfolio.InferAssetType(t.symbol, t.notes)
	if t.class != "" {
		parsed, err := portfolio.ParseAssetType(t.class)
		if err != nil {
			return portfolio.Transaction{}, err
		}
		class = parsed
	}
	return portfolio.Transaction{
		Date:     t.date,
		Type:     class,
		Symbol:   t.symbol,
		Kind:     kind,
		Quantity: portfolio.Q(t.quantity),
		Price:    portfolio.M(t.price, t.currency),
		Fees:     portfolio.M(t.fees, t.currency),
		Broker:   t.broker,
		Notes:    t.notes,
	}, nil
}

func (t *tradeFlags) execute(kind portfolio.TxKind) subcommands.ExitStatus {
	tx, err := t.transaction(kind)
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

	id, err := svc.AddTransaction(tx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s %s %s @ %s (id %d)\n", tx.Kind, tx.Quantity, tx.Symbol, tx.Price, id)
	return subcommands.ExitSuccess
}

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase in the ledger" }
func (*buyCmd) Usage() string {
	return `portfoy buy -sym <symbol> -q <quantity> -p <price> [-d <date>] [-class <class>] [-fees <fees>]

  Records a buy transaction and seeds the asset cache for the symbol.
`
}
func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.register(f) }
func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(portfolio.Buy)
}

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale in the ledger" }
func (*sellCmd) Usage() string {
	return `portfoy sell -sym <symbol> -q <quantity> -p <price> [-d <date>] [-fees <fees>]

  Records a sell transaction. Selling more than the open lots cover is
  accepted; the unmatched excess shows up on the holdings report.
`
}
func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.register(f) }
func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.execute(portfolio.Sell)
}
