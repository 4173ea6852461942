package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	portfolio "github.com/emrek92/Portfoy-Takip"
)

type updateTxCmd struct {
	tradeFlags
	id   int64
	kind string
}

func (*updateTxCmd) Name() string     { return "edit" }
func (*updateTxCmd) Synopsis() string { return "replace an existing transaction" }
func (*updateTxCmd) Usage() string {
	return `portfoy edit -id <id> -kind <buy|sell> -sym <symbol> -q <quantity> -p <price> [...]

  Replaces all fields of the transaction with the given id.
`
}

func (c *updateTxCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.Int64Var(&c.id, "id", 0, "Id of the transaction to edit.")
	f.StringVar(&c.kind, "kind", "buy", "Transaction direction (buy or sell).")
}

func (c *updateTxCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}
	kind, err := portfolio.ParseTxKind(c.kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	tx, err := c.transaction(kind)
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

	if err := svc.UpdateTransaction(c.id, tx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Updated transaction %d\n", c.id)
	return subcommands.ExitSuccess
}

type deleteTxCmd struct {
	id int64
}

func (*deleteTxCmd) Name() string     { return "rm" }
func (*deleteTxCmd) Synopsis() string { return "delete a transaction from the ledger" }
func (*deleteTxCmd) Usage() string {
	return `portfoy rm -id <id>

  Deletes the transaction with the given id.
`
}

func (c *deleteTxCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Id of the transaction to delete.")
}

func (c *deleteTxCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -id is required")
		return subcommands.ExitUsageError
	}
	svc, store, err := OpenService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	if err := svc.DeleteTransaction(c.id); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted transaction %d\n", c.id)
	return subcommands.ExitSuccess
}
