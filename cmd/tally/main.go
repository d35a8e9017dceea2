// Command tally is a thin console surface over the ledger engine: it wires
// configuration, storage and the session, then dispatches one subcommand.
// All business rules live in internal/services.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"
)

func main() {
	cfg := cli.Bootstrap("tally")

	repo := cli.OpenStorage(cfg)
	defer repo.Close()

	eventsClient := cli.ConnectEvents(cfg)
	if eventsClient != nil {
		defer eventsClient.Close()
	}
	// A nil *events.Client must stay a nil interface for the services.
	var publisher services.EventPublisher
	if eventsClient != nil {
		publisher = eventsClient
	}

	ctx, cancel := cli.SignalContext()
	defer cancel()

	session := cli.ResolveSession(ctx, repo, cfg)
	userID, err := session.CurrentUserID(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "no active session:", err)
		os.Exit(1)
	}

	app := &app{
		userID:   userID,
		repo:     repo,
		ledgers:  services.NewLedgerService(repo, publisher),
		accounts: services.NewAccountService(repo, publisher),
		budgets:  services.NewBudgetService(repo, publisher),
	}

	flag.Parse()
	if err := app.run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	userID   int64
	repo     *storage.Repository
	ledgers  *services.LedgerService
	accounts *services.AccountService
	budgets  *services.BudgetService
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	switch args[0] {
	case "ledgers":
		return a.listLedgers(ctx)
	case "new-ledger":
		if len(args) < 2 {
			return fmt.Errorf("usage: tally new-ledger <name>")
		}
		l, err := a.ledgers.Create(ctx, a.userID, args[1], "")
		if err != nil {
			return err
		}
		fmt.Printf("created ledger %d %q\n", l.ID, l.Name)
		return nil
	case "accounts":
		return a.listAccounts(ctx)
	case "networth":
		total, err := a.accounts.NetWorth(ctx, a.userID)
		if err != nil {
			return err
		}
		fmt.Printf("net worth: %s\n", total.StringFixed(core.Scale))
		return nil
	case "budgets":
		if len(args) < 2 {
			return fmt.Errorf("usage: tally budgets <ledger-id>")
		}
		var ledgerID int64
		if _, err := fmt.Sscanf(args[1], "%d", &ledgerID); err != nil {
			return fmt.Errorf("bad ledger id %q", args[1])
		}
		return a.listBudgets(ctx, ledgerID)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) listLedgers(ctx context.Context) error {
	ledgers, err := a.ledgers.List(ctx, a.userID)
	if err != nil {
		return err
	}
	for _, l := range ledgers {
		fmt.Printf("%4d  %s\n", l.ID, l.Name)
	}
	return nil
}

func (a *app) listAccounts(ctx context.Context) error {
	accounts, err := a.accounts.List(ctx, a.userID)
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		fmt.Printf("%4d  %-10s %-24s %12s\n", acc.ID, acc.Kind, acc.Name, acc.Balance.StringFixed(core.Scale))
	}
	return nil
}

func (a *app) listBudgets(ctx context.Context, ledgerID int64) error {
	budgets, err := a.budgets.List(ctx, a.userID, ledgerID)
	if err != nil {
		return err
	}
	for _, b := range budgets {
		scope := "ledger"
		if b.CategoryID != nil {
			scope = fmt.Sprintf("category %d", *b.CategoryID)
		}
		fmt.Printf("%4d  %-7s %-14s %12s  %s .. %s\n",
			b.ID, b.Period, scope, b.Amount.StringFixed(core.Scale),
			b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02"))
	}
	return nil
}

func usage() {
	fmt.Println(`usage: tally <command>

commands:
  ledgers              list ledgers
  new-ledger <name>    create a ledger with template categories and budgets
  accounts             list accounts
  networth             sum balances of accounts included in net worth
  budgets <ledger-id>  list budgets of a ledger`)
}
