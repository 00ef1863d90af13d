package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/config"
	"github.com/Veraticus/bankweave/internal/plaid"
	"github.com/Veraticus/bankweave/internal/service"
	"github.com/Veraticus/bankweave/internal/trading212"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull transactions from a provider API",
		Long: `Fetch recent activity from a provider API and reconcile it into an account.

Records already imported from a CSV export are linked, not duplicated.

Credentials come from the config file, BANKWEAVE_ environment variables or the
provider's own variables (TRADING212_API_KEY, PLAID_CLIENT_ID, ...).`,
	}

	cmd.PersistentFlags().StringVarP(&account, "account", "a", "", "account id or display name")

	cmd.AddCommand(&cobra.Command{
		Use:   "trading212",
		Short: "Sync a Trading 212 cash account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), "trading212", account, trading212Source)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "plaid",
		Short: "Sync the account linked through Plaid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), "plaid", account, plaidSource)
		},
	})

	return cmd
}

type sourceFactory func(cfg *config.Config) (service.TransactionSource, error)

func trading212Source(cfg *config.Config) (service.TransactionSource, error) {
	client, err := trading212.NewClient(cfg.Trading212)
	if err != nil {
		return nil, err
	}
	return trading212.NewSource(client), nil
}

func plaidSource(cfg *config.Config) (service.TransactionSource, error) {
	client, err := plaid.NewClient(cfg.Plaid)
	if err != nil {
		return nil, err
	}
	return plaid.NewSource(client, cfg.PlaidDays), nil
}

func runSync(ctx context.Context, w io.Writer, provider, accountName string, newSource sourceFactory) error {
	if accountName == "" {
		return fmt.Errorf("%w: --account is required", common.ErrInvalidAccount)
	}

	source, err := newSource(currentConfig())
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := resolveAccount(ctx, a.store, accountRef{provider: provider, name: accountName, create: true})
	if err != nil {
		return err
	}

	slog.Info("Syncing account", "provider", provider, "account", account.DisplayName)
	report, err := a.reconciler.ImportFrom(ctx, account.ID, source)
	if err != nil {
		return err
	}

	account = a.reload(ctx, account)

	_, err = fmt.Fprintln(w, cli.RenderImportReport(account, report))
	return err
}
