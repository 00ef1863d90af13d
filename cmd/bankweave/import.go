package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/bankweave/internal/adapter"
	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/ofx"
	"github.com/spf13/cobra"
)

type importOptions struct {
	provider     string
	account      string
	isCreditCard bool
	dryRun       bool
}

func importCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a statement export into an account",
		Long: `Parse a provider export and reconcile it into an account.

Rows already imported are skipped, rows that another source already recorded
are linked instead of duplicated, and new rows are categorized on the way in.
The account is created when it does not exist yet.

Examples:
  # Import a Revolut statement into the "Revolut Main" account
  bankweave import ~/Downloads/revolut.csv --provider revolut --account "Revolut Main"

  # Import a credit card statement; its balance column is ignored
  bankweave import cc.csv --provider revolut --account "Revolut Card" --credit-card

  # Import an OFX statement, naming the account after the statement's account id
  bankweave import ~/Downloads/chase_jan.qfx --provider ofx

  # See what a file contains without writing anything
  bankweave import export.csv --provider trading212 --account T212 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "generic", "input dialect (generic, trading212, ptsb, revolut, raisin, traderepublic, ofx)")
	cmd.Flags().StringVarP(&opts.account, "account", "a", "", "account id or display name")
	cmd.Flags().BoolVar(&opts.isCreditCard, "credit-card", false, "create the account as a credit card")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "d", false, "parse the file and show what it contains without saving")

	return cmd
}

func runImport(ctx context.Context, w io.Writer, path string, opts importOptions) error {
	provider, err := adapter.ParseProvider(opts.provider)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path) //nolint:gosec // Reading user-specified import file
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	accountName := opts.account
	if accountName == "" && provider == adapter.ProviderOFX {
		accounts, accErr := ofx.NewParser().Accounts(bytes.NewReader(content))
		if accErr != nil {
			return accErr
		}
		if len(accounts) > 0 {
			accountName = accounts[0]
		}
	}

	slog.Info("Importing file",
		"file", filepath.Base(path),
		"provider", provider,
		"account", accountName,
		"dry_run", opts.dryRun)

	batch, err := adapter.For(provider, adapter.Options{}).Parse(ctx, bytes.NewReader(content), accountName)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("could not read %s as a %s export", filepath.Base(path), provider), err)
	}

	if opts.dryRun {
		return printDryRun(w, batch)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := resolveAccount(ctx, a.store, accountRef{
		provider:     string(provider),
		name:         accountName,
		isCreditCard: opts.isCreditCard,
		create:       true,
	})
	if err != nil {
		return err
	}

	report, err := a.reconciler.ImportBatch(ctx, account.ID, batch)
	if err != nil {
		return err
	}
	account = a.reload(ctx, account)

	_, err = fmt.Fprintln(w, cli.RenderImportReport(account, report))
	return err
}

func printDryRun(w io.Writer, batch *model.ParseResult) error {
	rows := make([][]string, 0, len(batch.Records))
	for _, rec := range batch.Records {
		rows = append(rows, []string{
			rec.TransactionDate.Format("2006-01-02"),
			cli.FormatAmount(rec.Amount, rec.CurrencyCode),
			rec.Description,
			rec.Category,
			rec.SourceTransactionID,
		})
	}

	out := cli.RenderTable([]string{"Date", "Amount", "Description", "Category", "Source ID"}, rows)
	out += "\n" + cli.FormatInfo(fmt.Sprintf("%d records parsed, nothing saved", len(batch.Records)))
	if batch.DetectedBalance != nil {
		out += "\n" + cli.FormatInfo("Detected balance: "+cli.FormatAmount(*batch.DetectedBalance, ""))
	}
	if len(batch.RowErrors) > 0 {
		out += "\n" + cli.RenderRowErrors(batch.RowErrors)
	}

	_, err := fmt.Fprintln(w, out)
	return err
}
