package main

import (
	"fmt"

	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/spf13/cobra"
)

func recategorizeCmd() *cobra.Command {
	var ids []string

	cmd := &cobra.Command{
		Use:   "recategorize",
		Short: "Re-run categorization on uncategorized transactions",
		Long: `Re-run the categorization cascade over transactions that have no category
or only a placeholder one (Other, Income, Expenses, Large Expense).

Transactions you categorized yourself are never touched.

Examples:
  # Sweep every uncategorized transaction
  bankweave recategorize

  # Only look at specific transactions
  bankweave recategorize --id 3f2c... --id 91ab...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			bar := newProgressBar(cmd.ErrOrStderr(), "Categorizing transactions...")
			updated, err := a.categorizer.RecategorizeBatch(ctx, ids, bar.update)
			bar.finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if updated == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No transactions changed category")) //nolint:forbidigo // User-facing output
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Recategorized %d transactions", updated))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "limit the sweep to these transaction ids")

	return cmd
}
