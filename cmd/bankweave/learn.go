package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/spf13/cobra"
)

func learnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn <transaction-id> <category>",
		Short: "Correct a category and apply it to similar transactions",
		Long: `Set the category of one transaction and remember the correction.

Other transactions from the same merchant are updated too, and future imports
from that merchant get the corrected category unless a rule says otherwise.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := strings.TrimSpace(args[1])

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			updated, err := a.categorizer.LearnFromCorrection(ctx, args[0], category)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Categorized %d transactions as %s", updated, category))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
