package main

import (
	"fmt"

	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/spf13/cobra"
)

func dedupeCmd() *cobra.Command {
	var (
		account  string
		provider string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Remove duplicate transactions from an account",
		Long: `Delete transactions that repeat an earlier transaction's date, amount,
description and counterparty. The oldest copy of each group is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := resolveAccount(ctx, a.store, accountRef{provider: provider, name: account})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				reader := cli.NewNonBlockingReader(cmd.InOrStdin())
				ok, confirmErr := reader.Confirm(ctx, out, fmt.Sprintf("Remove duplicate transactions from %s?", acct.DisplayName))
				if confirmErr != nil {
					return confirmErr
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("Nothing removed")) //nolint:forbidigo // User-facing output
					return nil
				}
			}

			removed, err := a.reconciler.RemoveDuplicates(ctx, acct.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Removed %d duplicate transactions", removed))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "account id or display name")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider, when the account is given by name")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
