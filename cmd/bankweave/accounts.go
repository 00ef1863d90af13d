package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/bankweave/internal/adapter"
	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts",
		Long:    `List, create and configure the accounts transactions are imported into.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(setCreditCardCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			accounts, err := a.store.ListAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No accounts yet. Import a file or use 'bankweave accounts add'.")) //nolint:forbidigo // User-facing output
				return nil
			}
			fmt.Fprintln(out, cli.RenderAccounts(accounts)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func addAccountCmd() *cobra.Command {
	var (
		provider     string
		currency     string
		isCreditCard bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := adapter.ParseProvider(provider)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			account := &model.Account{
				ID:           uuid.NewString(),
				Provider:     string(p),
				DisplayName:  strings.TrimSpace(args[0]),
				CurrencyCode: strings.ToUpper(currency),
				IsCreditCard: isCreditCard,
			}
			if err := a.store.CreateAccount(ctx, account); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created %s account %q (%s)", account.Provider, account.DisplayName, account.ID))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "generic", "provider the account is fed from")
	cmd.Flags().StringVar(&currency, "currency", model.DefaultCurrency, "account currency")
	cmd.Flags().BoolVar(&isCreditCard, "credit-card", false, "treat the account as a credit card")

	return cmd
}

func setCreditCardCmd() *cobra.Command {
	var (
		provider string
		off      bool
	)

	cmd := &cobra.Command{
		Use:   "set-credit-card <account>",
		Short: "Mark an account as a credit card",
		Long: `Mark an account as a credit card. Imports into a credit card account
never overwrite its balance from a statement's balance column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if provider != "" {
				p, parseErr := adapter.ParseProvider(provider)
				if parseErr != nil {
					return parseErr
				}
				provider = string(p)
			}

			account, err := resolveAccount(ctx, a.store, accountRef{provider: provider, name: args[0]})
			if err != nil {
				return err
			}
			if account.IsCreditCard == !off {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing to change")) //nolint:forbidigo // User-facing output
				return nil
			}

			account.IsCreditCard = !off
			if err := a.store.UpdateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}

			state := "a credit card"
			if off {
				state = "a bank account"
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now %s", account.DisplayName, state))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider, when the account is given by name")
	cmd.Flags().BoolVar(&off, "off", false, "clear the credit card flag instead")

	return cmd
}
