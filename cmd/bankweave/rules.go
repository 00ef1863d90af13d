package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/rulefile"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule", "patterns"},
		Short:   "Manage categorization rules",
		Long: `Rules map a description pattern onto a category. They are evaluated before
learned corrections and keyword matching, highest priority first.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(updateRuleCmd())
	cmd.AddCommand(deleteRuleCmd())
	cmd.AddCommand(exportRulesCmd())
	cmd.AddCommand(importRulesCmd())
	cmd.AddCommand(applyRulesCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.rules.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rules) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No rules found. Use 'bankweave rules add' to create one.")) //nolint:forbidigo // User-facing output
				return nil
			}
			fmt.Fprintln(out, cli.RenderRules(rules)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

// ruleFlags holds the flag values shared by add and update.
type ruleFlags struct {
	pattern         string
	category        string
	transactionType string
	priority        int
	isRegex         bool
	caseSensitive   bool
	essential       bool
}

func addRuleCmd() *cobra.Command {
	var f ruleFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a rule",
		Long: `Create a rule.

Examples:
  # Everything mentioning TESCO is groceries
  bankweave rules add --pattern TESCO --category Groceries

  # Salary credits, matched by regex, only on positive amounts
  bankweave rules add --pattern '^SALARY\s' --regex --type positive --category Income --priority 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			txnType, err := model.ParseTransactionType(f.transactionType)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rule := &model.Rule{
				Pattern:         f.pattern,
				Category:        f.category,
				TransactionType: txnType,
				Priority:        f.priority,
				IsRegex:         f.isRegex,
				CaseSensitive:   f.caseSensitive,
				MarkAsEssential: f.essential,
			}
			if err := a.rules.Create(ctx, rule); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created rule %s: %q → %s", rule.ID, rule.Pattern, rule.Category))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&f.pattern, "pattern", "", "text or regular expression to match in descriptions")
	cmd.Flags().StringVar(&f.category, "category", "", "category to assign")
	cmd.Flags().StringVar(&f.transactionType, "type", "any", "amount sign the rule applies to (any, positive, negative)")
	cmd.Flags().IntVar(&f.priority, "priority", 0, "higher priorities are evaluated first")
	cmd.Flags().BoolVar(&f.isRegex, "regex", false, "treat the pattern as a regular expression")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "match case exactly")
	cmd.Flags().BoolVar(&f.essential, "essential", false, "mark matching transactions as essential expenses")
	_ = cmd.MarkFlagRequired("pattern")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func updateRuleCmd() *cobra.Command {
	var f ruleFlags

	cmd := &cobra.Command{
		Use:   "update <rule-id>",
		Short: "Change fields of a rule",
		Long:  `Change fields of a rule. Only the flags you pass are updated.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := ruleUpdateFromFlags(cmd, f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rule, err := a.rules.Update(ctx, args[0], update)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated rule %s: %q → %s", rule.ID, rule.Pattern, rule.Category))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&f.pattern, "pattern", "", "new pattern")
	cmd.Flags().StringVar(&f.category, "category", "", "new category")
	cmd.Flags().StringVar(&f.transactionType, "type", "", "new amount sign (any, positive, negative)")
	cmd.Flags().IntVar(&f.priority, "priority", 0, "new priority")
	cmd.Flags().BoolVar(&f.isRegex, "regex", false, "treat the pattern as a regular expression")
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", false, "match case exactly")
	cmd.Flags().BoolVar(&f.essential, "essential", false, "mark matching transactions as essential expenses")

	return cmd
}

var errNoChanges = errors.New("no fields to update, pass at least one flag")

// ruleUpdateFromFlags builds a partial update from the flags the user actually set.
func ruleUpdateFromFlags(cmd *cobra.Command, f ruleFlags) (model.RuleUpdate, error) {
	var update model.RuleUpdate
	changed := false
	flags := cmd.Flags()

	if flags.Changed("pattern") {
		update.Pattern = &f.pattern
		changed = true
	}
	if flags.Changed("category") {
		update.Category = &f.category
		changed = true
	}
	if flags.Changed("type") {
		txnType, err := model.ParseTransactionType(f.transactionType)
		if err != nil {
			return model.RuleUpdate{}, err
		}
		update.TransactionType = &txnType
		changed = true
	}
	if flags.Changed("priority") {
		update.Priority = &f.priority
		changed = true
	}
	if flags.Changed("regex") {
		update.IsRegex = &f.isRegex
		changed = true
	}
	if flags.Changed("case-sensitive") {
		update.CaseSensitive = &f.caseSensitive
		changed = true
	}
	if flags.Changed("essential") {
		update.MarkAsEssential = &f.essential
		changed = true
	}

	if !changed {
		return model.RuleUpdate{}, errNoChanges
	}
	return update, nil
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.rules.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted rule "+args[0])) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func exportRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write rules to a YAML file",
		Long:  `Write rules to a YAML file, or to stdout when no file is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.rules.List(ctx)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return rulefile.Write(cmd.OutOrStdout(), rules)
			}
			if err := rulefile.WriteFile(args[0], rules); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d rules to %s", len(rules), args[0]))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func importRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create rules from a YAML file",
		Long: `Create rules from a YAML file written by 'bankweave rules export' or by hand.
Invalid rules are reported and skipped; the valid ones are still created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := rulefile.LoadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			created, errs := a.rules.Import(ctx, rules)
			out := cmd.OutOrStdout()
			for _, ruleErr := range errs {
				fmt.Fprintln(out, cli.FormatWarning(ruleErr.Error())) //nolint:forbidigo // User-facing output
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d of %d rules", created, len(rules)))) //nolint:forbidigo // User-facing output
			if len(errs) > 0 {
				return fmt.Errorf("%d rules could not be imported", len(errs))
			}
			return nil
		},
	}
}

func applyRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply rules to existing transactions",
		Long: `Run every rule over all stored transactions and overwrite the category
wherever a rule matches.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			bar := newProgressBar(cmd.ErrOrStderr(), "Applying rules...")
			updated, err := a.categorizer.ApplyRules(ctx, bar.update)
			bar.finish()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated %d transactions", updated))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
