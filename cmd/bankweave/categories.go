package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/bankweave/internal/classification"
	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories transactions can be assigned",
		Long: `List the categories the built-in classifier assigns, followed by the
categories your rules add.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := categoryRows(ctx, a.rules)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"CATEGORY", "SOURCE"}, rows)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

type ruleLister interface {
	List(ctx context.Context) ([]model.Rule, error)
}

// categoryRows lists built-in categories first, then rule categories not already shown.
func categoryRows(ctx context.Context, rules ruleLister) ([][]string, error) {
	seen := make(map[string]bool)
	var rows [][]string
	for _, category := range classification.Categories() {
		if seen[category] {
			continue
		}
		seen[category] = true
		rows = append(rows, []string{category, "built-in"})
	}

	list, err := rules.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, rule := range list {
		if seen[rule.Category] {
			continue
		}
		seen[rule.Category] = true
		rows = append(rows, []string{rule.Category, "rule"})
	}
	return rows, nil
}
