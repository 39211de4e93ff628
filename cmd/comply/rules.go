package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/fund-compliance/internal/cli"
	"github.com/Veraticus/fund-compliance/internal/compliance"
)

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the registered compliance rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := compliance.DefaultRegistry()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Compliance rule catalogue (%d rules)", registry.Len())))
			return cli.WriteRulesTable(out, registry.Rules())
		},
	}
}
