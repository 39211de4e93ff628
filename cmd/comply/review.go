package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/config"
	"github.com/Veraticus/fund-compliance/internal/report"
	"github.com/Veraticus/fund-compliance/internal/tui"
)

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <report.xlsx>",
		Short: "Browse a written compliance report interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ExpandPath(args[0])
			result, err := report.Read(path)
			if err != nil {
				return common.NewUserError("Could not read compliance report", err)
			}

			title := fmt.Sprintf("%s  fund %d", filepath.Base(path), result.FundID)
			if !result.AsOf.IsZero() {
				title += "  as of " + result.AsOf.Format(dateLayout)
			}
			return tui.Run(cmd.Context(), result, title, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
