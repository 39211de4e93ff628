package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/fund-compliance/internal/cli"
	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/config"
	"github.com/Veraticus/fund-compliance/internal/manifest"
)

const defaultSamplePath = "compliance_rules.xlsx"

func sampleRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample-rules [path]",
		Short: "Write the sample rule manifest",
		Long: `Write an xlsx manifest with a Rules sheet listing every catalogue rule
with its default threshold, ready to edit and pass to 'comply run --input'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultSamplePath
			if len(args) == 1 {
				path = config.ExpandPath(args[0])
			}

			defs := manifest.SampleRules()
			if err := manifest.WriteSample(path, defs); err != nil {
				return common.NewUserError("Could not write sample manifest", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created: %s  (%d rules)", path, len(defs))))
			return nil
		},
	}
}
