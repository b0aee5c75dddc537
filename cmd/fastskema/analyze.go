package main

import (
	"github.com/spf13/cobra"

	"github.com/reoring/fastskema/dispatch"
)

func newAnalyzeCmd() *cobra.Command {
	var schemaPath, configPath string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report complexity, depth, signature and backend suitability of a schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := dispatch.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = dispatch.LoadConfig(configPath); err != nil {
					return err
				}
			}
			d, err := loadDescriptor(schemaPath)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dispatch.Analyze(d, cfg))
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema descriptor (.json, .yaml)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "dispatcher config (.yaml, .toml)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
