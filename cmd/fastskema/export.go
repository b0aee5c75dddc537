package main

import (
	"github.com/spf13/cobra"

	"github.com/reoring/fastskema/jsonschema"
)

func newExportCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a schema descriptor as JSON Schema (draft 2020-12)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := loadDescriptor(schemaPath)
			if err != nil {
				return err
			}
			doc, err := jsonschema.Document(d)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema descriptor (.json, .yaml)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
