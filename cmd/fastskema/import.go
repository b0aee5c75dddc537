package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/jsonschema"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		from    string
		unknown string
		strict  bool
		asYAML  bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert a JSON Schema, OpenAPI v3 schema or CRD into a schema descriptor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := os.ReadFile(from)
			if err != nil {
				return err
			}
			opts := jsonschema.ImportOptions{Strict: strict}
			switch unknown {
			case "strip", "strict", "passthrough":
				opts.Unknown = fastskema.ParseUnknownPolicy(unknown)
			default:
				return fmt.Errorf("--unknown must be strip, strict or passthrough, got %q", unknown)
			}
			d, diag, err := jsonschema.Import(b, opts)
			for _, w := range diag.Warnings {
				a.log.Warnw("Import warning", "file", from, "detail", w)
			}
			if err != nil {
				return err
			}
			if asYAML {
				out, err := fastskema.EncodeDescriptorYAML(d)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&from, "file", "f", "", "JSON Schema document (.json, .yaml)")
	fl.StringVar(&unknown, "unknown", "strip", "policy for objects without additionalProperties")
	fl.BoolVar(&strict, "strict", false, "fail on unsupported keywords and unresolved references")
	fl.BoolVar(&asYAML, "yaml", false, "print the descriptor as YAML")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
