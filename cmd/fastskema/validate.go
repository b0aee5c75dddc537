package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/batch"
	"github.com/reoring/fastskema/dispatch"
	"github.com/reoring/fastskema/internal/checks"
)

type validateFlags struct {
	schema   string
	data     string
	backend  string
	config   string
	batch    bool
	failFast bool
	stats    bool
	maxDepth int
	timeout  time.Duration
}

func newValidateCmd(a *app) *cobra.Command {
	var f validateFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON or YAML document",
		Long: `Validate reads a document (stdin by default) and prints the result as JSON.
With --batch the document must be an array and every item is validated on its own.
The exit status is 1 when validation fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runValidate(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.schema, "schema", "s", "", "schema descriptor (.json, .yaml)")
	fl.StringVarP(&f.data, "data", "d", "-", "document to validate, - for stdin")
	fl.StringVarP(&f.backend, "backend", "b", "auto", "auto, interpreted or accelerated")
	fl.StringVarP(&f.config, "config", "c", "", "dispatcher config (.yaml, .toml)")
	fl.BoolVar(&f.batch, "batch", false, "validate each item of a top-level array")
	fl.BoolVar(&f.failFast, "fail-fast", false, "stop at the first issue in each composite")
	fl.BoolVar(&f.stats, "stats", false, "print dispatcher metrics to stderr")
	fl.IntVar(&f.maxDepth, "max-depth", 0, "maximum JSON nesting depth, 0 for unlimited")
	fl.DurationVar(&f.timeout, "timeout", time.Minute, "overall deadline")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, f validateFlags) error {
	cfg := dispatch.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = dispatch.LoadConfig(f.config); err != nil {
			return err
		}
	}
	kind, err := dispatch.ParseBackendKind(f.backend)
	if err != nil {
		return err
	}
	s, err := loadSchema(f.schema)
	if err != nil {
		return err
	}
	v, err := readData(cmd.InOrStdin(), f.data, f.maxDepth)
	if err != nil {
		if iss, ok := fastskema.AsIssues(err); ok {
			_ = printJSON(cmd.OutOrStdout(), fastskema.Fail(iss))
			return errInvalid
		}
		return fmt.Errorf("read data: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()
	ctx = fastskema.WithFailFast(ctx, f.failFast)

	d := dispatch.New(dispatch.WithConfig(cfg), dispatch.WithLogger(a.log))
	d.ForceBackend(kind)
	if kind != dispatch.BackendInterpreted {
		d.Start(ctx)
		if err := d.WaitReady(ctx); err != nil {
			a.log.Warnw("Continuing without the accelerated backend", "error", err)
		}
	}

	out := cmd.OutOrStdout()
	failed := false
	if f.batch {
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("--batch needs a top-level array, got %s", checks.TypeName(v))
		}
		rs := d.ValidateBatch(ctx, s, items)
		sum := batch.Summarize(rs)
		failed = sum.Invalid > 0
		err = printJSON(out, struct {
			Summary batch.Summary      `json:"summary"`
			Results []fastskema.Result `json:"results"`
		}{sum, rs})
	} else {
		r := d.Validate(ctx, s, v)
		failed = !r.Success
		err = printJSON(out, r)
	}
	if err != nil {
		return err
	}
	if f.stats {
		_ = printJSON(cmd.ErrOrStderr(), d.Metrics())
	}
	a.log.Debugw("Validation finished", "failed", failed, "metrics", d.Metrics())
	if failed {
		return errInvalid
	}
	return nil
}
