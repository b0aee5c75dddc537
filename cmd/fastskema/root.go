package main

import (
	"errors"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errInvalid reports that the input did not validate; the result has already
// been printed.
var errInvalid = errors.New("validation failed")

type app struct {
	verbose bool
	log     *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop().Sugar()}
	root := &cobra.Command{
		Use:           "fastskema",
		Short:         "Validate data against fastskema schema descriptors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := newLogger(cmd.ErrOrStderr(), a.verbose)
			if err != nil {
				return err
			}
			a.log = l.Sugar()
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")
	root.AddCommand(newValidateCmd(a), newExportCmd(), newAnalyzeCmd(), newImportCmd(a))
	return root
}

func newLogger(w io.Writer, verbose bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	enc := zap.NewProductionEncoderConfig()
	if verbose {
		level = zapcore.DebugLevel
		enc = zap.NewDevelopmentEncoderConfig()
	}
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	if w == nil {
		w = os.Stderr
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core), nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
