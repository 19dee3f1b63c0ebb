// Package cli implements the dataforge command-line tool.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/JonMunkholm/dataforge/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the dataforge command tree.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var logLevel string
	rc := &cobra.Command{
		Use:   "dataforge",
		Short: "Clean, reshape, and convert CSV and Excel files.",
		Long: `
DataForge reads CSV and Excel (.xlsx) files, removes duplicate rows, fills
missing numbers with the column mean, selects and renames columns, and
writes the result as CSV or Excel.
`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(stderr, logLevel, "text"))
		},
	}
	rc.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error.")

	rc.AddCommand(newConvertCommand(stdin, stdout, stderr))
	rc.AddCommand(newInspectCommand(stdin, stdout, stderr))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

func newConvertCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := NewConvertCommand(stdin, stdout, stderr)
	cmd := &cobra.Command{
		Use:   "convert <path>...",
		Short: "Convert files to CSV or Excel.",
		Long: `
Converts each PATH to the --to format, applying --clean operations in order,
then --columns and --rename. A file that fails is reported and skipped; the
command exits non-zero if any file failed.

Cleaning operations: remove_duplicates, fill_missing_numeric.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Paths = args
			c.Logger = slog.Default()
			return c.Run(contextOf(cmd))
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&c.To, "to", c.To, "Output format: csv or excel.")
	flags.StringSliceVar(&c.Clean, "clean", nil, "Cleaning operations to apply, in order.")
	flags.StringSliceVar(&c.Columns, "columns", nil, "Columns to keep, in order.")
	flags.StringSliceVar(&c.Renames, "rename", nil, "Column renames as old=new.")
	flags.StringVarP(&c.OutDir, "out", "o", "", "Output directory (default: next to each input).")
	flags.Int64Var(&c.MaxFileSize, "max-file-size", 0, "Largest input in bytes; 0 for no limit.")
	return cmd
}

func newInspectCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := NewInspectCommand(stdin, stdout, stderr)
	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show a file's preview, statistics, and charts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Path = args[0]
			return c.Run(contextOf(cmd))
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&c.Rows, "rows", "n", c.Rows, "Number of preview rows.")
	flags.BoolVar(&c.JSON, "json", false, "Write the report as JSON.")
	flags.Int64Var(&c.MaxFileSize, "max-file-size", 0, "Largest input in bytes; 0 for no limit.")
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
