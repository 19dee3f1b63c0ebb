package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/dataforge/internal/core"
	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
)

// InspectCommand prints a file's preview, statistics, and supported charts.
type InspectCommand struct {
	// File to inspect.
	Path string

	// Rows is the number of preview rows.
	Rows int

	// JSON writes a machine-readable report instead of tables.
	JSON bool

	MaxFileSize int64

	// Standard input/output
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewInspectCommand returns a new instance of InspectCommand.
func NewInspectCommand(stdin io.Reader, stdout, stderr io.Writer) *InspectCommand {
	return &InspectCommand{
		Rows:   core.DefaultPreviewRows,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}
}

// inspectReport is the JSON form of an inspection.
type inspectReport struct {
	Name    string           `json:"name"`
	Format  string           `json:"format"`
	Bytes   int64            `json:"bytes"`
	Columns []string         `json:"columns"`
	Rows    [][]string       `json:"rows"`
	Summary core.Summary     `json:"summary"`
	Charts  []core.ChartSpec `json:"charts"`
	Warning string           `json:"warning,omitempty"`
}

// Run executes the inspect command.
func (cmd *InspectCommand) Run(ctx context.Context) error {
	ing, err := core.IngestSource(core.Source{Name: cmd.Path, Open: core.FileSource(cmd.Path).Open}, cmd.MaxFileSize)
	if err != nil {
		return err
	}
	d := ing.Dataset

	rep := inspectReport{
		Name:    ing.Name,
		Format:  ing.Format.String(),
		Bytes:   ing.Size,
		Columns: d.Names(),
		Rows:    core.Head(d, cmd.Rows),
		Summary: core.Summarize(d),
	}
	rep.Charts, err = core.ChartSpecs(d, core.ChartChoices{})
	if err != nil {
		if !core.IsWarning(err) {
			return err
		}
		rep.Warning = core.MapError(err).Message
	}

	if cmd.JSON {
		enc := json.NewEncoder(cmd.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	cmd.writeTables(rep)
	return nil
}

func (cmd *InspectCommand) writeTables(rep inspectReport) {
	fmt.Fprintf(cmd.Stdout, "%s (%s, %d bytes): %d rows, %d columns\n\n",
		rep.Name, rep.Format, rep.Bytes, rep.Summary.Rows, len(rep.Columns))

	preview := newTable(cmd.Stdout)
	preview.AppendHeader(toRow(rep.Columns))
	for _, r := range rep.Rows {
		preview.AppendRow(toRow(r))
	}
	preview.Render()
	fmt.Fprintln(cmd.Stdout)

	stats := newTable(cmd.Stdout)
	stats.AppendHeader(table.Row{"column", "kind", "count", "missing", "mean", "std", "min", "25%", "50%", "75%", "max", "unique", "top"})
	for _, c := range rep.Summary.Columns {
		row := table.Row{c.Name, c.Kind, c.Count, c.Missing}
		for _, v := range []*float64{c.Mean, c.Std, c.Min, c.Q1, c.Median, c.Q3, c.Max} {
			row = append(row, optional(v))
		}
		if c.Kind == core.KindText.String() {
			row = append(row, c.Unique, c.Top)
		} else {
			row = append(row, "", "")
		}
		stats.AppendRow(row)
	}
	stats.Render()
	fmt.Fprintln(cmd.Stdout)

	if rep.Warning != "" {
		fmt.Fprintf(cmd.Stdout, "Charts: %s\n", rep.Warning)
		return
	}
	for _, s := range rep.Charts {
		switch s.Kind {
		case core.ChartPie:
			fmt.Fprintf(cmd.Stdout, "Chart: %s (%s by %s)\n", s.Kind, s.Value, s.Category)
		case core.ChartHistogram:
			fmt.Fprintf(cmd.Stdout, "Chart: %s (%s)\n", s.Kind, s.X)
		default:
			fmt.Fprintf(cmd.Stdout, "Chart: %s (%s vs %s)\n", s.Kind, s.Y, s.X)
		}
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault
	return t
}

func toRow(vals []string) table.Row {
	row := make(table.Row, len(vals))
	for i, v := range vals {
		row[i] = v
	}
	return row
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.4g", *v)
}
