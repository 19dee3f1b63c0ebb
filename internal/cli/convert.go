package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/dataforge/internal/core"
)

// ConvertCommand converts files between CSV and Excel, optionally cleaning
// and reshaping them on the way.
type ConvertCommand struct {
	// Files to convert.
	Paths []string

	// Target format: csv, excel, or xlsx.
	To string

	// Cleaning operations applied in order.
	Clean []string

	// Columns to keep, in order. Empty keeps all.
	Columns []string

	// Renames as old=new pairs.
	Renames []string

	// OutDir receives converted files. Empty writes next to each input.
	OutDir string

	// MaxFileSize caps each input in bytes; 0 means no cap.
	MaxFileSize int64

	Logger *slog.Logger

	// Standard input/output
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ConvertResult describes one converted file.
type ConvertResult struct {
	Output  string
	Rows    int
	Columns int
}

// NewConvertCommand returns a new instance of ConvertCommand.
func NewConvertCommand(stdin io.Reader, stdout, stderr io.Writer) *ConvertCommand {
	return &ConvertCommand{
		To:     "csv",
		Logger: slog.Default(),
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}
}

// Run converts every path. A bad file is reported and skipped; Run fails
// at the end if any file did.
func (cmd *ConvertCommand) Run(ctx context.Context) error {
	if len(cmd.Paths) == 0 {
		return core.ErrNoFile
	}
	target, err := core.ParseTarget(cmd.To)
	if err != nil {
		return err
	}
	ops := make([]core.CleanOp, 0, len(cmd.Clean))
	for _, s := range cmd.Clean {
		op, err := core.ParseCleanOp(s)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	renames, err := parseRenames(cmd.Renames)
	if err != nil {
		return err
	}

	// Sources are named by full path so output lands next to the input.
	sources := make([]core.Source, len(cmd.Paths))
	for i, p := range cmd.Paths {
		sources[i] = core.Source{Name: p, Open: core.FileSource(p).Open}
	}

	guard := newOutputGuard(cmd.Paths)
	results := core.ProcessBatch(ctx, sources, func(ctx context.Context, src core.Source) (ConvertResult, error) {
		return cmd.convertOne(src, target, ops, renames, guard)
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.Stdout, "FAIL %s: %v (Code: %s)\n", r.Name, r.Err, core.MapError(r.Err).Code)
			continue
		}
		fmt.Fprintf(cmd.Stdout, "ok   %s -> %s (%d rows, %d columns)\n", r.Name, r.Value.Output, r.Value.Rows, r.Value.Columns)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func (cmd *ConvertCommand) convertOne(src core.Source, target core.Format, ops []core.CleanOp, renames map[string]string, guard *outputGuard) (ConvertResult, error) {
	ing, err := core.IngestSource(src, cmd.MaxFileSize)
	if err != nil {
		return ConvertResult{}, err
	}
	path := src.Name
	logger := cmd.Logger.With("file", path)

	d := ing.Dataset
	for _, op := range ops {
		next, report, err := core.Clean(d, op)
		if err != nil {
			return ConvertResult{}, err
		}
		if w := report.Warning(); w != "" {
			logger.Warn(w, "op", op)
		}
		logger.Debug(report.Summary(), "op", op)
		d = next
	}

	if len(cmd.Columns) > 0 || len(renames) > 0 {
		sel := core.ColumnSelection{Columns: cmd.Columns, Rename: renames}
		if len(sel.Columns) == 0 {
			sel.Columns = d.Names()
		}
		if d, err = core.Shape(d, sel); err != nil {
			return ConvertResult{}, err
		}
	}

	art, err := core.Export(d, ing.Name, target)
	if err != nil {
		return ConvertResult{}, err
	}

	dir := cmd.OutDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	out := filepath.Join(dir, art.Filename)
	if err := guard.claim(out, path); err != nil {
		return ConvertResult{}, err
	}
	if err := writeArtifact(out, art); err != nil {
		return ConvertResult{}, err
	}
	return ConvertResult{Output: out, Rows: d.NumRows(), Columns: d.NumColumns()}, nil
}

// outputGuard stops a batch from writing over any of its inputs or over an
// output it produced earlier. Files left by a previous run are replaced.
type outputGuard struct {
	inputs  []string
	written map[string]string // output key -> input that produced it
}

func newOutputGuard(inputs []string) *outputGuard {
	return &outputGuard{
		inputs:  inputs,
		written: make(map[string]string),
	}
}

// claim reserves out for input, or fails with core.ErrOutputConflict.
func (g *outputGuard) claim(out, input string) error {
	key := pathKey(out)
	for _, in := range g.inputs {
		if key == pathKey(in) {
			return fmt.Errorf("%w: %s is an input file", core.ErrOutputConflict, out)
		}
		if same, _ := samePath(out, in); same {
			return fmt.Errorf("%w: %s is an input file", core.ErrOutputConflict, out)
		}
	}
	if prev, ok := g.written[key]; ok {
		return fmt.Errorf("%w: %s was already written from %s", core.ErrOutputConflict, out, prev)
	}
	g.written[key] = input
	return nil
}

func pathKey(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// writeArtifact writes art to out, replacing any file already there.
func writeArtifact(out string, art *core.ExportArtifact) error {
	fail := func(err error) error {
		return &core.SerializationError{Format: art.Format, Err: fmt.Errorf("%s: %w", out, err)}
	}

	f, err := os.Create(out)
	if err != nil {
		return fail(err)
	}
	if _, err := io.Copy(f, art.Body); err != nil {
		f.Close()
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	return nil
}

func samePath(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(ai, bi), nil
}

// parseRenames turns old=new pairs into a rename map.
func parseRenames(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		old, name, ok := strings.Cut(p, "=")
		old = strings.TrimSpace(old)
		if !ok || old == "" {
			return nil, fmt.Errorf("invalid rename %q: want old=new", p)
		}
		out[old] = strings.TrimSpace(name)
	}
	return out, nil
}
