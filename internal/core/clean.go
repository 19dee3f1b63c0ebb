package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"gonum.org/v1/gonum/stat"
)

// CleanOp names a cleaning operation.
type CleanOp string

const (
	OpRemoveDuplicates CleanOp = "remove_duplicates"
	OpFillMissing      CleanOp = "fill_missing_numeric"
)

// ParseCleanOp validates an operation name. "fill_missing" is accepted as
// shorthand for fill_missing_numeric.
func ParseCleanOp(s string) (CleanOp, error) {
	switch op := CleanOp(strings.ToLower(strings.TrimSpace(s))); op {
	case OpRemoveDuplicates, OpFillMissing:
		return op, nil
	case "fill_missing":
		return OpFillMissing, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// CleanReport describes what a cleaning operation changed.
type CleanReport struct {
	Op           CleanOp  `json:"op"`
	RowsRemoved  int      `json:"rowsRemoved"`
	CellsFilled  int      `json:"cellsFilled"`
	// EmptyColumns lists numeric columns left missing because they had no values.
	EmptyColumns []string `json:"emptyColumns,omitempty"`
}

// Warning returns a user-facing notice for non-fatal conditions, or "".
func (r CleanReport) Warning() string {
	if len(r.EmptyColumns) == 0 {
		return ""
	}
	return fmt.Sprintf("No values to average in %s; missing cells left as is", strings.Join(r.EmptyColumns, ", "))
}

// Summary returns a one-line description of the change.
func (r CleanReport) Summary() string {
	switch r.Op {
	case OpRemoveDuplicates:
		return fmt.Sprintf("Removed %d duplicate rows", r.RowsRemoved)
	case OpFillMissing:
		return fmt.Sprintf("Filled %d missing values", r.CellsFilled)
	}
	return ""
}

// Clean applies op to d and returns the result. d is not modified.
func Clean(d *Dataset, op CleanOp) (*Dataset, CleanReport, error) {
	report := CleanReport{Op: op}
	switch op {
	case OpRemoveDuplicates:
		out := RemoveDuplicates(d)
		report.RowsRemoved = d.NumRows() - out.NumRows()
		return out, report, nil

	case OpFillMissing:
		out, filled, empty := fillMissingNumeric(d)
		report.CellsFilled = filled
		report.EmptyColumns = empty
		return out, report, nil
	}
	return nil, report, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
}

// RemoveDuplicates drops every row equal in all columns to an earlier row,
// keeping first occurrences in their original order.
func RemoveDuplicates(d *Dataset) *Dataset {
	seen := make(map[string]bool, d.NumRows())
	keep := make([]int, 0, d.NumRows())
	for i := 0; i < d.NumRows(); i++ {
		key := rowKey(d, i)
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}

	cols := make([]Column, len(d.columns))
	for j, col := range d.columns {
		cols[j] = col.take(keep)
	}
	return &Dataset{columns: cols, rows: len(keep)}
}

// rowKey encodes row i so that equal rows, and only equal rows, share a key.
// Text is length-prefixed so no cell content can forge a separator.
func rowKey(d *Dataset, i int) string {
	var b strings.Builder
	for _, col := range d.columns {
		if col.IsMissing(i) {
			b.WriteString("M;")
			continue
		}
		if col.Kind == KindNumeric {
			v := col.Numbers[i].Float64
			if v == 0 {
				v = 0 // -0 and 0 are the same value
			}
			b.WriteString("N")
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			b.WriteString(";")
			continue
		}
		s := col.Texts[i].String
		b.WriteString("T")
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteString(":")
		b.WriteString(s)
	}
	return b.String()
}

// FillMissingNumeric replaces missing cells in numeric columns with the mean
// of that column's present values. Text columns are untouched. A numeric
// column with no present values stays missing.
func FillMissingNumeric(d *Dataset) *Dataset {
	out, _, _ := fillMissingNumeric(d)
	return out
}

func fillMissingNumeric(d *Dataset) (*Dataset, int, []string) {
	filled := 0
	var empty []string

	cols := make([]Column, len(d.columns))
	for j, col := range d.columns {
		if col.Kind != KindNumeric {
			cols[j] = col
			continue
		}

		values := presentValues(col)
		missing := len(col.Numbers) - len(values)
		if missing == 0 {
			cols[j] = col
			continue
		}
		if len(values) == 0 {
			empty = append(empty, col.Name)
			cols[j] = col
			continue
		}

		mean := stat.Mean(values, nil)
		cells := make([]pgtype.Float8, len(col.Numbers))
		for i, cell := range col.Numbers {
			if cell.Valid {
				cells[i] = cell
			} else {
				cells[i] = Number(mean)
			}
		}
		cols[j] = NumericColumn(col.Name, cells...)
		filled += missing
	}
	return &Dataset{columns: cols, rows: d.rows}, filled, empty
}

// presentValues returns the non-missing values of a numeric column.
func presentValues(col Column) []float64 {
	values := make([]float64, 0, len(col.Numbers))
	for _, cell := range col.Numbers {
		if cell.Valid {
			values = append(values, cell.Float64)
		}
	}
	return values
}
