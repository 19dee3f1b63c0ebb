package core

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultPreviewRows is the number of rows Head shows when asked for n <= 0.
const DefaultPreviewRows = 5

// ColumnSummary holds descriptive statistics for one column.
// Numeric fields are nil when there are too few values to compute them.
type ColumnSummary struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Count   int      `json:"count"`
	Missing int      `json:"missing"`
	Mean    *float64 `json:"mean,omitempty"`
	Std     *float64 `json:"std,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Q1      *float64 `json:"q1,omitempty"`
	Median  *float64 `json:"median,omitempty"`
	Q3      *float64 `json:"q3,omitempty"`
	Max     *float64 `json:"max,omitempty"`

	// Text columns only.
	Unique int    `json:"unique,omitempty"`
	Top    string `json:"top,omitempty"`
}

// Summary describes a Dataset for preview purposes.
type Summary struct {
	Rows    int             `json:"rows"`
	Columns []ColumnSummary `json:"columns"`
}

// Summarize computes per-column statistics. Std is the sample standard
// deviation and needs at least two values.
func Summarize(d *Dataset) Summary {
	s := Summary{Rows: d.NumRows(), Columns: make([]ColumnSummary, 0, d.NumColumns())}
	for _, col := range d.columns {
		if col.Kind == KindNumeric {
			s.Columns = append(s.Columns, summarizeNumeric(col))
		} else {
			s.Columns = append(s.Columns, summarizeText(col))
		}
	}
	return s
}

func summarizeNumeric(col Column) ColumnSummary {
	values := presentValues(col)
	cs := ColumnSummary{
		Name:    col.Name,
		Kind:    col.Kind.String(),
		Count:   len(values),
		Missing: col.Len() - len(values),
	}
	if len(values) == 0 {
		return cs
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	cs.Mean = ptr(mean)
	if len(sorted) > 1 {
		cs.Std = ptr(std)
	}
	cs.Min = ptr(floats.Min(sorted))
	cs.Q1 = ptr(stat.Quantile(0.25, stat.LinInterp, sorted, nil))
	cs.Median = ptr(stat.Quantile(0.5, stat.LinInterp, sorted, nil))
	cs.Q3 = ptr(stat.Quantile(0.75, stat.LinInterp, sorted, nil))
	cs.Max = ptr(floats.Max(sorted))
	return cs
}

func summarizeText(col Column) ColumnSummary {
	cs := ColumnSummary{Name: col.Name, Kind: col.Kind.String()}
	counts := make(map[string]int)
	best := 0
	for _, cell := range col.Texts {
		if !cell.Valid {
			cs.Missing++
			continue
		}
		cs.Count++
		counts[cell.String]++
		// Ties go to the value seen first.
		if n := counts[cell.String]; n > best {
			best = n
			cs.Top = cell.String
		}
	}
	cs.Unique = len(counts)
	return cs
}

func ptr(v float64) *float64 { return &v }

// Head returns up to n leading rows as display strings.
func Head(d *Dataset, n int) [][]string {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	n = min(n, d.NumRows())
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = d.Row(i)
	}
	return rows
}
