package core

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// Kind is the declared type shared by every cell of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is one named, typed column.
// Numbers is populated for KindNumeric, Texts for KindText. A cell with
// Valid=false is missing.
type Column struct {
	Name    string
	Kind    Kind
	Numbers []pgtype.Float8
	Texts   []pgtype.Text
}

// Number returns a present numeric cell.
func Number(v float64) pgtype.Float8 { return pgtype.Float8{Float64: v, Valid: true} }

// NullNumber returns a missing numeric cell.
func NullNumber() pgtype.Float8 { return pgtype.Float8{} }

// Text returns a present text cell.
func Text(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }

// NullText returns a missing text cell.
func NullText() pgtype.Text { return pgtype.Text{} }

// NumericColumn builds a numeric column from cells.
func NumericColumn(name string, cells ...pgtype.Float8) Column {
	return Column{Name: name, Kind: KindNumeric, Numbers: cells}
}

// TextColumn builds a text column from cells.
func TextColumn(name string, cells ...pgtype.Text) Column {
	return Column{Name: name, Kind: KindText, Texts: cells}
}

// Len returns the number of cells.
func (c Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Numbers)
	}
	return len(c.Texts)
}

// IsMissing reports whether cell i is missing.
func (c Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return !c.Numbers[i].Valid
	}
	return !c.Texts[i].Valid
}

// Display returns cell i as it is written to CSV. Missing cells are empty.
func (c Column) Display(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	if c.Kind == KindNumeric {
		return FormatNumber(c.Numbers[i].Float64)
	}
	return c.Texts[i].String
}

// take returns a new column holding the cells at idx, in order.
func (c Column) take(idx []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == KindNumeric {
		out.Numbers = make([]pgtype.Float8, len(idx))
		for i, j := range idx {
			out.Numbers[i] = c.Numbers[j]
		}
		return out
	}
	out.Texts = make([]pgtype.Text, len(idx))
	for i, j := range idx {
		out.Texts[i] = c.Texts[j]
	}
	return out
}

// cellEqual compares cell i of c with cell j of o. Missing equals missing.
func (c Column) cellEqual(i int, o Column, j int) bool {
	if c.Kind != o.Kind {
		return false
	}
	if c.Kind == KindNumeric {
		a, b := c.Numbers[i], o.Numbers[j]
		return a.Valid == b.Valid && (!a.Valid || a.Float64 == b.Float64)
	}
	a, b := c.Texts[i], o.Texts[j]
	return a.Valid == b.Valid && (!a.Valid || a.String == b.String)
}

// Dataset is an ordered set of uniquely named columns of equal length.
// A Dataset is never modified after construction; every pipeline stage
// returns a new one. Callers must not write to the slices returned by
// Columns or Column.
type Dataset struct {
	columns []Column
	rows    int
}

// NewDataset validates and assembles columns into a Dataset.
// Column names must be unique and every column must have the same length.
func NewDataset(cols ...Column) (*Dataset, error) {
	seen := make(map[string]bool, len(cols))
	rows := 0
	for i, col := range cols {
		if seen[col.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumnName, col.Name)
		}
		seen[col.Name] = true

		switch col.Kind {
		case KindNumeric:
			if col.Texts != nil {
				return nil, fmt.Errorf("column %q: numeric column carries text cells", col.Name)
			}
		case KindText:
			if col.Numbers != nil {
				return nil, fmt.Errorf("column %q: text column carries numeric cells", col.Name)
			}
		default:
			return nil, fmt.Errorf("column %q: %s", col.Name, col.Kind)
		}

		if i == 0 {
			rows = col.Len()
		} else if col.Len() != rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrRaggedColumns, col.Name, col.Len(), rows)
		}
	}
	return &Dataset{columns: cols, rows: rows}, nil
}

// mustDataset is for stages that only rearrange columns of an already valid Dataset.
func mustDataset(cols []Column) *Dataset {
	d, err := NewDataset(cols...)
	if err != nil {
		panic(fmt.Sprintf("core: invalid dataset: %v", err))
	}
	return d
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int { return d.rows }

// NumColumns returns the column count.
func (d *Dataset) NumColumns() int { return len(d.columns) }

// Columns returns the columns in order.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the column with the given name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, col := range d.columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// NamesOfKind returns the names of columns with kind k, in order.
func (d *Dataset) NamesOfKind(k Kind) []string {
	var names []string
	for _, col := range d.columns {
		if col.Kind == k {
			names = append(names, col.Name)
		}
	}
	return names
}

// Row returns row i as display strings.
func (d *Dataset) Row(i int) []string {
	row := make([]string, len(d.columns))
	for j, col := range d.columns {
		row[j] = col.Display(i)
	}
	return row
}

// Equal reports whether d and o have the same columns, kinds, and cells.
func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.rows != o.rows || len(d.columns) != len(o.columns) {
		return false
	}
	for j, col := range d.columns {
		other := o.columns[j]
		if col.Name != other.Name || col.Kind != other.Kind {
			return false
		}
		for i := 0; i < d.rows; i++ {
			if !col.cellEqual(i, other, i) {
				return false
			}
		}
	}
	return true
}
