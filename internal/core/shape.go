package core

import (
	"fmt"
	"strings"
)

// ColumnSelection picks columns in order and optionally renames them.
// Rename maps an old name to a new one; entries for unselected columns are
// ignored and a blank new name keeps the old one.
type ColumnSelection struct {
	Columns []string          `json:"columns"`
	Rename  map[string]string `json:"rename,omitempty"`
}

// SelectAll returns a selection of every column of d with no renames.
func SelectAll(d *Dataset) ColumnSelection {
	return ColumnSelection{Columns: d.Names()}
}

// Shape returns a Dataset holding only the selected columns, in selection
// order, renamed per sel.Rename.
//
// It fails with ErrEmptySelection when no column is selected, with an
// *UnknownColumnError when a selected name is not in d, and with
// ErrDuplicateColumnName when two output columns would share a name.
func Shape(d *Dataset, sel ColumnSelection) (*Dataset, error) {
	if len(sel.Columns) == 0 {
		return nil, ErrEmptySelection
	}

	cols := make([]Column, 0, len(sel.Columns))
	used := make(map[string]string, len(sel.Columns))

	for _, name := range sel.Columns {
		col, ok := d.Column(name)
		if !ok {
			return nil, &UnknownColumnError{Name: name}
		}

		target := name
		if newName := strings.TrimSpace(sel.Rename[name]); newName != "" {
			target = newName
		}
		if prev, taken := used[target]; taken {
			return nil, fmt.Errorf("%w: %q and %q both map to %q", ErrDuplicateColumnName, prev, name, target)
		}
		used[target] = name

		col.Name = target
		cols = append(cols, col)
	}

	return mustDataset(cols), nil
}
