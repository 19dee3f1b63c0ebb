package core

import (
	"errors"
	"math"
	"testing"
)

// scenarioDataset is [{a:1,b:2},{a:1,b:2},{a:3,b:null}].
func scenarioDataset(t *testing.T) *Dataset {
	t.Helper()
	return mustNewDataset(t,
		NumericColumn("a", Number(1), Number(1), Number(3)),
		NumericColumn("b", Number(2), Number(2), NullNumber()),
	)
}

func TestParseCleanOp(t *testing.T) {
	tests := []struct {
		in      string
		want    CleanOp
		wantErr bool
	}{
		{in: "remove_duplicates", want: OpRemoveDuplicates},
		{in: " Fill_Missing_Numeric ", want: OpFillMissing},
		{in: "fill_missing", want: OpFillMissing},
		{in: "sort", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseCleanOp(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownOperation) {
				t.Errorf("ParseCleanOp(%q) err = %v, want ErrUnknownOperation", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseCleanOp(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestRemoveDuplicates(t *testing.T) {
	t.Run("scenario keeps first occurrence", func(t *testing.T) {
		d := scenarioDataset(t)
		out, report, err := Clean(d, OpRemoveDuplicates)
		if err != nil {
			t.Fatal(err)
		}
		want := mustNewDataset(t,
			NumericColumn("a", Number(1), Number(3)),
			NumericColumn("b", Number(2), NullNumber()),
		)
		if !out.Equal(want) {
			t.Errorf("got rows %q, want %q", Head(out, 10), Head(want, 10))
		}
		if report.RowsRemoved != 1 {
			t.Errorf("RowsRemoved = %d, want 1", report.RowsRemoved)
		}
		if d.NumRows() != 3 {
			t.Error("input Dataset was modified")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		d := mustNewDataset(t,
			TextColumn("k", Text("x"), Text("y"), Text("x"), NullText(), NullText()),
			NumericColumn("v", Number(1), Number(2), Number(1), NullNumber(), NullNumber()),
		)
		once := RemoveDuplicates(d)
		twice := RemoveDuplicates(once)
		if !once.Equal(twice) {
			t.Error("second pass changed the Dataset")
		}
		if once.NumRows() != 3 {
			t.Errorf("NumRows = %d, want 3", once.NumRows())
		}
	})

	t.Run("cell boundaries cannot collide", func(t *testing.T) {
		d := mustNewDataset(t,
			TextColumn("l", Text("ab"), Text("a")),
			TextColumn("r", Text("c"), Text("bc")),
		)
		if got := RemoveDuplicates(d).NumRows(); got != 2 {
			t.Errorf("NumRows = %d, want 2", got)
		}
	})

	t.Run("negative zero equals zero", func(t *testing.T) {
		d := mustNewDataset(t, NumericColumn("v", Number(0), Number(math.Copysign(0, -1))))
		if !d.columns[0].cellEqual(0, d.columns[0], 1) {
			t.Fatal("cellEqual should treat 0 and -0 as equal")
		}
		if got := RemoveDuplicates(d).NumRows(); got != 1 {
			t.Errorf("NumRows = %d, want 1", got)
		}
	})

	t.Run("missing differs from empty-looking values", func(t *testing.T) {
		d := mustNewDataset(t, NumericColumn("v", NullNumber(), Number(0)))
		if got := RemoveDuplicates(d).NumRows(); got != 2 {
			t.Errorf("NumRows = %d, want 2", got)
		}
	})
}

func TestFillMissingNumeric(t *testing.T) {
	t.Run("scenario before dedup", func(t *testing.T) {
		out, report, err := Clean(scenarioDataset(t), OpFillMissing)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := out.Column("b")
		for i, cell := range b.Numbers {
			if !cell.Valid || cell.Float64 != 2 {
				t.Errorf("b[%d] = %+v, want 2", i, cell)
			}
		}
		if report.CellsFilled != 1 {
			t.Errorf("CellsFilled = %d, want 1", report.CellsFilled)
		}
	})

	t.Run("uses mean of original values", func(t *testing.T) {
		d := mustNewDataset(t,
			NumericColumn("x", Number(1), NullNumber(), Number(4), NullNumber()),
			TextColumn("t", NullText(), Text("a"), NullText(), Text("b")),
		)
		out := FillMissingNumeric(d)
		x, _ := out.Column("x")
		want := []float64{1, 2.5, 4, 2.5}
		for i, w := range want {
			if !x.Numbers[i].Valid || x.Numbers[i].Float64 != w {
				t.Errorf("x[%d] = %+v, want %v", i, x.Numbers[i], w)
			}
		}
		tcol, _ := out.Column("t")
		if !tcol.IsMissing(0) || !tcol.IsMissing(2) {
			t.Error("text column should be untouched")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		d := mustNewDataset(t, NumericColumn("x", Number(1), NullNumber(), Number(2)))
		once := FillMissingNumeric(d)
		if !FillMissingNumeric(once).Equal(once) {
			t.Error("second pass changed the Dataset")
		}
	})

	t.Run("fully missing column is reported", func(t *testing.T) {
		d := mustNewDataset(t,
			NumericColumn("empty", NullNumber(), NullNumber()),
			NumericColumn("ok", Number(1), NullNumber()),
		)
		out, report, err := Clean(d, OpFillMissing)
		if err != nil {
			t.Fatal(err)
		}
		empty, _ := out.Column("empty")
		if !empty.IsMissing(0) || !empty.IsMissing(1) {
			t.Error("fully missing column should stay missing")
		}
		if len(report.EmptyColumns) != 1 || report.EmptyColumns[0] != "empty" {
			t.Errorf("EmptyColumns = %q, want [empty]", report.EmptyColumns)
		}
		if report.Warning() == "" {
			t.Error("Warning() should describe the empty column")
		}
	})
}

func TestClean_UnknownOp(t *testing.T) {
	_, _, err := Clean(scenarioDataset(t), CleanOp("shuffle"))
	if !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("err = %v, want ErrUnknownOperation", err)
	}
}

func TestClean_LeavesInputUnchanged(t *testing.T) {
	for _, op := range []CleanOp{OpRemoveDuplicates, OpFillMissing} {
		t.Run(string(op), func(t *testing.T) {
			d := purityFixture(t)
			before := cloneDataset(t, d)

			out, _, err := Clean(d, op)
			if err != nil {
				t.Fatal(err)
			}
			if out.Equal(d) {
				t.Fatal("fixture should be changed by the operation")
			}
			if !d.Equal(before) {
				t.Errorf("input changed: got %q, want %q", Head(d, 10), Head(before, 10))
			}
		})
	}
}
