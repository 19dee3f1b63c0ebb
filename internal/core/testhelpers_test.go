package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
)

// ingestCSV parses CSV text or fails the test.
func ingestCSV(t *testing.T, text string) *Dataset {
	t.Helper()
	ing, err := Ingest(strings.NewReader(text), "test.csv")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return ing.Dataset
}

// buildXLSX writes rows to the first sheet of a new workbook. Empty strings
// leave the cell unset; float64 values are written as numbers.
func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		for j, v := range row {
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func mustNewDataset(t *testing.T, cols ...Column) *Dataset {
	t.Helper()
	d, err := NewDataset(cols...)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return d
}

// cloneDataset deep-copies d so a later comparison can detect writes through
// shared slices.
func cloneDataset(t *testing.T, d *Dataset) *Dataset {
	t.Helper()
	cols := d.Columns()
	for i, col := range cols {
		if col.Numbers != nil {
			cols[i].Numbers = append([]pgtype.Float8(nil), col.Numbers...)
		}
		if col.Texts != nil {
			cols[i].Texts = append([]pgtype.Text(nil), col.Texts...)
		}
	}
	return mustNewDataset(t, cols...)
}

// purityFixture has duplicates, missing numbers, and text so every stage
// has something to change.
func purityFixture(t *testing.T) *Dataset {
	t.Helper()
	return mustNewDataset(t,
		TextColumn("city", Text("Oslo"), Text("Oslo"), NullText(), Text("Bergen")),
		NumericColumn("temp", Number(4), Number(4), NullNumber(), Number(-0.5)),
		NumericColumn("rain", NullNumber(), NullNumber(), Number(12), Number(3)),
	)
}
