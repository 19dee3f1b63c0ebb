package core

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
)

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "data.csv", want: FormatCSV},
		{name: "DATA.CSV", want: FormatCSV},
		{name: "report.xlsx", want: FormatExcel},
		{name: "dir/report.XLSX", want: FormatExcel},
		{name: "notes.txt", wantErr: true},
		{name: "legacy.xls", wantErr: true},
		{name: "noextension", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromFilename(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("err = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, "excel": FormatExcel, "XLSX": FormatExcel} {
		got, err := ParseTarget(in)
		if err != nil || got != want {
			t.Errorf("ParseTarget(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseTarget("pdf"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("ParseTarget(pdf) err = %v, want ErrUnknownTarget", err)
	}
}

func TestIngestCSV(t *testing.T) {
	input := "name,age,city\nann,31,Oslo\nbob,,Bergen\ncid,27,\n"
	ing, err := Ingest(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if ing.Format != FormatCSV {
		t.Errorf("Format = %v, want csv", ing.Format)
	}
	if ing.Size != int64(len(input)) {
		t.Errorf("Size = %d, want %d", ing.Size, len(input))
	}

	d := ing.Dataset
	if got := d.Names(); !reflect.DeepEqual(got, []string{"name", "age", "city"}) {
		t.Errorf("Names = %q", got)
	}
	if d.NumRows() != 3 {
		t.Errorf("NumRows = %d, want 3", d.NumRows())
	}

	age, _ := d.Column("age")
	if age.Kind != KindNumeric {
		t.Errorf("age kind = %v, want numeric", age.Kind)
	}
	if !age.IsMissing(1) {
		t.Error("age[1] should be missing")
	}
	city, _ := d.Column("city")
	if city.Kind != KindText || !city.IsMissing(2) {
		t.Errorf("city kind = %v, missing[2] = %v", city.Kind, city.IsMissing(2))
	}
}

func TestIngestCSV_EdgeCases(t *testing.T) {
	t.Run("BOM is stripped from first header", func(t *testing.T) {
		input := "\xEF\xBB\xBFid,v\n1,2\n"
		d := ingestCSV(t, input)
		if _, ok := d.Column("id"); !ok {
			t.Errorf("Names = %q, want id first", d.Names())
		}
	})

	t.Run("header only gives zero rows", func(t *testing.T) {
		d := ingestCSV(t, "a,b\n")
		if d.NumRows() != 0 || d.NumColumns() != 2 {
			t.Errorf("got %d rows, %d columns", d.NumRows(), d.NumColumns())
		}
	})

	t.Run("short rows are padded with missing", func(t *testing.T) {
		d := ingestCSV(t, "a,b,c\n1,2\n")
		c, _ := d.Column("c")
		if !c.IsMissing(0) {
			t.Error("c[0] should be missing")
		}
	})

	t.Run("duplicate and blank headers", func(t *testing.T) {
		d := ingestCSV(t, "x,,x\n1,2,3\n")
		want := []string{"x", "Unnamed: 1", "x.1"}
		if got := d.Names(); !reflect.DeepEqual(got, want) {
			t.Errorf("Names = %q, want %q", got, want)
		}
	})
}

func TestIngestCSV_Errors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := Ingest(strings.NewReader(""), "empty.csv")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("err = %v, want *ParseError", err)
		}
		if !errors.Is(err, ErrEmptyFile) {
			t.Errorf("err = %v, want ErrEmptyFile inside", err)
		}
	})

	t.Run("row longer than header", func(t *testing.T) {
		_, err := Ingest(strings.NewReader("a,b\n1,2,3\n"), "bad.csv")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("err = %v, want *ParseError", err)
		}
		if pe.Name != "bad.csv" || pe.Format != FormatCSV {
			t.Errorf("ParseError = %+v", pe)
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("error %q should name line 2", err)
		}
	})

	t.Run("unterminated quote", func(t *testing.T) {
		_, err := Ingest(strings.NewReader("a,b\n\"1,2\n"), "bad.csv")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("err = %v, want *ParseError", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Ingest(strings.NewReader("a\n1\n"), "data.json")
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("err = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("over size cap", func(t *testing.T) {
		input := "a\n" + strings.Repeat("1\n", 100)
		_, err := IngestWithOptions(strings.NewReader(input), "big.csv", IngestOptions{MaxBytes: 50})
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("err = %v, want ErrFileTooLarge", err)
		}
	})
}

func TestIngestExcel(t *testing.T) {
	data := buildXLSX(t, [][]any{
		{"product", "price", "stock"},
		{"apple", 1.5, 10},
		{"pear", "", 4},
		{"plum", 2.25, ""},
	})

	ing, err := Ingest(bytes.NewReader(data), "stock.xlsx")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if ing.Format != FormatExcel {
		t.Errorf("Format = %v, want excel", ing.Format)
	}

	d := ing.Dataset
	if got := d.Names(); !reflect.DeepEqual(got, []string{"product", "price", "stock"}) {
		t.Errorf("Names = %q", got)
	}
	if d.NumRows() != 3 {
		t.Fatalf("NumRows = %d, want 3", d.NumRows())
	}

	price, _ := d.Column("price")
	if price.Kind != KindNumeric {
		t.Fatalf("price kind = %v, want numeric", price.Kind)
	}
	if price.Numbers[0].Float64 != 1.5 || !price.IsMissing(1) {
		t.Errorf("price = %+v", price.Numbers)
	}
	stock, _ := d.Column("stock")
	if !stock.IsMissing(2) {
		t.Error("stock[2] should be missing")
	}
}

func TestIngestExcel_Errors(t *testing.T) {
	t.Run("not a workbook", func(t *testing.T) {
		_, err := Ingest(strings.NewReader("a,b\n1,2\n"), "fake.xlsx")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("err = %v, want *ParseError", err)
		}
		if pe.Format != FormatExcel {
			t.Errorf("Format = %v, want excel", pe.Format)
		}
	})

	t.Run("empty sheet", func(t *testing.T) {
		data := buildXLSX(t, nil)
		_, err := Ingest(bytes.NewReader(data), "empty.xlsx")
		if !errors.Is(err, ErrEmptyFile) {
			t.Errorf("err = %v, want ErrEmptyFile", err)
		}
	})
}

func TestIngestExcel_StyledNumbers(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	set := func(cell string, v any, numFmt int) {
		t.Helper()
		if err := f.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
		if numFmt == 0 {
			return
		}
		style, err := f.NewStyle(&excelize.Style{NumFmt: numFmt})
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetCellStyle("Sheet1", cell, cell, style); err != nil {
			t.Fatal(err)
		}
	}
	set("A1", "amount", 0)
	set("B1", "day", 0)
	set("C1", "paid", 0)
	// Built-in formats: 4 is #,##0.00, 10 is 0.00%, 14 is a short date.
	set("A2", 1234.5, 4)
	set("A3", 0.25, 10)
	set("B2", 45306.0, 14)
	set("B3", 45307.0, 14)
	set("C2", true, 0)
	set("C3", false, 0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	ing, err := Ingest(bytes.NewReader(buf.Bytes()), "styled.xlsx")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	d := ing.Dataset

	amount, _ := d.Column("amount")
	if amount.Kind != KindNumeric {
		t.Fatalf("amount kind = %v, want numeric (rows %q)", amount.Kind, Head(d, 2))
	}
	if got := []float64{amount.Numbers[0].Float64, amount.Numbers[1].Float64}; !reflect.DeepEqual(got, []float64{1234.5, 0.25}) {
		t.Errorf("amount = %v, want [1234.5 0.25]", got)
	}

	day, _ := d.Column("day")
	if day.Kind != KindText {
		t.Errorf("day kind = %v, want text", day.Kind)
	}
	paid, _ := d.Column("paid")
	if paid.Kind != KindText || paid.Texts[0].String != "TRUE" || paid.Texts[1].String != "FALSE" {
		t.Errorf("paid = %v %+v, want text TRUE/FALSE", paid.Kind, paid.Texts)
	}
}

func TestIngestExcel_FullPrecision(t *testing.T) {
	values := []float64{1.6666666666666667, 0.30000000000000004, 123456789.12345679, -2.5e-17}
	nums := make([]pgtype.Float8, len(values))
	for i, v := range values {
		nums[i] = Number(v)
	}
	d := mustNewDataset(t, Column{Name: "x", Kind: KindNumeric, Numbers: nums})

	var buf bytes.Buffer
	if err := WriteExcel(&buf, d); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}
	ing, err := Ingest(bytes.NewReader(buf.Bytes()), "x.xlsx")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !ing.Dataset.Equal(d) {
		t.Errorf("round trip changed values: got %q, want %q", Head(ing.Dataset, 10), Head(d, 10))
	}
}

func TestDisplaysNumber(t *testing.T) {
	tests := map[string]bool{
		"1,234.50": true,
		"25.00%":   true,
		"$1,000":   true,
		"(12.00)":  true,
		"1.5E+03":  true,
		"01-15-24": false,
		"3:04 PM":  false,
		"TRUE":     false,
		"":         false,
		"%":        false,
	}
	for in, want := range tests {
		if got := displaysNumber(in); got != want {
			t.Errorf("displaysNumber(%q) = %v, want %v", in, got, want)
		}
	}
}
