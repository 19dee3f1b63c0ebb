package core

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func exportFixture(t *testing.T) *Dataset {
	t.Helper()
	return mustNewDataset(t,
		TextColumn("city", Text("Oslo"), Text("Bergen, Vestland"), NullText()),
		NumericColumn("pop", Number(709037), Number(291940.5), Number(-0.25)),
		NumericColumn("rank", Number(1), NullNumber(), Number(3)),
	)
}

func TestExport_CSV(t *testing.T) {
	d := exportFixture(t)

	art, err := Export(d, "cities.xlsx", FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if art.Filename != "cities.csv" {
		t.Errorf("Filename = %q", art.Filename)
	}
	if art.MIMEType != "text/csv" {
		t.Errorf("MIMEType = %q", art.MIMEType)
	}

	body, err := io.ReadAll(art.Body)
	if err != nil {
		t.Fatal(err)
	}
	want := "city,pop,rank\nOslo,709037,1\n\"Bergen, Vestland\",291940.5,\n,-0.25,3\n"
	if string(body) != want {
		t.Errorf("body =\n%s\nwant\n%s", body, want)
	}
	if int64(len(body)) != art.Size() {
		t.Errorf("Size = %d, read %d", art.Size(), len(body))
	}
}

func TestExport_CSVRoundTrip(t *testing.T) {
	d := exportFixture(t)

	art, err := Export(d, "cities.csv", FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Ingest(art.Body, art.Filename)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Dataset.Equal(d) {
		t.Errorf("round trip changed the Dataset:\n got %q\nwant %q", Head(back.Dataset, 10), Head(d, 10))
	}
}

func TestExport_ExcelThenCSV(t *testing.T) {
	d := exportFixture(t)

	xlsx, err := Export(d, "cities.csv", FormatExcel)
	if err != nil {
		t.Fatal(err)
	}
	if xlsx.Filename != "cities.xlsx" || xlsx.MIMEType != MIMETypeExcel {
		t.Errorf("artifact = %q %q", xlsx.Filename, xlsx.MIMEType)
	}

	fromExcel, err := Ingest(xlsx.Body, xlsx.Filename)
	if err != nil {
		t.Fatal(err)
	}

	csvArt, err := Export(fromExcel.Dataset, fromExcel.Name, FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	final, err := Ingest(csvArt.Body, csvArt.Filename)
	if err != nil {
		t.Fatal(err)
	}

	if final.Dataset.NumRows() != d.NumRows() {
		t.Errorf("NumRows = %d, want %d", final.Dataset.NumRows(), d.NumRows())
	}
	if !reflect.DeepEqual(final.Dataset.Names(), d.Names()) {
		t.Errorf("Names = %q, want %q", final.Dataset.Names(), d.Names())
	}
	if !final.Dataset.Equal(d) {
		t.Errorf("cells changed:\n got %q\nwant %q", Head(final.Dataset, 10), Head(d, 10))
	}
}

func TestExport_BodyAtStart(t *testing.T) {
	art, err := Export(exportFixture(t), "x.csv", FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	pos, err := art.Body.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 0 {
		t.Errorf("Body position = %d, want 0", pos)
	}
}

func TestExport_Errors(t *testing.T) {
	t.Run("unknown target", func(t *testing.T) {
		_, err := Export(exportFixture(t), "x.csv", FormatUnknown)
		if !errors.Is(err, ErrUnknownTarget) {
			t.Errorf("err = %v, want ErrUnknownTarget", err)
		}
	})

	t.Run("text too long for a spreadsheet cell", func(t *testing.T) {
		d := mustNewDataset(t, TextColumn("blob", Text(strings.Repeat("x", 40000))))
		_, err := Export(d, "x.csv", FormatExcel)
		var se *SerializationError
		if !errors.As(err, &se) {
			t.Fatalf("err = %v, want *SerializationError", err)
		}
		if se.Format != FormatExcel {
			t.Errorf("Format = %v, want excel", se.Format)
		}
	})

	t.Run("csv writer failure", func(t *testing.T) {
		err := WriteCSV(failingWriter{}, exportFixture(t))
		var se *SerializationError
		if !errors.As(err, &se) {
			t.Errorf("err = %v, want *SerializationError", err)
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		name   string
		target Format
		want   string
	}{
		{"sales.csv", FormatExcel, "sales.xlsx"},
		{"sales.xlsx", FormatCSV, "sales.csv"},
		{"my.data.v2.csv", FormatExcel, "my.data.v2.xlsx"},
		{"/tmp/in/report.XLSX", FormatCSV, "report.csv"},
		{"", FormatCSV, "export.csv"},
	}
	for _, tt := range tests {
		if got := OutputFilename(tt.name, tt.target); got != tt.want {
			t.Errorf("OutputFilename(%q, %v) = %q, want %q", tt.name, tt.target, got, tt.want)
		}
	}
}

func TestWriteExcel_SkipsMissingCells(t *testing.T) {
	d := mustNewDataset(t, NumericColumn("v", NullNumber(), Number(2)))
	var buf bytes.Buffer
	if err := WriteExcel(&buf, d); err != nil {
		t.Fatal(err)
	}
	back, err := Ingest(&buf, "v.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	v, _ := back.Dataset.Column("v")
	if back.Dataset.NumRows() != 2 || !v.IsMissing(0) || v.Numbers[1].Float64 != 2 {
		t.Errorf("got %q", Head(back.Dataset, 10))
	}
}

func TestExport_LeavesInputUnchanged(t *testing.T) {
	for _, target := range []Format{FormatCSV, FormatExcel} {
		t.Run(target.String(), func(t *testing.T) {
			d := purityFixture(t)
			before := cloneDataset(t, d)

			if _, err := Export(d, "weather.csv", target); err != nil {
				t.Fatalf("Export: %v", err)
			}
			if !d.Equal(before) {
				t.Errorf("input changed: got %q, want %q", Head(d, 10), Head(before, 10))
			}
		})
	}
}
