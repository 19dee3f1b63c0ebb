package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the tabular file format, resolved once from a filename.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatExcel
)

// MIME types attached to exported files.
const (
	MIMETypeCSV   = "text/csv"
	MIMETypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// String returns the format tag used in URLs and flags: "csv" or "excel".
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatExcel:
		return "excel"
	default:
		return "unknown"
	}
}

// Extension returns the canonical file extension, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatExcel:
		return ".xlsx"
	default:
		return ""
	}
}

// MIMEType returns the content type for files of this format.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return MIMETypeCSV
	case FormatExcel:
		return MIMETypeExcel
	default:
		return "application/octet-stream"
	}
}

// FormatFromFilename resolves the format from the filename extension,
// case-insensitively.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatExcel, nil
	}
	if ext == "" {
		return FormatUnknown, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// ParseTarget parses an export target: "csv", "excel", or "xlsx".
func ParseTarget(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// Ingested is a parsed upload.
type Ingested struct {
	Name    string
	Format  Format
	Size    int64 // bytes read from the source
	Dataset *Dataset
}

// IngestOptions tunes Ingest. The zero value has no size cap.
type IngestOptions struct {
	MaxBytes int64
}

// Ingest parses r as the format named by filename's extension.
// It fails with ErrUnsupportedFormat for other extensions and with a
// *ParseError when the content is malformed.
func Ingest(r io.Reader, filename string) (*Ingested, error) {
	return IngestWithOptions(r, filename, IngestOptions{})
}

// IngestWithOptions is Ingest with a size cap.
func IngestWithOptions(r io.Reader, filename string, opts IngestOptions) (*Ingested, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}

	var (
		records [][]string
		counter *CountingReader
	)
	switch format {
	case FormatCSV:
		var wrapped io.Reader
		wrapped, counter = WrapForParsing(r, opts.MaxBytes)
		records, err = readCSV(wrapped)
	case FormatExcel:
		counter = NewCountingReader(r, opts.MaxBytes)
		records, err = readExcel(counter)
	}
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, &ParseError{Name: filename, Format: format, Err: err}
	}

	d, err := buildDataset(records)
	if err != nil {
		return nil, &ParseError{Name: filename, Format: format, Err: err}
	}

	return &Ingested{
		Name:    filename,
		Format:  format,
		Size:    counter.BytesRead,
		Dataset: d,
	}, nil
}

// readCSV reads every record. Field counts are checked by buildDataset.
func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return records, nil
}

// readExcel reads the first worksheet. Rows wider than the header extend it
// with blank names, which normalizeHeader turns into "Unnamed: <index>".
func readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheets[0], err)
	}
	shown, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheets[0], err)
	}
	rows := mergeExcelRows(raw, shown)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyFile
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for len(rows[0]) < width {
		rows[0] = append(rows[0], "")
	}
	return rows, nil
}

// mergeExcelRows picks, per cell, the stored value or its displayed text.
// Numbers keep their stored full-precision value whenever the display is
// itself a number under grouping, currency, or percent decoration. Dates,
// times, and booleans display as something else and keep that text.
func mergeExcelRows(raw, shown [][]string) [][]string {
	for i, row := range raw {
		if i >= len(shown) {
			break
		}
		for j, v := range row {
			if j >= len(shown[i]) {
				continue
			}
			display := shown[i][j]
			if display == v {
				continue
			}
			if _, ok := parseNumber(v); ok && displaysNumber(display) {
				continue
			}
			row[j] = display
		}
	}
	return raw
}

// displaysNumber reports whether a formatted cell reads as a number once
// number-format decoration is removed.
func displaysNumber(s string) bool {
	plain := strings.Map(func(r rune) rune {
		switch r {
		case ',', '%', '$', '€', '£', '¥', '(', ')', ' ', '\u00a0':
			return -1
		}
		return r
	}, s)
	if plain == "" {
		return false
	}
	_, ok := parseNumber(plain)
	return ok
}

// buildDataset turns header + data records into typed columns.
// Short rows are padded with missing cells; long rows are an error.
func buildDataset(records [][]string) (*Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyFile
	}

	names := normalizeHeader(records[0])
	data := records[1:]

	raw := make([][]string, len(names))
	for j := range raw {
		raw[j] = make([]string, len(data))
	}
	for i, rec := range data {
		if len(rec) > len(names) {
			// Line numbers are 1-based and the header is line 1.
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", i+2, len(names), len(rec))
		}
		for j, cell := range rec {
			raw[j][i] = cell
		}
	}

	cols := make([]Column, len(names))
	for j, name := range names {
		cols[j] = inferColumn(name, raw[j])
	}
	return NewDataset(cols...)
}
