package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// excelSheet is the worksheet name written to Excel exports.
const excelSheet = "Sheet1"

// ExportArtifact is a serialized Dataset ready for download.
// Body is positioned at the start.
type ExportArtifact struct {
	Filename string
	MIMEType string
	Format   Format
	Body     *bytes.Reader
}

// Size returns the artifact length in bytes.
func (a *ExportArtifact) Size() int64 { return a.Body.Size() }

// Export serializes d as target. The filename is sourceName with its
// extension replaced. d is only read.
func Export(d *Dataset, sourceName string, target Format) (*ExportArtifact, error) {
	var buf bytes.Buffer
	var err error
	switch target {
	case FormatCSV:
		err = WriteCSV(&buf, d)
	case FormatExcel:
		err = WriteExcel(&buf, d)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	if err != nil {
		return nil, err
	}

	return &ExportArtifact{
		Filename: OutputFilename(sourceName, target),
		MIMEType: target.MIMEType(),
		Format:   target,
		Body:     bytes.NewReader(buf.Bytes()),
	}, nil
}

// OutputFilename replaces the extension of name with target's.
func OutputFilename(name string, target Format) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "export"
	}
	return stem + target.Extension()
}

// WriteCSV writes a header row and then every row of d.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Names()); err != nil {
		return &SerializationError{Format: FormatCSV, Err: err}
	}
	for i := 0; i < d.NumRows(); i++ {
		if err := cw.Write(d.Row(i)); err != nil {
			return &SerializationError{Format: FormatCSV, Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &SerializationError{Format: FormatCSV, Err: err}
	}
	return nil
}

// WriteExcel writes d to a single-sheet workbook. Missing cells are left empty.
func WriteExcel(w io.Writer, d *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	fail := func(err error) error { return &SerializationError{Format: FormatExcel, Err: err} }

	for j, name := range d.Names() {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return fail(err)
		}
		if err := setExcelText(f, cell, name); err != nil {
			return fail(err)
		}
	}

	for j, col := range d.columns {
		for i := 0; i < d.NumRows(); i++ {
			if col.IsMissing(i) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return fail(err)
			}
			if col.Kind == KindNumeric {
				v := col.Numbers[i].Float64
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fail(fmt.Errorf("cell %s: %v is not a finite number", cell, v))
				}
				err = f.SetCellFloat(excelSheet, cell, v, -1, 64)
			} else {
				err = setExcelText(f, cell, col.Texts[i].String)
			}
			if err != nil {
				return fail(err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fail(err)
	}
	return nil
}

// setExcelText writes a string cell, rejecting text beyond the cell limit
// instead of letting it be truncated.
func setExcelText(f *excelize.File, cell, s string) error {
	if n := utf8.RuneCountInString(s); n > excelize.TotalCellChars {
		return fmt.Errorf("cell %s: %d characters exceeds the limit of %d", cell, n, excelize.TotalCellChars)
	}
	return f.SetCellStr(excelSheet, cell, s)
}
