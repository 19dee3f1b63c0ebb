package core

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
)

// generateTestCSV builds a CSV with a text, two numeric, and one sparse column.
// Every tenth row repeats the previous one so deduplication has work to do.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	buf.WriteString("name,amount,quantity,discount\n")
	for i := 0; i < rows; i++ {
		n := i
		if i%10 == 9 {
			n = i - 1
		}
		discount := ""
		if n%3 == 0 {
			discount = fmt.Sprintf("%d.5", n%7)
		}
		fmt.Fprintf(&buf, "item-%d,%d.25,%d,%s\n", n%50, n*3, n%11, discount)
	}
	return buf.Bytes()
}

func mustIngestCSV(b *testing.B, data []byte) *Dataset {
	b.Helper()
	ing, err := Ingest(bytes.NewReader(data), "bench.csv")
	if err != nil {
		b.Fatalf("Ingest: %v", err)
	}
	return ing.Dataset
}

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkToFloat8 benchmarks cell conversion, the hot path during inference.
func BenchmarkToFloat8(b *testing.B) {
	testCases := []string{"123", "-456.78", "1.5e3", "  999.99  ", "", "NA", "abc"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToFloat8(tc)
		}
	}
}

// BenchmarkNormalizeHeader_Large benchmarks headers with many repeats.
func BenchmarkNormalizeHeader_Large(b *testing.B) {
	headers := make([]string, 50)
	for i := range headers {
		headers[i] = fmt.Sprintf("col_%d", i%10)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		normalizeHeader(headers)
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

func BenchmarkIngestCSV(b *testing.B) {
	for _, rows := range []int{100, 1000} {
		data := generateTestCSV(rows)
		b.Run(fmt.Sprintf("rows=%d", rows), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Ingest(bytes.NewReader(data), "bench.csv"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkClean(b *testing.B) {
	d := mustIngestCSV(b, generateTestCSV(1000))

	for _, op := range []CleanOp{OpRemoveDuplicates, OpFillMissing} {
		b.Run(string(op), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, _, err := Clean(d, op); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkExport(b *testing.B) {
	d := mustIngestCSV(b, generateTestCSV(1000))

	for _, target := range []Format{FormatCSV, FormatExcel} {
		b.Run(target.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				art, err := Export(d, "bench.csv", target)
				if err != nil {
					b.Fatal(err)
				}
				io.Copy(io.Discard, art.Body)
			}
		})
	}
}

// BenchmarkUTF8Sanitizer_LargeDataset benchmarks 10KB of clean input.
func BenchmarkUTF8Sanitizer_LargeDataset(b *testing.B) {
	data := strings.Repeat("Valid UTF-8 line with numbers 12345\n", 300)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, NewUTF8Sanitizer(strings.NewReader(data)))
	}
}
