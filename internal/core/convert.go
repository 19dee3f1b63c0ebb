package core

// convert.go turns raw spreadsheet strings into typed cells.
//
// Raw data is messy, so parsing is forgiving:
//   - Surrounding whitespace is ignored for numbers and missing markers
//   - The usual spreadsheet and pandas null tokens count as missing
//   - Excel formula text prefixes (="value") are stripped from headers
//
// All To* functions return pgtype values with Valid=false for missing input.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates a plain decimal: integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// missingTokens are the cell values read as missing, after trimming.
var missingTokens = map[string]bool{
	"":         true,
	"NA":       true,
	"N/A":      true,
	"n/a":      true,
	"NaN":      true,
	"nan":      true,
	"-NaN":     true,
	"-nan":     true,
	"NULL":     true,
	"null":     true,
	"None":     true,
	"<NA>":     true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"1.#IND":   true,
	"-1.#IND":  true,
	"1.#QNAN":  true,
	"-1.#QNAN": true,
}

// IsMissingToken reports whether a raw cell value means "no value".
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// parseNumber parses a finite decimal number.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ToFloat8 converts a raw cell to pgtype.Float8.
// Returns invalid for missing tokens and for anything that is not a number.
func ToFloat8(s string) pgtype.Float8 {
	if IsMissingToken(s) {
		return pgtype.Float8{Valid: false}
	}
	v, ok := parseNumber(s)
	if !ok {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: v, Valid: true}
}

// ToText converts a raw cell to pgtype.Text, keeping the original spelling.
// Returns invalid for missing tokens.
func ToText(s string) pgtype.Text {
	if IsMissingToken(s) {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// FormatNumber renders v in the shortest form that parses back to v.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// inferColumn types a column from its raw cells.
// A column is numeric when every present cell is a number, including when
// every cell is missing.
func inferColumn(name string, raw []string) Column {
	numbers := make([]pgtype.Float8, len(raw))
	for i, s := range raw {
		if IsMissingToken(s) {
			continue
		}
		v, ok := parseNumber(s)
		if !ok {
			texts := make([]pgtype.Text, len(raw))
			for k, t := range raw {
				texts[k] = ToText(t)
			}
			return TextColumn(name, texts...)
		}
		numbers[i] = pgtype.Float8{Float64: v, Valid: true}
	}
	return NumericColumn(name, numbers...)
}

// CleanHeader removes common spreadsheet artifacts from a header cell:
// surrounding whitespace and the Excel formula prefix (="...").
func CleanHeader(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// normalizeHeader makes header names usable as unique column names.
// Blank names become "Unnamed: <index>"; repeats get ".1", ".2", ... suffixes.
func normalizeHeader(raw []string) []string {
	names := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := CleanHeader(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if used[name] {
			base := name
			for n := 1; used[name]; n++ {
				name = fmt.Sprintf("%s.%d", base, n)
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}
