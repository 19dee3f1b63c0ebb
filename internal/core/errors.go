package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when a filename extension is neither .csv nor .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnknownTarget is returned for an export format other than csv or excel.
	ErrUnknownTarget = errors.New("unknown export format")

	// ErrNoFile is returned when a request carries no file at all.
	ErrNoFile = errors.New("no file provided")

	// ErrTooManyFiles is returned when a batch exceeds the configured file count.
	ErrTooManyFiles = errors.New("too many files in one upload")

	// ErrEmptyFile is wrapped in a ParseError when a file has no header row.
	ErrEmptyFile = errors.New("empty file")

	ErrUnknownColumn       = errors.New("unknown column")
	ErrEmptySelection      = errors.New("no columns selected")
	ErrDuplicateColumnName = errors.New("duplicate column name")
	ErrColumnKind          = errors.New("wrong column type")
	ErrRaggedColumns       = errors.New("columns have different lengths")

	ErrUnknownOperation = errors.New("unknown cleaning operation")

	// ErrNoNumericData is a warning: there is nothing to chart, but nothing failed.
	ErrNoNumericData = errors.New("no numeric data available for charts")

	ErrFileNotFound    = errors.New("file not found")
	ErrSessionNotFound = errors.New("session not found")

	// ErrBadRequest is a request body that could not be decoded.
	ErrBadRequest = errors.New("malformed request")

	// ErrChartUnavailable is a chart kind the Dataset does not support.
	ErrChartUnavailable = errors.New("chart not available for this data")

	// ErrChartFailed is wrapped around any failure while drawing a chart.
	ErrChartFailed = errors.New("chart could not be drawn")

	// ErrOutputConflict is an output path that would replace an input file
	// or another output of the same batch.
	ErrOutputConflict = errors.New("output path conflicts with another file in the batch")

	ErrRateLimited = errors.New("rate limit exceeded")
)

// ParseError reports malformed file content.
type ParseError struct {
	Name   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s file %q: %v", e.Format, e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerializationError reports a failure writing a Dataset to an output format.
type SerializationError struct {
	Format Format
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot write %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// UnknownColumnError names a column that is absent from a Dataset.
// It matches ErrUnknownColumn under errors.Is.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Name)
}

func (e *UnknownColumnError) Is(target error) bool { return target == ErrUnknownColumn }

// IsWarning reports whether err is non-fatal and should be shown as a notice.
func IsWarning(err error) bool {
	return errors.Is(err, ErrNoNumericData)
}
