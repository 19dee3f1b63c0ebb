package core

// streaming.go provides the reader wrappers applied to CSV input before parsing.
//
//   - bomSkippingReader: drops a leading UTF-8 BOM written by Windows tools
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - CountingReader: tracks bytes read and enforces an optional size cap
//
// Use WrapForParsing to apply all of them in the correct order.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned by a CountingReader that passed its cap.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewBOMSkippingReader returns a reader that skips a leading UTF-8 BOM.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as data streams through.
// Multi-byte sequences split across reads are carried to the next read.
type UTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{reader: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place and returns the number of bytes to hand out.
// Unless atEOF, an incomplete trailing sequence is held back in pending.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}

		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			// '?' keeps the output no longer than the input.
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// CountingReader tracks bytes read. When Max is positive, reading past Max
// bytes fails with ErrFileTooLarge.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Max       int64
}

// NewCountingReader wraps r with an optional cap (0 disables it).
func NewCountingReader(r io.Reader, max int64) *CountingReader {
	return &CountingReader{reader: r, Max: max}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Max > 0 && r.BytesRead > r.Max {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.Max)
	}
	return n, err
}

// WrapForParsing wraps raw CSV input for the csv package.
//
// The order matters:
//  1. Bytes are counted on the raw stream, so the cap applies to the upload
//  2. The BOM is stripped before any decoding
//  3. UTF-8 sanitization runs last
func WrapForParsing(r io.Reader, max int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, max)
	return NewUTF8Sanitizer(NewBOMSkippingReader(counter)), counter
}
