package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is one named input in a batch. Open is called at most once.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource opens a file on disk lazily.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource wraps an in-memory payload.
func BytesSource(name string, r io.Reader) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

// BatchResult is the outcome of processing one Source.
type BatchResult[T any] struct {
	Name  string
	Value T
	Err   error
}

// ProcessBatch runs fn over each source in order. A failure is recorded for
// that source alone and processing moves on to the next. Once ctx is done the
// remaining sources fail with ctx's error.
func ProcessBatch[T any](ctx context.Context, sources []Source, fn func(context.Context, Source) (T, error)) []BatchResult[T] {
	results := make([]BatchResult[T], len(sources))
	for i, src := range sources {
		results[i].Name = src.Name
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		v, err := safeCall(ctx, src, fn)
		results[i].Value = v
		results[i].Err = err
	}
	return results
}

// safeCall turns a panic in fn into an error so one file cannot take down a batch.
func safeCall[T any](ctx context.Context, src Source, fn func(context.Context, Source) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing %q: panic: %v", src.Name, r)
		}
	}()
	return fn(ctx, src)
}

// IngestSource opens src and parses it within maxBytes (0 means unlimited).
func IngestSource(src Source, maxBytes int64) (*Ingested, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", src.Name, err)
	}
	defer rc.Close()
	return IngestWithOptions(rc, src.Name, IngestOptions{MaxBytes: maxBytes})
}
