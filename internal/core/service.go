package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ServiceConfig holds the limits a Service enforces. Zero values take defaults.
type ServiceConfig struct {
	MaxFileSize          int64 // bytes per file, 0 for no cap
	MaxFiles             int   // files per upload request, 0 for no cap
	MaxConcurrentIngests int
	MaxIngestWait        time.Duration
	SessionTTL           time.Duration
}

// Service ties the pipeline stages to per-session file state.
type Service struct {
	sessions *SessionStore
	limiter  *IngestLimiter
	cfg      ServiceConfig
}

// NewService creates a Service with an empty session store.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		sessions: NewSessionStore(cfg.SessionTTL),
		limiter:  NewIngestLimiter(cfg.MaxConcurrentIngests, cfg.MaxIngestWait),
		cfg:      cfg,
	}
}

// EnsureSession returns id if it is a live session, or the ID of a new one.
func (s *Service) EnsureSession(id string) string {
	return s.sessions.Ensure(id)
}

// UploadFiles ingests each source into the session. Each file succeeds or
// fails on its own; the returned error is only for problems with the request
// as a whole.
func (s *Service) UploadFiles(ctx context.Context, sessionID string, sources []Source) ([]BatchResult[FileState], error) {
	if len(sources) == 0 {
		return nil, ErrNoFile
	}
	if s.cfg.MaxFiles > 0 && len(sources) > s.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: %d files, limit is %d", ErrTooManyFiles, len(sources), s.cfg.MaxFiles)
	}
	if _, err := s.sessions.get(sessionID); err != nil {
		return nil, err
	}

	results := ProcessBatch(ctx, sources, func(ctx context.Context, src Source) (FileState, error) {
		return s.uploadOne(ctx, sessionID, src)
	})

	for _, r := range results {
		if r.Err != nil {
			slog.Warn("file upload failed", "session_id", sessionID, "file", r.Name, "error", r.Err)
			continue
		}
		slog.Info("file uploaded",
			"session_id", sessionID,
			"file", r.Name,
			"file_id", r.Value.ID,
			"rows", r.Value.Current.NumRows(),
			"columns", r.Value.Current.NumColumns(),
			"size_kb", r.Value.SizeKB(),
		)
	}
	return results, nil
}

func (s *Service) uploadOne(ctx context.Context, sessionID string, src Source) (FileState, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return FileState{}, err
	}
	defer s.limiter.Release()

	ing, err := IngestSource(src, s.cfg.MaxFileSize)
	if err != nil {
		return FileState{}, err
	}
	return s.sessions.Put(sessionID, ing)
}

// Files lists the session's files, oldest first.
func (s *Service) Files(sessionID string) ([]FileState, error) {
	return s.sessions.Files(sessionID)
}

// File returns one file's state.
func (s *Service) File(sessionID, fileID string) (FileState, error) {
	return s.sessions.File(sessionID, fileID)
}

// DeleteFile drops a file from the session.
func (s *Service) DeleteFile(sessionID, fileID string) error {
	return s.sessions.Delete(sessionID, fileID)
}

// Clean applies op to the file's current Dataset.
func (s *Service) Clean(sessionID, fileID string, op CleanOp) (FileState, CleanReport, error) {
	var report CleanReport
	f, err := s.sessions.Update(sessionID, fileID, "clean: "+string(op), func(d *Dataset) (*Dataset, error) {
		next, r, err := Clean(d, op)
		report = r
		return next, err
	})
	if err != nil {
		return FileState{}, report, err
	}
	if len(report.EmptyColumns) > 0 {
		slog.Warn("cleaning left columns empty", "file_id", fileID, "columns", report.EmptyColumns)
	}
	return f, report, nil
}

// Shape selects and renames columns of the file's current Dataset.
func (s *Service) Shape(sessionID, fileID string, sel ColumnSelection) (FileState, error) {
	return s.sessions.Update(sessionID, fileID, "shape", func(d *Dataset) (*Dataset, error) {
		return Shape(d, sel)
	})
}

// Reset restores the file to its ingested Dataset.
func (s *Service) Reset(sessionID, fileID string) (FileState, error) {
	return s.sessions.Reset(sessionID, fileID)
}

// Preview is what a user sees of a file before deciding what to do with it.
type Preview struct {
	File    FileState
	Names   []string
	Rows    [][]string
	Summary Summary
}

// Preview returns the first n rows and descriptive statistics of the file.
func (s *Service) Preview(sessionID, fileID string, n int) (Preview, error) {
	f, err := s.sessions.File(sessionID, fileID)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		File:    f,
		Names:   f.Current.Names(),
		Rows:    Head(f.Current, n),
		Summary: Summarize(f.Current),
	}, nil
}

// Charts derives chart specs for the file. ErrNoNumericData comes back with
// an empty list and the file state and should be shown as a warning.
func (s *Service) Charts(sessionID, fileID string, choices ChartChoices) (FileState, []ChartSpec, error) {
	f, err := s.sessions.File(sessionID, fileID)
	if err != nil {
		return FileState{}, nil, err
	}
	specs, err := ChartSpecs(f.Current, choices)
	return f, specs, err
}

// Export serializes the file's current Dataset.
func (s *Service) Export(sessionID, fileID string, target Format) (*ExportArtifact, error) {
	f, err := s.sessions.File(sessionID, fileID)
	if err != nil {
		return nil, err
	}
	art, err := Export(f.Current, f.Name, target)
	if err != nil {
		return nil, err
	}
	slog.Info("file exported", "file_id", fileID, "format", target.String(), "bytes", art.Size())
	return art, nil
}

// IngestStatus reports the ingest limiter's state.
func (s *Service) IngestStatus() IngestLimiterStatus {
	return s.limiter.Status()
}

// WaitForIngests blocks until in-flight ingests finish or ctx is done.
func (s *Service) WaitForIngests(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
