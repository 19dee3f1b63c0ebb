package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// FileState is a snapshot of one uploaded file within a session.
// Original is the Dataset as ingested; Current is what the user has made of it.
type FileState struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Format     Format    `json:"-"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Original   *Dataset  `json:"-"`
	Current    *Dataset  `json:"-"`
	Steps      []string  `json:"steps,omitempty"`
}

// SizeKB returns the upload size in kilobytes, rounded to two decimals.
func (f FileState) SizeKB() float64 {
	return float64(int64(float64(f.Size)/1024*100+0.5)) / 100
}

type session struct {
	mu       sync.Mutex
	files    map[string]*FileState
	lastSeen time.Time
}

// SessionStore holds per-session, per-file pipeline state.
// Datasets are immutable, so the store only swaps references under its locks.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl of inactivity.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Ensure returns id if it names a live session, refreshing it, or creates a
// new session and returns its ID.
func (s *SessionStore) Ensure(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.sessions[id]; ok && now.Sub(sess.lastSeen) <= s.ttl {
		sess.lastSeen = now
		return id
	}

	newID := uuid.New().String()
	s.sessions[newID] = &session{files: make(map[string]*FileState), lastSeen: now}
	return newID
}

// get returns a live session and refreshes it.
func (s *SessionStore) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.lastSeen = now
	return sess, nil
}

// Put stores a freshly ingested file. A file with the same name in the same
// session is replaced, discarding its state.
func (s *SessionStore) Put(sessionID string, ing *Ingested) (FileState, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return FileState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	for id, f := range sess.files {
		if f.Name == ing.Name {
			delete(sess.files, id)
		}
	}

	fs := &FileState{
		ID:         uuid.New().String(),
		Name:       ing.Name,
		Format:     ing.Format,
		Size:       ing.Size,
		UploadedAt: s.now(),
		Original:   ing.Dataset,
		Current:    ing.Dataset,
	}
	sess.files[fs.ID] = fs
	return *fs, nil
}

// Files returns snapshots of every file in the session, oldest upload first.
func (s *SessionStore) Files(sessionID string) ([]FileState, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := make([]FileState, 0, len(sess.files))
	for _, f := range sess.files {
		out = append(out, f.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// File returns a snapshot of one file.
func (s *SessionStore) File(sessionID, fileID string) (FileState, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return FileState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	f, ok := sess.files[fileID]
	if !ok {
		return FileState{}, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	return f.snapshot(), nil
}

// Update replaces a file's current Dataset with fn's result and records step.
// Requests for the same session are serialized; on error nothing changes.
func (s *SessionStore) Update(sessionID, fileID, step string, fn func(*Dataset) (*Dataset, error)) (FileState, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return FileState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	f, ok := sess.files[fileID]
	if !ok {
		return FileState{}, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}

	next, err := fn(f.Current)
	if err != nil {
		return FileState{}, err
	}
	f.Current = next
	if step != "" {
		f.Steps = append(f.Steps, step)
	}
	return f.snapshot(), nil
}

// Reset restores a file to its ingested Dataset.
func (s *SessionStore) Reset(sessionID, fileID string) (FileState, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return FileState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	f, ok := sess.files[fileID]
	if !ok {
		return FileState{}, fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	f.Current = f.Original
	f.Steps = nil
	return f.snapshot(), nil
}

// Delete removes a file from the session.
func (s *SessionStore) Delete(sessionID, fileID string) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, ok := sess.files[fileID]; !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}
	delete(sess.files, fileID)
	return nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := now.Sub(sess.lastSeen) > s.ttl
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions, live or not yet swept.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (f *FileState) snapshot() FileState {
	out := *f
	out.Steps = append([]string(nil), f.Steps...)
	return out
}
