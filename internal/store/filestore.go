package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dstreuter/zeitlog/internal/domain"
)

const (
	entriesFile = "entries.json"
	activeFile  = "activeSession.json"
)

// FileStore is the authoritative backend: one JSON array of entries and one
// nullable active-session object, each rewritten wholesale on every
// mutation. Writes go to a temporary sibling and are renamed into place, so
// a crash mid-write never leaves a truncated document. A document that
// fails to parse is quarantined under a timestamped side-file and the live
// document reset, so reads never fail on corruption.
//
// The mutex guards the read-modify-rewrite cycle; two concurrent patches
// under naive read-modify-write would otherwise lose one of the updates.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory and seed documents if missing.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	s := &FileStore{dir: dir}
	if err := ensureFile(s.entriesPath(), []byte("[]\n")); err != nil {
		return nil, err
	}
	if err := ensureFile(s.activePath(), []byte("null\n")); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) entriesPath() string { return filepath.Join(s.dir, entriesFile) }
func (s *FileStore) activePath() string  { return filepath.Join(s.dir, activeFile) }

func ensureFile(path string, seed []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, seed, 0644); err != nil {
		return fmt.Errorf("seeding %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeAtomic marshals v with indentation and renames a temp file into
// place. Readers observe either the old or the new complete document.
func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	tmp := fmt.Sprintf("%s.%d.%d.tmp", path, os.Getpid(), time.Now().UnixMilli())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// quarantine preserves unparsable content under a timestamped side-file for
// forensic recovery, then resets the live document.
func quarantine(path string, raw []byte, reset any) error {
	backup := fmt.Sprintf("%s.bad-%d.json", path, time.Now().UnixMilli())
	if err := os.WriteFile(backup, raw, 0644); err != nil {
		return fmt.Errorf("quarantining %s: %w", filepath.Base(path), err)
	}
	return writeAtomic(path, reset)
}

// readEntries must be called with the mutex held.
func (s *FileStore) readEntries() ([]*domain.TimeEntry, error) {
	raw, err := os.ReadFile(s.entriesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.TimeEntry{}, nil
		}
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	var entries []*domain.TimeEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		if qErr := quarantine(s.entriesPath(), raw, []*domain.TimeEntry{}); qErr != nil {
			return nil, qErr
		}
		return []*domain.TimeEntry{}, nil
	}
	if entries == nil {
		entries = []*domain.TimeEntry{}
	}
	return entries, nil
}

func (s *FileStore) writeEntries(entries []*domain.TimeEntry) error {
	return writeAtomic(s.entriesPath(), entries)
}

func (s *FileStore) ListEntries(ctx context.Context) ([]*domain.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readEntries()
}

func (s *FileStore) AppendEntry(ctx context.Context, e *domain.TimeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readEntries()
	if err != nil {
		return err
	}
	entries = append(entries, e)
	return s.writeEntries(entries)
}

func (s *FileStore) UpdateEntry(ctx context.Context, id string, patch *domain.EntryPatch) (*domain.TimeEntry, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readEntries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID != id {
			continue
		}
		patch.Apply(e)
		if err := s.writeEntries(entries); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
}

func (s *FileStore) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readEntries()
	if err != nil {
		return err
	}
	next := entries[:0:0]
	for _, e := range entries {
		if e.ID != id {
			next = append(next, e)
		}
	}
	if len(next) == len(entries) {
		return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	return s.writeEntries(next)
}

func (s *FileStore) GetActive(ctx context.Context) (*domain.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readActive()
}

// readActive must be called with the mutex held.
func (s *FileStore) readActive() (*domain.ActiveSession, error) {
	raw, err := os.ReadFile(s.activePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active session: %w", err)
	}
	var a *domain.ActiveSession
	if err := json.Unmarshal(raw, &a); err != nil {
		if qErr := quarantine(s.activePath(), raw, nil); qErr != nil {
			return nil, qErr
		}
		return nil, nil
	}
	return a, nil
}

func (s *FileStore) SetActive(ctx context.Context, a *domain.ActiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.activePath(), a)
}

var _ Store = (*FileStore)(nil)
