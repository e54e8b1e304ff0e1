package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"github.com/gentaxai/gentax/internal/log"
)

// Store manages session transcripts backed by a single JSON file.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	path   string
	logger log.Logger

	mu       sync.RWMutex
	sessions map[string][]Turn

	flk *flock.Flock
}

// Open reads the session file at path and returns a ready Store.
//
// A missing file yields an empty store. A file that exists but cannot be
// parsed is a hard error: the process must not start over a store it
// cannot read.
func Open(path string, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Store{
		path:     path,
		logger:   logger,
		sessions: make(map[string][]Turn),
		flk:      flock.New(path + ".lock"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("session file not found, starting empty", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("reading session file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.sessions); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}

	logger.Info("loaded sessions", "path", path, "count", len(s.sessions))
	return s, nil
}

// GetOrCreate returns a copy of the transcript for id, initializing it with
// a single system turn if the session is new. Mutates in-memory state only;
// nothing is persisted until Persist is called.
func (s *Store) GetOrCreate(id, systemPrompt string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[id]
	if !ok {
		turns = []Turn{{Role: RoleSystem, Content: systemPrompt}}
		s.sessions[id] = turns
		s.logger.Debug("created session", "id", id)
	}

	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds a turn to an existing session. The session must already have
// been initialized via GetOrCreate.
func (s *Store) Append(id string, role Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.sessions[id] = append(turns, Turn{Role: role, Content: content})
	return nil
}

// Turns returns a copy of the transcript for id and whether it exists.
func (s *Store) Turns(id string) ([]Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, true
}

// Len returns the number of sessions in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SessionIDs returns all session ids in sorted order.
func (s *Store) SessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Persist serializes the entire mapping to the session file, overwriting
// any previous content. The write is atomic: the document is marshaled to
// a temp file in the same directory and renamed into place while holding
// an advisory file lock.
func (s *Store) Persist() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.sessions, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling sessions: %w", err)
	}

	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("locking session file: %w", err)
	}
	defer func() {
		if err := s.flk.Unlock(); err != nil {
			s.logger.Warn("unlocking session file", "error", err)
		}
	}()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp session file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing session file: %w", err)
	}

	s.logger.Debug("persisted sessions", "path", s.path, "bytes", len(data))
	return nil
}
