package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryStore is a process-scoped transcript store. Correct for a
// single run; entries live for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Get returns the stored transcript and whether it was present.
func (s *MemoryStore) Get(_ context.Context, sourceID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	transcript, ok := s.entries[sourceID]
	return transcript, ok, nil
}

// Put stores a transcript under sourceID.
func (s *MemoryStore) Put(_ context.Context, sourceID, transcript string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sourceID] = transcript
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// FileStore persists transcripts as plain .txt blobs in a directory,
// filename-addressed by source identity. Survives process restarts.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// entryPath maps a source identity to its blob path. Path separators
// in the identity are flattened so an identity derived from a file
// path cannot escape the cache directory.
func (s *FileStore) entryPath(sourceID string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_").Replace(sourceID)
	return filepath.Join(s.dir, name+".txt")
}

// Get returns the stored transcript and whether it was present.
func (s *FileStore) Get(_ context.Context, sourceID string) (string, bool, error) {
	data, err := os.ReadFile(s.entryPath(sourceID))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Put stores a transcript under sourceID.
func (s *FileStore) Put(_ context.Context, sourceID, transcript string) error {
	return os.WriteFile(s.entryPath(sourceID), []byte(transcript), 0o644)
}

// SourceIdentity derives a cache key for an audio file: the content
// hash when the file is readable, falling back to its base name. A
// content change therefore changes identity and sidesteps stale-cache.
func SourceIdentity(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return filepath.Base(path)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
