// Package storage provides the write-once filesystem blob store for ingested
// media. Blobs are keyed by an opaque handle; metadata lives beside them in
// the document store, never in here.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// BlobStore stores binary payloads under opaque handles. Content is
// write-once: a handle that has been written can never be overwritten.
type BlobStore struct {
	dir   string
	mu    sync.RWMutex
	blobs map[string]string // handle -> filename on disk
}

// NewBlobStore opens (creating if necessary) a blob store rooted at dir and
// indexes any blobs already present.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	store := &BlobStore{
		dir:   dir,
		blobs: make(map[string]string),
	}

	if err := store.scanExisting(); err != nil {
		return nil, fmt.Errorf("failed to scan blob directory: %w", err)
	}

	return store, nil
}

// scanExisting indexes blobs from a previous process. Files are named
// <handle><ext>, so the handle is the name with the extension stripped.
func (s *BlobStore) scanExisting() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		handle := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		s.blobs[handle] = entry.Name()
	}

	return nil
}

// Put writes data under the given handle, taking the file extension from
// filename. Writing an already-stored handle is an error (write-once).
func (s *BlobStore) Put(handle, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blobs[handle]; exists {
		return fmt.Errorf("blob %s already stored", handle)
	}

	name := handle + filepath.Ext(filename)
	target := filepath.Join(s.dir, name)

	// Write to a temporary file first, then rename into place.
	tempFile := target + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write blob data: %w", err)
	}
	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary blob file: %w", err)
	}

	s.blobs[handle] = name
	return nil
}

// Has reports whether a blob is stored under the given handle.
func (s *BlobStore) Has(handle string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[handle]
	return ok
}

// Path returns the on-disk path for a stored handle, or false if the handle
// is unknown.
func (s *BlobStore) Path(handle string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.blobs[handle]
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

// Count returns the number of stored blobs.
func (s *BlobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
