package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage"
)

// objectEntry stores metadata about a stored object in memory.
type objectEntry struct {
	Key         string
	ContentType string
	Size        int64
	URL         string
}

// FileStore implements storage.FileStore using an in-memory map.
// It stores metadata only (no actual file bytes) for testing purposes.
type FileStore struct {
	mu      sync.RWMutex
	objects map[string]*objectEntry
	baseURL string

	// StoreErr and DeleteErr, when set, are returned by the corresponding
	// operation so tests can drive failure paths.
	StoreErr  error
	DeleteErr error
}

// New creates a new in-memory file store.
func New(baseURL string) *FileStore {
	return &FileStore{
		objects: make(map[string]*objectEntry),
		baseURL: baseURL,
	}
}

// Store records object metadata in memory and returns the generated URL.
func (s *FileStore) Store(_ context.Context, ref storage.ObjectRef, file storage.Upload) (*storage.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.StoreErr != nil {
		return nil, s.StoreErr
	}

	key := storage.NewKey(ref)
	url := fmt.Sprintf("%s/uploads/%s", s.baseURL, key)

	s.objects[key] = &objectEntry{
		Key:         key,
		ContentType: file.ContentType,
		Size:        file.Size,
		URL:         url,
	}

	return &storage.StoredObject{Key: key, URL: url}, nil
}

// Delete removes object metadata from memory.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	if _, exists := s.objects[key]; !exists {
		return fmt.Errorf("object not found: %s", key)
	}

	delete(s.objects, key)
	return nil
}

// Len reports how many objects are currently stored.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
