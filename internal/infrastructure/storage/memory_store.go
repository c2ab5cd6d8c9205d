package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	documentapp "github.com/lodgehr/backend/internal/application/document"
	"github.com/lodgehr/backend/internal/domain/shared"
)

var _ documentapp.DocumentStore = (*MemoryDocumentStore)(nil)

// MemoryDocumentStore keeps artifacts in a map. It backs application
// tests and lets the service layer run without any external store.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// BaseURL is used for generated download URLs.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		objects: make(map[string][]byte),
		BaseURL: "https://storage.example.com",
	}
}

func (s *MemoryDocumentStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = stored
	return nil
}

func (s *MemoryDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return data, nil
}

func (s *MemoryDocumentStore) PresignDownload(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", time.Time{}, shared.ErrNotFound
	}
	expiresAt := time.Now().Add(15 * time.Minute)
	return s.BaseURL + "/download/" + key + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

func (s *MemoryDocumentStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Size returns the number of stored objects, for tests
func (s *MemoryDocumentStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
