package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	documentapp "github.com/lodgehr/backend/internal/application/document"
	"github.com/lodgehr/backend/internal/domain/shared"
)

var _ documentapp.DocumentStore = (*FilesystemDocumentStore)(nil)

// FilesystemDocumentStore stores rendered PDFs on local disk. It exists
// for development and tests; production deployments use the S3 backend.
// PresignDownload returns a file URL, which only works when the caller
// shares a filesystem with the server.
type FilesystemDocumentStore struct {
	basePath string
	logger   *zap.Logger
}

// NewFilesystemDocumentStore creates the base directory if needed
func NewFilesystemDocumentStore(basePath string, logger *zap.Logger) (*FilesystemDocumentStore, error) {
	if basePath == "" {
		return nil, errors.New("storage base path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FilesystemDocumentStore{basePath: basePath, logger: logger}, nil
}

func (s *FilesystemDocumentStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return shared.NewDomainErrorWithDetails(shared.CodeStorageFailure,
			"Failed to store document", map[string]any{"key": key})
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		s.logger.Error("Failed to write document artifact",
			zap.String("key", key),
			zap.Error(err))
		return shared.NewDomainErrorWithDetails(shared.CodeStorageFailure,
			"Failed to store document", map[string]any{"key": key})
	}
	return nil
}

func (s *FilesystemDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewDomainErrorWithDetails(shared.CodeStorageFailure,
			"Failed to retrieve document", map[string]any{"key": key})
	}
	return data, nil
}

func (s *FilesystemDocumentStore) PresignDownload(ctx context.Context, key string) (string, time.Time, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, shared.ErrNotFound
		}
		return "", time.Time{}, shared.NewDomainErrorWithDetails(shared.CodeStorageFailure,
			"Failed to stat document", map[string]any{"key": key})
	}
	// File URLs do not expire; a far-future expiry keeps the contract
	return "file://" + path, time.Now().Add(24 * time.Hour), nil
}

func (s *FilesystemDocumentStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return shared.NewDomainErrorWithDetails(shared.CodeStorageFailure,
			"Failed to delete document", map[string]any{"key": key})
	}
	return nil
}

// resolve maps a key to a path under basePath and rejects traversal
func (s *FilesystemDocumentStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", shared.NewDomainError(shared.ErrInvalidInput.Code, "Invalid storage key")
	}
	return filepath.Join(s.basePath, cleaned), nil
}
