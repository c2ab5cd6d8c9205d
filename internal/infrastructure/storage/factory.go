package storage

import (
	"fmt"

	"go.uber.org/zap"

	documentapp "github.com/lodgehr/backend/internal/application/document"
	infraconfig "github.com/lodgehr/backend/internal/infrastructure/config"
)

// NewDocumentStore builds the document store the configuration asks
// for. Production configs are already validated to use s3, so the
// filesystem branch only runs in development.
func NewDocumentStore(cfg *infraconfig.StorageConfig, logger *zap.Logger) (documentapp.DocumentStore, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3DocumentStore(cfg, WithLogger(logger))
	case "filesystem":
		logger.Warn("Using filesystem document storage; not suitable for production",
			zap.String("base_path", cfg.BasePath))
		return NewFilesystemDocumentStore(cfg.BasePath, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
