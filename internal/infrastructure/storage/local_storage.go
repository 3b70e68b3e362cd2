package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	duesapp "github.com/pharmassoc/backend/internal/application/dues"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"go.uber.org/zap"
)

// Ensure LocalReceiptStorage implements ReceiptStorage
var _ duesapp.ReceiptStorage = (*LocalReceiptStorage)(nil)

// LocalReceiptStorage keeps receipts on the local filesystem. It is the
// degraded-mode fallback when the object store is unreachable; payments record
// which backend holds their receipt, so files written here stay readable after
// the object store recovers.
type LocalReceiptStorage struct {
	basePath   string
	publicBase string
	logger     *zap.Logger
}

// LocalReceiptStorageOption is a functional option for configuring LocalReceiptStorage
type LocalReceiptStorageOption func(*LocalReceiptStorage)

// WithLocalLogger sets a custom logger for LocalReceiptStorage
func WithLocalLogger(logger *zap.Logger) LocalReceiptStorageOption {
	return func(s *LocalReceiptStorage) {
		s.logger = logger
	}
}

// NewLocalReceiptStorage creates a local storage rooted at basePath.
// publicBase is the URL prefix under which the directory is served.
func NewLocalReceiptStorage(basePath, publicBase string, opts ...LocalReceiptStorageOption) (*LocalReceiptStorage, error) {
	if basePath == "" {
		return nil, errors.New("storage path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	store := &LocalReceiptStorage{
		basePath:   basePath,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// resolve maps a storage key onto the base directory, rejecting keys that
// would escape it.
func (s *LocalReceiptStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filepath.Join(s.basePath, cleaned), nil
}

// Upload writes a receipt file under the base directory and returns its URL
func (s *LocalReceiptStorage) Upload(ctx context.Context, key, contentType string, content io.Reader) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create receipt directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create receipt file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write receipt file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write receipt file: %w", err)
	}

	s.logger.Info("receipt stored on local disk",
		zap.String("key", key),
		zap.String("path", path),
	)

	return s.urlFor(key), nil
}

// Delete removes a stored receipt file
func (s *LocalReceiptStorage) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete receipt file: %w", err)
	}
	return nil
}

// PresignDownload returns the static URL of a stored receipt. Local files are
// served by the application itself, so no expiry applies.
func (s *LocalReceiptStorage) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	return s.urlFor(key), nil
}

// Exists reports whether a receipt file is present on disk
func (s *LocalReceiptStorage) Exists(key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Kind identifies this backend on stored payments
func (s *LocalReceiptStorage) Kind() dues.ReceiptStorageKind {
	return dues.ReceiptStorageLocal
}

// BasePath returns the root directory of the store
func (s *LocalReceiptStorage) BasePath() string {
	return s.basePath
}

func (s *LocalReceiptStorage) urlFor(key string) string {
	if s.publicBase == "" {
		return "/uploads/" + key
	}
	return s.publicBase + "/" + key
}
