package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sidaputra/dapurlink-backend/pkg/config"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
	"github.com/sidaputra/dapurlink-backend/pkg/storage"
)

// Store keeps blobs on the local filesystem under a configured root.
// Keys are relative slash-separated paths, so rows stay portable if the
// root ever moves.
type Store struct {
	root          string
	publicBaseURL string
}

var _ storage.Store = (*Store)(nil)

func NewStore(cfg config.StorageConfig, logg *logger.Logger) (*Store, error) {
	root := strings.TrimSpace(cfg.RootDir)
	if root == "" {
		return nil, errors.New("storage root dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}

	store := &Store{
		root:          root,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}

	if logg != nil {
		logg.Info(context.Background(), "local document store initialized")
	}
	return store, nil
}

func (s *Store) Save(ctx context.Context, category storage.Category, name string, data []byte) (string, error) {
	if !category.IsValid() {
		return "", fmt.Errorf("invalid storage category %q", category)
	}
	if len(data) == 0 {
		return "", errors.New("refusing to store empty blob")
	}

	ext := path.Ext(name)
	now := time.Now().UTC()
	key := path.Join(
		string(category),
		now.Format("2006/01"),
		uuid.NewString()+ext,
	)

	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating storage dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	return key, nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting blob %s: %w", key, err)
	}
	return nil
}

func (s *Store) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", s.root)
	}
	return nil
}

// resolve rejects keys that would escape the root.
func (s *Store) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
