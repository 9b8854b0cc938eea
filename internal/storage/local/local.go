package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage"
)

// FileStore implements storage.FileStore on the local filesystem. The base
// directory is created once at construction, not per request.
type FileStore struct {
	baseDir string
	baseURL string
}

// New creates a local file store rooted at baseDir. Stored objects are served
// under baseURL/uploads/.
func New(baseDir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", baseDir, err)
	}

	return &FileStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Store writes the upload to disk under a fresh key and returns its URL.
func (s *FileStore) Store(ctx context.Context, ref storage.ObjectRef, file storage.Upload) (*storage.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := storage.NewKey(ref)
	path := filepath.Join(s.baseDir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create object file: %w", err)
	}

	if _, err := io.Copy(dst, file.Data); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write object file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close object file: %w", err)
	}

	return &storage.StoredObject{
		Key: key,
		URL: fmt.Sprintf("%s/uploads/%s", s.baseURL, key),
	}, nil
}

// Delete removes a stored object from disk. A missing file is not an error;
// deletion is used as best-effort cleanup.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove object file: %w", err)
	}

	return nil
}
