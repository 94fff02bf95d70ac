package kvstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

const (
	fileSuffix = ".val"
	dirPerm    = 0o755
	filePerm   = 0o644
)

// FileStore keeps one file per key under a directory. Writes go to a temp
// file that is synced and renamed over the target.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: file store needs a directory", ErrStore)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileSuffix)
}

// Get reads the file for key.
func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: read %s: %w", ErrStore, key, err)
	}
	return string(b), true, nil
}

// Set replaces the file for key atomically.
func (f *FileStore) Set(_ context.Context, key, value string) error {
	target := f.path(key)
	tmp := target + ".tmp"

	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrStore, key, err)
	}
	if _, err := file.WriteString(value); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: write %s: %w", ErrStore, key, err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrStore, key, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStore, key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrStore, key, err)
	}
	_ = fsyncDir(f.dir)
	return nil
}

// Remove deletes the file for key.
func (f *FileStore) Remove(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", ErrStore, key, err)
	}
	return nil
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }

// fsyncDir makes the rename durable. Some platforms refuse to sync a
// directory; that is tolerated.
func fsyncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	df, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer df.Close()
	if err := df.Sync(); err != nil && !errors.Is(err, syscall.ENOTSUP) {
		return err
	}
	return nil
}
