package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore writes archives into a directory of a filesystem.
type LocalStore struct {
	fs  afero.Fs
	dir string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a store rooted at dir. A nil fs means the OS
// filesystem.
func NewLocalStore(fs afero.Fs, dir string) *LocalStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = "."
	}
	return &LocalStore{fs: fs, dir: dir}
}

// Dir returns the directory archives are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes data to <dir>/<name>, rotating an existing file to
// <dir>/<name>.bak first. The directory is created when missing.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (*SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}

	target := filepath.Join(s.dir, name)
	result := &SaveResult{Location: target}

	exists, err := afero.Exists(s.fs, target)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if exists {
		backup := target + BackupSuffix
		if err := s.fs.Remove(backup); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove old backup %s: %w", backup, err)
		}
		if err := s.fs.Rename(target, backup); err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", target, err)
		}
		result.Backup = backup
	}

	if err := afero.WriteFile(s.fs, target, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", target, err)
	}

	return result, nil
}

// ReadFile reads an upload source through the store's filesystem. Relative
// paths are resolved against the working directory, not the store directory.
func (s *LocalStore) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
