package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	filePerm = 0o600
	dirPerm  = 0o700
)

// Storage provides low-level file operations for the configuration store.
// Every write goes to a temporary file in the destination directory and is
// renamed over the destination, so readers see either the old or the new
// content and never a partial file.
type Storage struct {
	fs     afero.Fs
	tempID func() string
}

// New creates a new Storage instance.
func New(fs afero.Fs) *Storage {
	return &Storage{fs: fs, tempID: uuid.NewString}
}

// FileSystem returns the underlying filesystem.
func (s *Storage) FileSystem() afero.Fs {
	return s.fs
}

// ValidatePathSafety checks that the path is not a symlink, preventing symlink attacks.
// It returns nil if the path doesn't exist or is a regular file/directory.
func (s *Storage) ValidatePathSafety(path string) error {
	if lstater, ok := s.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to check path: %w", err)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("refusing to operate on symlink: %s", path)
		}
	}
	return nil
}

// tempPath returns a unique sibling of dst. The leading dot and suffix keep
// it from ever matching the config_ prefix used for configuration files.
func (s *Storage) tempPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-"+s.tempID())
}

// WriteFileAtomic replaces dst with data.
func (s *Storage) WriteFileAtomic(dst string, data []byte) error {
	if err := s.ValidatePathSafety(dst); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}
	return s.replace(dst, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFile copies a file from src to dst, atomically replacing the destination.
func (s *Storage) CopyFile(src, dst string) (err error) {
	if err := s.ValidatePathSafety(src); err != nil {
		return fmt.Errorf("validate source: %w", err)
	}
	if err := s.ValidatePathSafety(dst); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}

	source, err := s.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := source.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
	}()

	return s.replace(dst, func(w io.Writer) error {
		_, err := io.Copy(w, source)
		return err
	})
}

func (s *Storage) replace(dst string, fill func(io.Writer) error) error {
	if err := s.fs.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := s.tempPath(dst)
	dest, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, filePerm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	fillErr := fill(dest)
	syncErr := dest.Sync()
	closeErr := dest.Close()

	if fillErr != nil || syncErr != nil || closeErr != nil {
		s.fs.Remove(tmp)
		switch {
		case fillErr != nil:
			return fmt.Errorf("write data: %w", fillErr)
		case syncErr != nil:
			return fmt.Errorf("sync temp file: %w", syncErr)
		default:
			return fmt.Errorf("close temp file: %w", closeErr)
		}
	}

	// rename(2) atomically replaces the destination on POSIX filesystems.
	if err := s.fs.Rename(tmp, dst); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}

	return nil
}

// Rename moves src to dst, replacing dst if it exists.
func (s *Storage) Rename(src, dst string) error {
	if err := s.ValidatePathSafety(src); err != nil {
		return fmt.Errorf("validate source: %w", err)
	}
	if err := s.ValidatePathSafety(dst); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}
	if err := s.fs.Rename(src, dst); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadFile reads the entire file.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// Exists checks if a path exists.
func (s *Storage) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// Stat returns file information.
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// MkdirAll creates directory with secure permissions.
func (s *Storage) MkdirAll(path string) error {
	return s.fs.MkdirAll(path, dirPerm)
}

// ReadDir reads directory contents.
func (s *Storage) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.fs, path)
}

// Remove deletes a file.
func (s *Storage) Remove(path string) error {
	return s.fs.Remove(path)
}

// Chtimes changes file access and modification times.
func (s *Storage) Chtimes(path string, atime, mtime time.Time) error {
	return s.fs.Chtimes(path, atime, mtime)
}
