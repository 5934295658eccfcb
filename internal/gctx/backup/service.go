package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/example/gcloud-ctx/internal/gctx/storage"
)

// Service keeps content-addressed copies of configuration files before
// they are overwritten or deleted.
type Service struct {
	storage   *storage.Storage
	backupDir string
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a new backup Service.
func New(storage *storage.Storage, backupDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		storage:   storage,
		backupDir: backupDir,
		now:       time.Now,
		logger:    logger,
	}
}

// SetNow allows overriding the clock for testing.
func (s *Service) SetNow(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// BackupDir returns the backup directory path.
func (s *Service) BackupDir() string {
	return s.backupDir
}

// CalculateHash returns the SHA-256 hash of the given file, or an empty
// string without error when the file does not exist.
func (s *Service) CalculateHash(path string) (string, error) {
	if err := s.storage.ValidatePathSafety(path); err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}

	f, err := s.storage.FileSystem().Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BackupFile stores a copy of the file at path under its SHA-256 hash and
// returns the backup path. Identical content reuses the same backup and
// only refreshes its modification time, which is what PruneBackups ages.
// A missing file is skipped and yields an empty path.
func (s *Service) BackupFile(path string) (string, error) {
	hash, err := s.CalculateHash(path)
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", nil
	}

	backupPath := filepath.Join(s.backupDir, hash)
	now := s.now()

	if _, err := s.storage.Stat(backupPath); err == nil {
		if err := s.storage.Chtimes(backupPath, now, now); err != nil {
			return "", fmt.Errorf("failed to update backup timestamp: %w", err)
		}
		s.logger.Debug("backup already exists, updated timestamp",
			"path", path,
			"hash", hash,
			"backup_path", backupPath)
		return backupPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to stat backup: %w", err)
	}

	if err := s.storage.CopyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	if err := s.storage.Chtimes(backupPath, now, now); err != nil {
		return "", fmt.Errorf("failed to update backup timestamp: %w", err)
	}

	s.logger.Info("backup created",
		"path", path,
		"hash", hash,
		"backup_path", backupPath)

	return backupPath, nil
}

// PruneBackups removes backup files older than the specified duration and
// returns how many were deleted. A missing backup directory holds nothing
// to prune.
func (s *Service) PruneBackups(olderThan time.Duration) (int, error) {
	entries, err := s.storage.ReadDir(s.backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}
	cutoff := s.now().Add(-olderThan)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.ModTime().Before(cutoff) {
			path := filepath.Join(s.backupDir, entry.Name())
			if err := s.storage.Remove(path); err != nil {
				return deleted, fmt.Errorf("failed to delete backup: %w", err)
			}
			s.logger.Debug("backup pruned", "backup_path", path)
			deleted++
		}
	}
	return deleted, nil
}
