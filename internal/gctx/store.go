// Package gctx manages gcloud named configurations: one property file per
// configuration under configurations/ and an active_config pointer naming
// the one gcloud uses.
package gctx

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/example/gcloud-ctx/internal/gctx/backup"
	"github.com/example/gcloud-ctx/internal/gctx/catalog"
	"github.com/example/gcloud-ctx/internal/gctx/domain"
	"github.com/example/gcloud-ctx/internal/gctx/paths"
	"github.com/example/gcloud-ctx/internal/gctx/properties"
	"github.com/example/gcloud-ctx/internal/gctx/storage"
	"github.com/example/gcloud-ctx/internal/gctx/validator"
)

// Store coordinates every operation on a configuration root.
//
// After any successful mutation the pointer names an existing configuration,
// or the store is still in its initial empty state with no pointer.
type Store struct {
	storage   *storage.Storage
	paths     *paths.PathBuilder
	catalog   *catalog.Catalog
	backup    *backup.Service
	validator *validator.Validator
	logger    *slog.Logger
}

// Open binds a Store to root, creating root and its configurations
// directory when missing. A nil logger discards all output.
func Open(fs afero.Fs, root string, logger *slog.Logger) (*Store, error) {
	if fs == nil {
		return nil, errors.New("filesystem cannot be nil")
	}
	if root == "" {
		return nil, domain.StoreUnavailable(root, errors.New("root cannot be empty"))
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	st := storage.New(fs)
	pb := paths.New(root)
	for _, dir := range []string{pb.Root(), pb.ConfigurationsDir()} {
		if err := ensureDir(st, dir); err != nil {
			return nil, err
		}
	}

	logger.Debug("configuration store opened", "root", root)

	return &Store{
		storage:   st,
		paths:     pb,
		catalog:   catalog.New(st, pb, logger),
		backup:    backup.New(st, pb.BackupDir(), logger),
		validator: validator.New(),
		logger:    logger,
	}, nil
}

func ensureDir(st *storage.Storage, dir string) error {
	if err := st.ValidatePathSafety(dir); err != nil {
		return domain.StoreUnavailable(dir, err)
	}
	info, err := st.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return domain.StoreUnavailable(dir, errors.New("not a directory"))
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		if err := st.MkdirAll(dir); err != nil {
			return domain.StoreUnavailable(dir, err)
		}
		return nil
	default:
		return domain.StoreUnavailable(dir, err)
	}
}

// Root returns the configuration root directory.
func (s *Store) Root() string {
	return s.paths.Root()
}

// BackupDir returns where replaced configuration files are kept.
func (s *Store) BackupDir() string {
	return s.backup.BackupDir()
}

// SetNow overrides the clock used to stamp backups.
func (s *Store) SetNow(now func() time.Time) {
	s.backup.SetNow(now)
}

// ValidateName reports whether name can be used for a configuration.
func (s *Store) ValidateName(name string) error {
	return s.validator.ValidateName(name)
}

// Create writes a new configuration holding props. An existing configuration
// of the same name is rejected under ConflictFail and replaced under
// ConflictOverwrite. When activate is true the new configuration becomes the
// active one.
func (s *Store) Create(name string, props properties.Properties, conflict ConflictAction, activate bool) (Profile, error) {
	if err := s.validator.ValidateName(name); err != nil {
		return Profile{}, err
	}
	path := s.paths.ConfigurationPath(name)
	if err := s.prepareTarget(name, conflict); err != nil {
		return Profile{}, err
	}

	if err := s.storage.WriteFileAtomic(path, properties.Serialize(props)); err != nil {
		return Profile{}, fmt.Errorf("failed to write configuration '%s': %w", name, err)
	}
	s.logger.Info("configuration created", "name", name, "path", path)

	if activate {
		if err := s.Activate(name); err != nil {
			return Profile{}, err
		}
	}
	return Profile{Name: name, Path: path, Properties: props}, nil
}

// Copy duplicates src as dest byte for byte, so keys this tool does not
// understand are preserved. The active pointer is untouched unless activate
// is true.
func (s *Store) Copy(src, dest string, conflict ConflictAction, activate bool) (Profile, error) {
	source, err := s.Find(src)
	if err != nil {
		return Profile{}, err
	}
	if err := s.validator.ValidateName(dest); err != nil {
		return Profile{}, err
	}
	destPath := s.paths.ConfigurationPath(dest)

	if src == dest {
		if conflict == ConflictFail {
			return Profile{}, domain.AlreadyExists(dest)
		}
	} else {
		if err := s.prepareTarget(dest, conflict); err != nil {
			return Profile{}, err
		}
		if err := s.storage.CopyFile(source.Path, destPath); err != nil {
			return Profile{}, fmt.Errorf("failed to copy configuration '%s' to '%s': %w", src, dest, err)
		}
		s.logger.Info("configuration copied", "source", src, "destination", dest)
	}

	if activate {
		if err := s.Activate(dest); err != nil {
			return Profile{}, err
		}
	}
	return Profile{Name: dest, Path: destPath, Properties: source.Properties}, nil
}

// Rename moves src to dest. When src is active the pointer follows it and
// never names a missing configuration: dest is written first, the pointer
// is replaced, and only then is src removed.
func (s *Store) Rename(src, dest string, conflict ConflictAction) (Profile, error) {
	source, err := s.Find(src)
	if err != nil {
		return Profile{}, err
	}
	if err := s.validator.ValidateName(dest); err != nil {
		return Profile{}, err
	}
	destPath := s.paths.ConfigurationPath(dest)
	renamed := Profile{Name: dest, Path: destPath, Properties: source.Properties}

	if src == dest {
		if conflict == ConflictFail {
			return Profile{}, domain.AlreadyExists(dest)
		}
		return renamed, nil
	}
	if err := s.prepareTarget(dest, conflict); err != nil {
		return Profile{}, err
	}

	active, err := s.catalog.ActiveName()
	if err != nil {
		return Profile{}, err
	}

	if active == src {
		if err := s.storage.CopyFile(source.Path, destPath); err != nil {
			return Profile{}, fmt.Errorf("failed to rename configuration '%s' to '%s': %w", src, dest, err)
		}
		if err := s.catalog.SetActiveName(dest); err != nil {
			if rmErr := s.storage.Remove(destPath); rmErr != nil {
				s.logger.Warn("failed to remove partial rename", "path", destPath, "error", rmErr)
			}
			return Profile{}, err
		}
		if err := s.storage.Remove(source.Path); err != nil {
			return Profile{}, fmt.Errorf("failed to remove configuration '%s': %w", src, err)
		}
		s.logger.Info("active configuration renamed", "source", src, "destination", dest)
		return renamed, nil
	}

	if err := s.storage.Rename(source.Path, destPath); err != nil {
		return Profile{}, fmt.Errorf("failed to rename configuration '%s' to '%s': %w", src, dest, err)
	}
	s.logger.Info("configuration renamed", "source", src, "destination", dest)
	return renamed, nil
}

// Delete removes a configuration. The active configuration can never be
// deleted.
func (s *Store) Delete(name string) error {
	if err := s.requireExisting(name); err != nil {
		return err
	}
	active, err := s.catalog.ActiveName()
	if err != nil {
		return err
	}
	if active == name {
		return domain.CannotDeleteActive(name)
	}

	path := s.paths.ConfigurationPath(name)
	if _, err := s.backup.BackupFile(path); err != nil {
		return fmt.Errorf("failed to back up configuration '%s': %w", name, err)
	}
	if err := s.storage.Remove(path); err != nil {
		return fmt.Errorf("failed to delete configuration '%s': %w", name, err)
	}
	s.logger.Info("configuration deleted", "name", name, "path", path)
	return nil
}

// Activate points active_config at name. A configuration that cannot be
// parsed is refused, so the pointer only names configurations that
// Configurations lists.
func (s *Store) Activate(name string) error {
	if _, err := s.Find(name); err != nil {
		return err
	}
	if err := s.catalog.SetActiveName(name); err != nil {
		return err
	}
	s.logger.Info("configuration activated", "name", name)
	return nil
}

// Active returns the name of the active configuration. It fails with
// domain.ErrNoActiveConfiguration when the pointer is missing, empty, or
// names a configuration that does not exist.
func (s *Store) Active() (string, error) {
	name, err := s.catalog.ActiveName()
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", domain.NoActiveConfiguration("")
	}
	if err := s.validator.ValidateName(name); err != nil {
		return "", domain.NoActiveConfiguration(name)
	}
	exists, err := s.catalog.Exists(name)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.NoActiveConfiguration(name)
	}
	return name, nil
}

// IsActive reports whether p is the active configuration. An unreadable
// pointer counts as no active configuration.
func (s *Store) IsActive(p Profile) bool {
	active, err := s.catalog.ActiveName()
	if err != nil {
		s.logger.Debug("failed to read active configuration", "error", err)
		return false
	}
	return active != "" && active == p.Name
}

// Describe returns the properties held by the named configuration.
func (s *Store) Describe(name string) (properties.Properties, error) {
	p, err := s.Find(name)
	if err != nil {
		return properties.Properties{}, err
	}
	return p.Properties, nil
}

// DescribeActive returns the properties of the active configuration.
func (s *Store) DescribeActive() (properties.Properties, error) {
	name, err := s.Active()
	if err != nil {
		return properties.Properties{}, err
	}
	return s.Describe(name)
}

// Find loads the named configuration.
func (s *Store) Find(name string) (Profile, error) {
	if err := s.validator.ValidateName(name); err != nil {
		return Profile{}, err
	}
	props, err := s.catalog.Load(name)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Name: name, Path: s.paths.ConfigurationPath(name), Properties: props}, nil
}

// Configurations yields every readable configuration ordered by name. The
// directory is scanned each time the sequence is iterated; files that fail
// to parse are skipped and logged.
func (s *Store) Configurations() iter.Seq[Profile] {
	return func(yield func(Profile) bool) {
		result, err := s.catalog.Scan()
		if err != nil {
			s.logger.Warn("failed to list configurations", "error", err)
			return
		}
		for _, entry := range result.Entries {
			if !yield(profileFromEntry(entry)) {
				return
			}
		}
	}
}

// Scan returns the readable configurations ordered by name together with a
// diagnostic for every configuration file that was skipped.
func (s *Store) Scan() ([]Profile, []Diagnostic, error) {
	result, err := s.catalog.Scan()
	if err != nil {
		return nil, nil, err
	}
	profiles := make([]Profile, 0, len(result.Entries))
	for _, entry := range result.Entries {
		profiles = append(profiles, profileFromEntry(entry))
	}
	return profiles, result.Diagnostics, nil
}

// PruneBackups deletes backups older than olderThan and returns how many
// were removed.
func (s *Store) PruneBackups(olderThan time.Duration) (int, error) {
	if olderThan < 0 {
		return 0, fmt.Errorf("retention cannot be negative: %s", olderThan)
	}
	count, err := s.backup.PruneBackups(olderThan)
	if err != nil {
		return count, err
	}
	s.logger.Info("backups pruned", "older_than", olderThan.String(), "count", count)
	return count, nil
}

func (s *Store) requireExisting(name string) error {
	if err := s.validator.ValidateName(name); err != nil {
		return err
	}
	exists, err := s.catalog.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NotFound(name)
	}
	return nil
}

// prepareTarget applies the conflict policy to a configuration about to be
// written and backs up the file it would replace.
func (s *Store) prepareTarget(name string, conflict ConflictAction) error {
	exists, err := s.catalog.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if conflict != ConflictOverwrite {
		return domain.AlreadyExists(name)
	}
	path := s.paths.ConfigurationPath(name)
	if _, err := s.backup.BackupFile(path); err != nil {
		return fmt.Errorf("failed to back up configuration '%s': %w", name, err)
	}
	s.logger.Debug("overwriting configuration", "name", name, "path", path)
	return nil
}
