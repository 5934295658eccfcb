package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/example/gcloud-ctx/internal/gctx/domain"
	"github.com/example/gcloud-ctx/internal/gctx/paths"
	"github.com/example/gcloud-ctx/internal/gctx/properties"
	"github.com/example/gcloud-ctx/internal/gctx/storage"
	"github.com/example/gcloud-ctx/internal/gctx/validator"
)

// Entry is a configuration file that was read and parsed during a scan.
type Entry struct {
	Name       string
	Path       string
	Properties properties.Properties
}

// Diagnostic describes a configuration file that a scan skipped.
type Diagnostic struct {
	Name string
	Path string
	Err  error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("skipped %s: %v", d.Path, d.Err)
}

// Result partitions the configurations directory into parsed entries,
// sorted by name, and diagnostics for files that could not be used.
type Result struct {
	Entries     []Entry
	Diagnostics []Diagnostic
}

// Catalog reads the configurations directory and the active pointer file.
type Catalog struct {
	storage   *storage.Storage
	paths     *paths.PathBuilder
	validator *validator.Validator
	logger    *slog.Logger
}

// New creates a Catalog over the given store layout.
func New(storage *storage.Storage, paths *paths.PathBuilder, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalog{
		storage:   storage,
		paths:     paths,
		validator: validator.New(),
		logger:    logger,
	}
}

// Scan reads every file in the configurations directory.
//
// Files without the config_ prefix and subdirectories are ignored. Files
// with an invalid name, that cannot be read, or that fail to parse are
// reported as diagnostics and logged as warnings; they never fail the scan.
// Only an unreadable directory is an error.
func (c *Catalog) Scan() (Result, error) {
	dir := c.paths.ConfigurationsDir()
	files, err := c.storage.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read configurations directory: %w", err)
	}

	var result Result
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name, ok := paths.NameFromFile(file.Name())
		if !ok {
			continue
		}
		path := c.paths.ConfigurationPath(name)

		if err := c.validator.ValidateName(name); err != nil {
			result.Diagnostics = append(result.Diagnostics, c.skip(name, path, err))
			continue
		}

		props, err := c.Load(name)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, c.skip(name, path, err))
			continue
		}
		result.Entries = append(result.Entries, Entry{Name: name, Path: path, Properties: props})
	}

	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].Name < result.Entries[j].Name
	})
	sort.Slice(result.Diagnostics, func(i, j int) bool {
		return result.Diagnostics[i].Name < result.Diagnostics[j].Name
	})
	return result, nil
}

func (c *Catalog) skip(name, path string, err error) Diagnostic {
	c.logger.Warn("skipping configuration file",
		"name", name,
		"path", path,
		"error", err)
	return Diagnostic{Name: name, Path: path, Err: err}
}

// Load reads and parses the named configuration. A missing file yields
// domain.ErrNotFound; a corrupt one yields domain.ErrMalformedFormat naming
// the file.
func (c *Catalog) Load(name string) (properties.Properties, error) {
	path := c.paths.ConfigurationPath(name)
	data, err := c.storage.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return properties.Properties{}, domain.NotFound(name)
		}
		return properties.Properties{}, fmt.Errorf("failed to read configuration '%s': %w", name, err)
	}
	props, err := properties.Parse(data)
	if err != nil {
		return properties.Properties{}, domain.WithName(err, path)
	}
	return props, nil
}

// Exists reports whether a regular file backs the named configuration.
func (c *Catalog) Exists(name string) (bool, error) {
	info, err := c.storage.Stat(c.paths.ConfigurationPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect configuration '%s': %w", name, err)
	}
	return !info.IsDir(), nil
}

// ActiveName returns the raw content of the pointer file with surrounding
// whitespace removed, or "" when the file is absent.
func (c *Catalog) ActiveName() (string, error) {
	data, err := c.storage.ReadFile(c.paths.ActiveConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read active configuration: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetActiveName atomically replaces the pointer file content with name.
func (c *Catalog) SetActiveName(name string) error {
	if err := c.storage.WriteFileAtomic(c.paths.ActiveConfigPath(), []byte(name)); err != nil {
		return fmt.Errorf("failed to write active configuration: %w", err)
	}
	return nil
}
