package paths

import (
	"path/filepath"
	"strings"
)

// Directory and file name constants for the gcloud configuration store.
const (
	ConfigurationsDirName = "configurations"
	ConfigFilePrefix      = "config_"
	ActiveFileName        = "active_config"
	BackupDirName         = "gctx_backups"
)

// PathBuilder constructs store paths relative to the store root.
type PathBuilder struct {
	root string
}

// New creates a new PathBuilder for the given store root.
func New(root string) *PathBuilder {
	return &PathBuilder{root: root}
}

// Root returns the store root directory.
func (p *PathBuilder) Root() string {
	return p.root
}

// ConfigurationsDir returns the directory holding one file per configuration.
func (p *PathBuilder) ConfigurationsDir() string {
	return filepath.Join(p.root, ConfigurationsDirName)
}

// ActiveConfigPath returns the path to the pointer file naming the active configuration.
func (p *PathBuilder) ActiveConfigPath() string {
	return filepath.Join(p.root, ActiveFileName)
}

// BackupDir returns the directory where replaced configuration files are kept.
func (p *PathBuilder) BackupDir() string {
	return filepath.Join(p.root, BackupDirName)
}

// ConfigurationPath returns the file path for a named configuration. The
// name is substituted literally and must already be validated.
func (p *PathBuilder) ConfigurationPath(name string) string {
	return filepath.Join(p.ConfigurationsDir(), FileName(name))
}

// FileName returns the file name used for a configuration name.
func FileName(name string) string {
	return ConfigFilePrefix + name
}

// NameFromFile extracts the configuration name from a file name. It reports
// false for files that do not carry the configuration prefix.
func NameFromFile(fileName string) (string, bool) {
	if !strings.HasPrefix(fileName, ConfigFilePrefix) {
		return "", false
	}
	return strings.TrimPrefix(fileName, ConfigFilePrefix), true
}
