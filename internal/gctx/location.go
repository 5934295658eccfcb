package gctx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// EnvConfigDir overrides the configuration root, as it does for gcloud.
const EnvConfigDir = "CLOUDSDK_CONFIG"

const gcloudDirName = "gcloud"

// ErrLocationNotFound indicates that no default configuration root could be derived.
var ErrLocationNotFound = errors.New("unable to determine the gcloud configuration directory")

// DefaultLocation returns the configuration root gcloud itself would use:
// CLOUDSDK_CONFIG when set, otherwise %APPDATA%\gcloud on Windows and
// ~/.config/gcloud elsewhere, including macOS.
func DefaultLocation() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvConfigDir)); dir != "" {
		return dir, nil
	}
	return platformLocation(runtime.GOOS, os.UserConfigDir, os.UserHomeDir)
}

func platformLocation(goos string, configDir, homeDir func() (string, error)) (string, error) {
	// gcloud ignores ~/Library/Application Support on macOS.
	if goos == "darwin" {
		home, err := homeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrLocationNotFound, err)
		}
		if home == "" {
			return "", ErrLocationNotFound
		}
		return filepath.Join(home, ".config", gcloudDirName), nil
	}
	dir, err := configDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLocationNotFound, err)
	}
	if dir == "" {
		return "", ErrLocationNotFound
	}
	return filepath.Join(dir, gcloudDirName), nil
}

// OpenDefault opens the store at DefaultLocation.
func OpenDefault(fs afero.Fs, logger *slog.Logger) (*Store, error) {
	root, err := DefaultLocation()
	if err != nil {
		return nil, err
	}
	return Open(fs, root, logger)
}
