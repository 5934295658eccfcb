package catalog

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/example/gcloud-ctx/internal/gctx/domain"
	"github.com/example/gcloud-ctx/internal/gctx/paths"
	"github.com/example/gcloud-ctx/internal/gctx/storage"
)

const testRoot = "/home/test/.config/gcloud"

func newTestCatalog(t *testing.T, logger *slog.Logger) (*Catalog, afero.Fs, *paths.PathBuilder) {
	t.Helper()
	fs := afero.NewMemMapFs()
	pb := paths.New(testRoot)
	if err := fs.MkdirAll(pb.ConfigurationsDir(), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return New(storage.New(fs), pb, logger), fs, pb
}

func writeConfig(t *testing.T, fs afero.Fs, pb *paths.PathBuilder, name, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, pb.ConfigurationPath(name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestScan_SortsAndParses(t *testing.T) {
	c, fs, pb := newTestCatalog(t, nil)
	writeConfig(t, fs, pb, "prod", "[core]\nproject = p-prod\n")
	writeConfig(t, fs, pb, "dev", "[core]\nproject = p-dev\n")
	writeConfig(t, fs, pb, "default", "")

	result, err := c.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", result.Diagnostics)
	}

	var names []string
	for _, e := range result.Entries {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "default,dev,prod" {
		t.Fatalf("unexpected order: %v", names)
	}
	if v, _ := result.Entries[1].Properties.Project(); v != "p-dev" {
		t.Errorf("expected dev project p-dev, got %q", v)
	}
	if result.Entries[2].Path != pb.ConfigurationPath("prod") {
		t.Errorf("unexpected path %q", result.Entries[2].Path)
	}
}

func TestScan_IgnoresForeignEntries(t *testing.T) {
	c, fs, pb := newTestCatalog(t, nil)
	writeConfig(t, fs, pb, "default", "")
	if err := afero.WriteFile(fs, filepath.Join(pb.ConfigurationsDir(), "README"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write README: %v", err)
	}
	if err := afero.WriteFile(fs, filepath.Join(pb.ConfigurationsDir(), ".config_default.tmp-1"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := fs.MkdirAll(filepath.Join(pb.ConfigurationsDir(), "config_subdir"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result, err := c.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].Name != "default" {
		t.Fatalf("unexpected entries: %+v", result.Entries)
	}
	if len(result.Diagnostics) != 0 {
		t.Fatalf("foreign entries must not produce diagnostics: %v", result.Diagnostics)
	}
}

func TestScan_SkipsCorruptFilesWithDiagnostics(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	c, fs, pb := newTestCatalog(t, logger)

	writeConfig(t, fs, pb, "good", "[core]\nproject = p1\n")
	writeConfig(t, fs, pb, "broken", "this is not a property line\n")
	writeConfig(t, fs, pb, "badzone", "[compute]\nzone = Europe West1\n")
	writeConfig(t, fs, pb, "", "")

	result, err := c.Scan()
	if err != nil {
		t.Fatalf("Scan must not fail on corrupt files: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].Name != "good" {
		t.Fatalf("unexpected entries: %+v", result.Entries)
	}
	if len(result.Diagnostics) != 3 {
		t.Fatalf("expected 3 diagnostics, got %v", result.Diagnostics)
	}

	byName := map[string]Diagnostic{}
	for _, d := range result.Diagnostics {
		byName[d.Name] = d
	}
	if !errors.Is(byName["broken"].Err, domain.ErrMalformedFormat) {
		t.Errorf("expected malformed diagnostic for broken, got %v", byName["broken"].Err)
	}
	if !errors.Is(byName["badzone"].Err, domain.ErrInvalidIdentifier) {
		t.Errorf("expected invalid identifier diagnostic for badzone, got %v", byName["badzone"].Err)
	}
	if !errors.Is(byName[""].Err, domain.ErrInvalidName) {
		t.Errorf("expected invalid name diagnostic for empty name, got %v", byName[""].Err)
	}
	if !strings.Contains(byName["broken"].String(), pb.ConfigurationPath("broken")) {
		t.Errorf("diagnostic should name the file: %s", byName["broken"])
	}
	if !strings.Contains(logs.String(), "skipping configuration file") {
		t.Errorf("expected warning log, got %q", logs.String())
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := New(storage.New(fs), paths.New("/nowhere"), nil)
	if _, err := c.Scan(); err == nil {
		t.Fatal("expected error for missing configurations directory")
	}
}

func TestLoad(t *testing.T) {
	c, fs, pb := newTestCatalog(t, nil)
	writeConfig(t, fs, pb, "dev", "[core]\naccount = me@example.org\n")

	props, err := c.Load("dev")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := props.Account(); !ok || v != "me@example.org" {
		t.Errorf("account = %q, %v", v, ok)
	}

	if _, err := c.Load("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExists(t *testing.T) {
	c, fs, pb := newTestCatalog(t, nil)
	writeConfig(t, fs, pb, "dev", "")

	if ok, err := c.Exists("dev"); err != nil || !ok {
		t.Errorf("Exists(dev) = %v, %v", ok, err)
	}
	if ok, err := c.Exists("prod"); err != nil || ok {
		t.Errorf("Exists(prod) = %v, %v", ok, err)
	}
}

func TestActiveName(t *testing.T) {
	c, fs, pb := newTestCatalog(t, nil)

	name, err := c.ActiveName()
	if err != nil || name != "" {
		t.Fatalf("expected empty name for missing pointer, got %q, %v", name, err)
	}

	if err := c.SetActiveName("dev"); err != nil {
		t.Fatalf("SetActiveName: %v", err)
	}
	content, err := afero.ReadFile(fs, pb.ActiveConfigPath())
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(content) != "dev" {
		t.Errorf("pointer content = %q, want %q", content, "dev")
	}

	if err := afero.WriteFile(fs, pb.ActiveConfigPath(), []byte("prod\n"), 0o600); err != nil {
		t.Fatalf("write pointer: %v", err)
	}
	if name, _ := c.ActiveName(); name != "prod" {
		t.Errorf("expected trailing newline to be tolerated, got %q", name)
	}
}
