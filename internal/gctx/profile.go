package gctx

import (
	"github.com/example/gcloud-ctx/internal/gctx/catalog"
	"github.com/example/gcloud-ctx/internal/gctx/properties"
)

// Profile is a snapshot of a named configuration at the time it was read.
// Later store mutations never change a Profile that was already returned.
type Profile struct {
	Name       string
	Path       string
	Properties properties.Properties
}

// Diagnostic describes a configuration file skipped while listing.
type Diagnostic = catalog.Diagnostic

func profileFromEntry(e catalog.Entry) Profile {
	return Profile{Name: e.Name, Path: e.Path, Properties: e.Properties}
}
