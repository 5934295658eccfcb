// Package properties models the settings held by a gcloud configuration
// and their on-disk property file format.
package properties

// Property field names as they appear in configuration files.
const (
	FieldProject = "project"
	FieldAccount = "account"
	FieldZone    = "zone"
	FieldRegion  = "region"
)

// Section names used by gcloud for the supported fields.
const (
	SectionCore    = "core"
	SectionCompute = "compute"
)

// Properties is an immutable set of optional configuration properties.
// A field that was never set is absent, which is distinct from being set
// to the empty string.
type Properties struct {
	project *string
	account *string
	zone    *Zone
	region  *Region
}

// Project returns the core/project property and whether it is set.
func (p Properties) Project() (string, bool) {
	if p.project == nil {
		return "", false
	}
	return *p.project, true
}

// Account returns the core/account property and whether it is set.
func (p Properties) Account() (string, bool) {
	if p.account == nil {
		return "", false
	}
	return *p.account, true
}

// Zone returns the compute/zone property and whether it is set.
func (p Properties) Zone() (Zone, bool) {
	if p.zone == nil {
		return Zone{}, false
	}
	return *p.zone, true
}

// Region returns the compute/region property and whether it is set.
func (p Properties) Region() (Region, bool) {
	if p.region == nil {
		return Region{}, false
	}
	return *p.region, true
}

// IsEmpty reports whether no property is set.
func (p Properties) IsEmpty() bool {
	return p.project == nil && p.account == nil && p.zone == nil && p.region == nil
}

// Equal reports whether both sets hold the same fields with the same values.
func (p Properties) Equal(other Properties) bool {
	return equalPtr(p.project, other.project) &&
		equalPtr(p.account, other.account) &&
		equalPtr(p.zone, other.zone) &&
		equalPtr(p.region, other.region)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
