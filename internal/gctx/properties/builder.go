package properties

import (
	"errors"
	"strings"

	"github.com/example/gcloud-ctx/internal/gctx/domain"
)

// Builder assembles Properties from optional inputs. Setters record raw
// values; validation happens in Build so a chain of setters never fails
// halfway through.
type Builder struct {
	project *string
	account *string
	zone    *string
	region  *string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Project sets the core/project property.
func (b *Builder) Project(project string) *Builder {
	b.project = &project
	return b
}

// Account sets the core/account property.
func (b *Builder) Account(account string) *Builder {
	b.account = &account
	return b
}

// Zone sets the compute/zone property.
func (b *Builder) Zone(zone string) *Builder {
	b.zone = &zone
	return b
}

// Region sets the compute/region property.
func (b *Builder) Region(region string) *Builder {
	b.region = &region
	return b
}

// Build validates the recorded values. A malformed zone or region fails
// with domain.ErrInvalidIdentifier; a project or account containing a line
// break or surrounding whitespace fails with domain.ErrInvalidValue, since
// the file format could not carry it back unchanged. When several fields
// are invalid all failures are joined.
func (b *Builder) Build() (Properties, error) {
	var (
		props Properties
		errs  []error
	)

	if b.project != nil {
		if err := checkScalar(FieldProject, *b.project); err != nil {
			errs = append(errs, err)
		}
		props.project = cloneString(b.project)
	}
	if b.account != nil {
		if err := checkScalar(FieldAccount, *b.account); err != nil {
			errs = append(errs, err)
		}
		props.account = cloneString(b.account)
	}
	if b.zone != nil {
		zone, err := ParseZone(*b.zone)
		if err != nil {
			errs = append(errs, err)
		}
		props.zone = &zone
	}
	if b.region != nil {
		region, err := ParseRegion(*b.region)
		if err != nil {
			errs = append(errs, err)
		}
		props.region = &region
	}

	if len(errs) > 0 {
		return Properties{}, errors.Join(errs...)
	}
	return props, nil
}

func checkScalar(field, value string) error {
	if strings.ContainsAny(value, "\r\n") || strings.TrimSpace(value) != value {
		return domain.InvalidValue(field, value)
	}
	return nil
}

func cloneString(s *string) *string {
	v := *s
	return &v
}
