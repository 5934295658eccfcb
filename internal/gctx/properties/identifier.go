package properties

import (
	"regexp"

	"github.com/example/gcloud-ctx/internal/gctx/domain"
)

// regionPattern matches names such as europe-west1, us-east4 and
// europe-west10.
const regionPattern = `[a-z]+-[a-z]+[0-9]+`

var (
	regionRegexp = regexp.MustCompile(`^` + regionPattern + `$`)
	zoneRegexp   = regexp.MustCompile(`^` + regionPattern + `-[a-z]$`)
)

// Region is a validated compute region such as "europe-west1".
// The zero value is not a valid region; use ParseRegion.
type Region struct {
	value string
}

// ParseRegion validates s as a compute region.
func ParseRegion(s string) (Region, error) {
	if !regionRegexp.MatchString(s) {
		return Region{}, domain.InvalidIdentifier(FieldRegion, s)
	}
	return Region{value: s}, nil
}

func (r Region) String() string {
	return r.value
}

// Zone is a validated compute zone such as "europe-west1-d".
// The zero value is not a valid zone; use ParseZone.
type Zone struct {
	value string
}

// ParseZone validates s as a compute zone.
func ParseZone(s string) (Zone, error) {
	if !zoneRegexp.MatchString(s) {
		return Zone{}, domain.InvalidIdentifier(FieldZone, s)
	}
	return Zone{value: s}, nil
}

func (z Zone) String() string {
	return z.value
}
