package validator

import (
	"regexp"
	"strings"

	"github.com/example/gcloud-ctx/internal/gctx/domain"
)

var (
	reservedNamePattern = regexp.MustCompile(`^(?i)(con|prn|aux|nul|com[1-9]|lpt[1-9])$`)
	invalidCharsPattern = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// Validator checks configuration names before they become file names.
type Validator struct{}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{}
}

// ValidateName reports whether name can be used as a configuration name.
//
// Names are used literally in the file name config_<name>, so the check rejects:
//   - empty names and names with leading or trailing whitespace
//   - dot navigation (. or ..)
//   - null bytes and other non-printable ASCII characters
//   - path separators and other characters invalid on common filesystems (<>:"/\|?*)
//   - reserved Windows filenames (CON, PRN, AUX, NUL, COM1-9, LPT1-9)
//
// A rejected name yields an error matching both domain.ErrInvalidName and
// the specific reason.
func (v *Validator) ValidateName(name string) error {
	if err := reason(name); err != nil {
		return domain.InvalidName(name, err)
	}
	return nil
}

func reason(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.ErrNameEmpty
	}
	if strings.TrimSpace(name) != name {
		return domain.ErrNameWhitespace
	}
	if name == "." || name == ".." {
		return domain.ErrNameDot
	}
	if strings.ContainsRune(name, 0) {
		return domain.ErrNameNullByte
	}
	for _, r := range name {
		if r < 0x20 || r >= 0x7f {
			return domain.ErrNameNonPrintable
		}
	}
	if invalidCharsPattern.MatchString(name) {
		return domain.ErrNameInvalidChars
	}
	if reservedNamePattern.MatchString(name) {
		return domain.ErrNameReserved
	}
	return nil
}
