package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrNotFound              = errors.New("configuration not found")
	ErrAlreadyExists         = errors.New("configuration already exists")
	ErrInvalidName           = errors.New("invalid configuration name")
	ErrInvalidIdentifier     = errors.New("invalid identifier")
	ErrInvalidValue          = errors.New("invalid property value")
	ErrMalformedFormat       = errors.New("malformed configuration file")
	ErrCannotDeleteActive    = errors.New("cannot delete the active configuration")
	ErrNoActiveConfiguration = errors.New("no active configuration")
	ErrStoreUnavailable      = errors.New("configuration store unavailable")
)

// Reasons a configuration name is rejected. They are wrapped by ErrInvalidName.
var (
	ErrNameEmpty        = errors.New("name cannot be empty")
	ErrNameDot          = errors.New("name cannot be '.' or '..'")
	ErrNameNonPrintable = errors.New("name contains non-printable characters")
	ErrNameInvalidChars = errors.New("name contains invalid characters (<>:\"/\\|?*)")
	ErrNameReserved     = errors.New("name is a reserved system filename")
	ErrNameNullByte     = errors.New("name contains null byte")
	ErrNameWhitespace   = errors.New("name cannot start or end with whitespace")
)

// Error is a typed failure carrying the configuration name, property field,
// value or path that caused it.
type Error struct {
	Kind  error
	Name  string
	Field string
	Value string
	Err   error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case ErrNotFound:
		msg = fmt.Sprintf("unable to find configuration '%s'", e.Name)
	case ErrAlreadyExists:
		msg = fmt.Sprintf("a configuration named '%s' already exists. Use --force to overwrite it", e.Name)
	case ErrInvalidName:
		msg = fmt.Sprintf("'%s' is not a valid configuration name", e.Name)
	case ErrInvalidIdentifier:
		msg = fmt.Sprintf("'%s' is not a valid %s", e.Value, e.Field)
	case ErrInvalidValue:
		msg = fmt.Sprintf("invalid value %q for %s", e.Value, e.Field)
	case ErrMalformedFormat:
		if e.Name != "" {
			msg = fmt.Sprintf("malformed configuration file %s", e.Name)
		} else {
			msg = "malformed configuration data"
		}
	case ErrCannotDeleteActive:
		msg = fmt.Sprintf("unable to delete configuration '%s' because it is currently active", e.Name)
	case ErrNoActiveConfiguration:
		if e.Name != "" {
			msg = fmt.Sprintf("active configuration '%s' does not exist", e.Name)
		} else {
			msg = "no configuration is active"
		}
	case ErrStoreUnavailable:
		msg = fmt.Sprintf("configuration store unavailable at %s", e.Name)
	default:
		msg = "configuration error"
		if e.Kind != nil {
			msg = e.Kind.Error()
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NotFound reports that no configuration file exists for name.
func NotFound(name string) error {
	return &Error{Kind: ErrNotFound, Name: name}
}

// AlreadyExists reports a name collision under the fail policy.
func AlreadyExists(name string) error {
	return &Error{Kind: ErrAlreadyExists, Name: name}
}

// InvalidName rejects name for the given reason.
func InvalidName(name string, reason error) error {
	return &Error{Kind: ErrInvalidName, Name: name, Err: reason}
}

// InvalidIdentifier rejects a zone or region value.
func InvalidIdentifier(field, value string) error {
	return &Error{Kind: ErrInvalidIdentifier, Field: field, Value: value}
}

// InvalidValue rejects a project or account value that cannot be stored.
func InvalidValue(field, value string) error {
	return &Error{Kind: ErrInvalidValue, Field: field, Value: value}
}

// MalformedFormat reports configuration data that could not be decoded.
func MalformedFormat(cause error) error {
	return &Error{Kind: ErrMalformedFormat, Err: cause}
}

// CannotDeleteActive refuses to remove the configuration the pointer names.
func CannotDeleteActive(name string) error {
	return &Error{Kind: ErrCannotDeleteActive, Name: name}
}

// NoActiveConfiguration reports a missing pointer. name is the dangling
// pointer value, if any.
func NoActiveConfiguration(name string) error {
	return &Error{Kind: ErrNoActiveConfiguration, Name: name}
}

// StoreUnavailable reports a configuration root that cannot be used.
func StoreUnavailable(path string, cause error) error {
	return &Error{Kind: ErrStoreUnavailable, Name: path, Err: cause}
}

// WithName attaches a file name to a malformed-format error so diagnostics
// identify the file.
func WithName(err error, name string) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == ErrMalformedFormat && e.Name == "" {
		copied := *e
		copied.Name = name
		return &copied
	}
	return err
}
