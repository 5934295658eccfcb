package properties

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/example/gcloud-ctx/internal/gctx/domain"
)

var (
	errEmptySection = errors.New("empty section name")
	errContinuation = errors.New("continuation line for a single-valued property")
)

// homeSections maps each supported key to the gcloud section it lives in.
// A key is recognized in its home section or before any section header.
var homeSections = map[string]string{
	FieldProject: SectionCore,
	FieldAccount: SectionCore,
	FieldZone:    SectionCompute,
	FieldRegion:  SectionCompute,
}

// loadOptions follow the configparser dialect gcloud writes: indented lines
// continue the previous value, and neither inline comments, trailing
// backslashes nor surrounding quotes are special.
var loadOptions = ini.LoadOptions{
	InsensitiveKeys:            true,
	AllowPythonMultilineValues: true,
	IgnoreContinuation:         true,
	IgnoreInlineComment:        true,
	PreserveSurroundedQuote:    true,
	KeyValueDelimiters:         "=:",
}

// Parse decodes a configuration file.
//
// The format is line oriented: `key = value` pairs, optional `[section]`
// headers, and comment lines starting with `#` or `;`. Keys other than
// project, account, zone and region are ignored, as are indented
// continuation lines that belong to them. Input that cannot be tokenized
// fails with domain.ErrMalformedFormat.
func Parse(data []byte) (Properties, error) {
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return Properties{}, domain.MalformedFormat(err)
	}

	var b Builder
	for _, section := range file.Sections() {
		name := section.Name()
		switch {
		case name == ini.DefaultSection:
			name = ""
		case strings.TrimSpace(name) == "":
			return Properties{}, domain.MalformedFormat(errEmptySection)
		}
		for _, key := range section.Keys() {
			if !recognized(name, key.Name()) {
				continue
			}
			if err := set(&b, key.Name(), key.Value()); err != nil {
				return Properties{}, domain.MalformedFormat(err)
			}
		}
	}
	return b.Build()
}

// Read decodes a configuration file from r. See Parse.
func Read(r io.Reader) (Properties, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Properties{}, fmt.Errorf("read configuration: %w", err)
	}
	return Parse(data)
}

func recognized(section, key string) bool {
	home, ok := homeSections[key]
	if !ok {
		return false
	}
	return section == "" || section == home
}

// set validates one value eagerly so the failure names the offending field.
func set(b *Builder, key, value string) error {
	if strings.ContainsRune(value, '\n') {
		return fmt.Errorf("%s: %w", key, errContinuation)
	}
	switch key {
	case FieldProject:
		b.Project(value)
	case FieldAccount:
		b.Account(value)
	case FieldZone:
		if _, err := ParseZone(value); err != nil {
			return err
		}
		b.Zone(value)
	case FieldRegion:
		if _, err := ParseRegion(value); err != nil {
			return err
		}
		b.Region(value)
	}
	return nil
}

// Serialize encodes p in the gcloud file layout. Only present fields are
// written, in the order project, account, zone, region; a section header
// is written only when one of its fields is present. Sections are separated
// by one blank line and keys are not padded, matching what gcloud writes.
func Serialize(p Properties) []byte {
	var buf bytes.Buffer
	// bytes.Buffer never returns a write error.
	_ = Write(&buf, p)
	return buf.Bytes()
}

// Write encodes p to w. See Serialize.
func Write(w io.Writer, p Properties) error {
	bw := bufio.NewWriter(w)

	core := p.project != nil || p.account != nil
	compute := p.zone != nil || p.region != nil

	if core {
		fmt.Fprintf(bw, "[%s]\n", SectionCore)
		if p.project != nil {
			fmt.Fprintf(bw, "%s = %s\n", FieldProject, *p.project)
		}
		if p.account != nil {
			fmt.Fprintf(bw, "%s = %s\n", FieldAccount, *p.account)
		}
	}
	if compute {
		if core {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "[%s]\n", SectionCompute)
		if p.zone != nil {
			fmt.Fprintf(bw, "%s = %s\n", FieldZone, p.zone.String())
		}
		if p.region != nil {
			fmt.Fprintf(bw, "%s = %s\n", FieldRegion, p.region.String())
		}
	}
	return bw.Flush()
}
