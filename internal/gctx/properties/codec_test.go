package properties

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/example/gcloud-ctx/internal/gctx/domain"
)

func mustBuild(t *testing.T, b *Builder) Properties {
	t.Helper()
	props, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return props
}

func TestSerialize_Layout(t *testing.T) {
	props := mustBuild(t, NewBuilder().
		Region("europe-west1").
		Zone("europe-west1-d").
		Account("a.user@example.org").
		Project("my-project"))

	want := "[core]\n" +
		"project = my-project\n" +
		"account = a.user@example.org\n" +
		"\n" +
		"[compute]\n" +
		"zone = europe-west1-d\n" +
		"region = europe-west1\n"

	if got := string(Serialize(props)); got != want {
		t.Fatalf("unexpected serialization:\n%s\nwant:\n%s", got, want)
	}
}

func TestSerialize_OmitsAbsentFields(t *testing.T) {
	tests := []struct {
		name  string
		props Properties
		want  string
	}{
		{"empty", Properties{}, ""},
		{"project only", mustBuild(t, NewBuilder().Project("p1")), "[core]\nproject = p1\n"},
		{"zone only", mustBuild(t, NewBuilder().Zone("us-east4-a")), "[compute]\nzone = us-east4-a\n"},
		{"account and region", mustBuild(t, NewBuilder().Account("me@example.org").Region("us-east4")),
			"[core]\naccount = me@example.org\n\n[compute]\nregion = us-east4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Serialize(tt.props)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	cases := map[string]*Builder{
		"empty":         NewBuilder(),
		"project":       NewBuilder().Project("p1"),
		"empty project": NewBuilder().Project(""),
		"core":          NewBuilder().Project("p1").Account("me@example.org"),
		"compute":       NewBuilder().Zone("us-central1-f").Region("us-central1"),
		"mismatched":    NewBuilder().Zone("us-central1-f").Region("europe-west1"),
		"all": NewBuilder().Project("my-project").Account("a.user@example.org").
			Zone("europe-west1-d").Region("europe-west1"),
		"value with equals": NewBuilder().Project("a=b"),
	}

	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			props := mustBuild(t, b)
			parsed, err := Parse(Serialize(props))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !parsed.Equal(props) {
				t.Fatalf("round trip mismatch: %q", Serialize(parsed))
			}
		})
	}
}

func TestParse_GcloudFile(t *testing.T) {
	input := "[core]\n" +
		"account = a.user@example.org\n" +
		"project = my-project\n" +
		"disable_usage_reporting = True\n" +
		"\n" +
		"[compute]\n" +
		"zone = europe-west1-d\n" +
		"region = europe-west1\n" +
		"\n" +
		"[auth]\n" +
		"credential_file_override = /tmp/key.json\n"

	props, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := mustBuild(t, NewBuilder().Project("my-project").Account("a.user@example.org").
		Zone("europe-west1-d").Region("europe-west1"))
	if !props.Equal(want) {
		t.Fatalf("unexpected properties: %q", Serialize(props))
	}
}

func TestParse_ImplicitSection(t *testing.T) {
	input := "# comment\n; another comment\n\nproject = p1\nzone=us-east4-a\n"

	props, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := props.Project(); !ok || v != "p1" {
		t.Errorf("project = %q, %v", v, ok)
	}
	if v, ok := props.Zone(); !ok || v.String() != "us-east4-a" {
		t.Errorf("zone = %q, %v", v, ok)
	}
	if _, ok := props.Account(); ok {
		t.Error("account should be absent")
	}
}

func TestParse_TolerantInputs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only comments", "# nothing here\n;\n"},
		{"crlf line endings", "[core]\r\nproject = p1\r\n"},
		{"unknown key", "[core]\nverbosity = debug\n"},
		{"colon delimiter", "[core]\nproject: p1\n"},
		{"uppercase key", "[core]\nPROJECT = p1\n"},
		{"continuation of unknown key", "[core]\ncustom_ca_certs_file = a\n  b\n"},
		{"recognized key in foreign section", "[auth]\nproject = not-core\n"},
		{"inline hash kept in value", "[core]\naccount = me#1@example.org\n"},
		{"trailing backslash", "[core]\nproject = p1\\\nzone = us-east4-a\n"},
		{"empty section", "[core]\n[compute]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
		})
	}
}

func TestParse_ForeignSectionIgnored(t *testing.T) {
	props, err := Parse([]byte("[auth]\nproject = not-core\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !props.IsEmpty() {
		t.Fatalf("expected no properties, got %q", Serialize(props))
	}
}

func TestParse_LastValueWins(t *testing.T) {
	props, err := Parse([]byte("[core]\nproject = first\nproject = second\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, _ := props.Project(); v != "second" {
		t.Fatalf("expected second, got %q", v)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing delimiter", "[core]\nproject\n"},
		{"unterminated section", "[core\nproject = p\n"},
		{"empty section name", "[ ]\n"},
		{"empty key", "= value\n"},
		{"leading continuation", "  orphan\n"},
		{"continuation of project", "[core]\nproject = a\n  b\n"},
		{"invalid zone", "[compute]\nzone = Europe West1\n"},
		{"invalid region", "\n\n[compute]\nregion = europe-west1-d\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if !errors.Is(err, domain.ErrMalformedFormat) {
				t.Fatalf("expected ErrMalformedFormat, got %v", err)
			}
			var typed *domain.Error
			if !errors.As(err, &typed) {
				t.Fatalf("expected *domain.Error, got %T", err)
			}
		})
	}
}

func TestParse_LongUnknownLine(t *testing.T) {
	input := "[core]\nproject = p1\n" +
		"custom_ca_certs_file = " + strings.Repeat("x", 128*1024) + "\n" +
		"\n[compute]\nregion = europe-west10\n"

	props, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := mustBuild(t, NewBuilder().Project("p1").Region("europe-west10"))
	if !props.Equal(want) {
		t.Fatalf("unexpected properties: %q", Serialize(props))
	}
}

func TestRead_MatchesParse(t *testing.T) {
	input := "[compute]\nzone = europe-west10-a\n"
	props, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if z, ok := props.Zone(); !ok || z.String() != "europe-west10-a" {
		t.Fatalf("zone = %q, %v", z, ok)
	}
}

func TestParse_InvalidIdentifierIsWrapped(t *testing.T) {
	_, err := Parse([]byte("[compute]\nzone = nowhere\n"))
	if !errors.Is(err, domain.ErrInvalidIdentifier) {
		t.Fatalf("expected wrapped ErrInvalidIdentifier, got %v", err)
	}
	if !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("expected message to name the value, got %q", err.Error())
	}
}

func TestWrite_MatchesSerialize(t *testing.T) {
	props := mustBuild(t, NewBuilder().Project("p1").Region("us-east4"))
	var buf bytes.Buffer
	if err := Write(&buf, props); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), Serialize(props)) {
		t.Fatalf("Write and Serialize disagree: %q vs %q", buf.Bytes(), Serialize(props))
	}
}
