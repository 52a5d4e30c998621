package docstore

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type transport int

const (
	transportSystem transport = iota
	transportHTTP
	transportWebDav
	transportHTTPProxy
)

var transportNames = NewEnumNames(map[transport]string{
	transportSystem:    "System",
	transportHTTP:      "Http",
	transportWebDav:    "WebDav",
	transportHTTPProxy: "HTTPProxy",
})

func (t transport) MarshalText() ([]byte, error)  { return transportNames.MarshalText(t) }
func (t *transport) UnmarshalText(b []byte) error { return transportNames.UnmarshalText(b, t) }

type endpoint struct {
	Name      string    `json:"name" yaml:"name"`
	Transport transport `json:"transport" yaml:"transport"`
	Fallbacks []string  `json:"fallbacks" yaml:"fallbacks"`
}

func TestJSONCodecKeepsTextLiteral(t *testing.T) {
	data, err := DefaultCodec.Encode(&endpoint{Name: "<翻译> & \"co\"", Transport: transportHTTP})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `<翻译> & \"co\"`) {
		t.Fatalf("expected literal characters, got %s", text)
	}
	if !strings.Contains(text, `"transport": "http"`) {
		t.Fatalf("expected enum by name, got %s", text)
	}
	if !strings.HasPrefix(text, "{\n  \"name\"") {
		t.Fatalf("expected two-space indent, got %s", text)
	}
}

func TestJSONCodecIsNull(t *testing.T) {
	cases := map[string]bool{
		"null":      true,
		"  null\n":  true,
		"{}":        false,
		`"null"`:    false,
		"nullable":  false,
		"[null]":    false,
	}
	for input, want := range cases {
		if got := DefaultCodec.IsNull([]byte(input)); got != want {
			t.Fatalf("IsNull(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestEnumNamesDecodeIgnoresCase(t *testing.T) {
	cases := []struct {
		input string
		want  transport
	}{
		{`"http"`, transportHTTP},
		{`"HTTP"`, transportHTTP},
		{`"webDav"`, transportWebDav},
		{`"WEBDAV"`, transportWebDav},
		{`"httpProxy"`, transportHTTPProxy},
		{`"2"`, transportWebDav},
	}
	for _, tc := range cases {
		var got transport
		if err := json.Unmarshal([]byte(tc.input), &got); err != nil {
			t.Fatalf("decode %s: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("decode %s = %d, want %d", tc.input, got, tc.want)
		}
	}

	var bad transport
	if err := json.Unmarshal([]byte(`"carrier-pigeon"`), &bad); err == nil {
		t.Fatalf("expected unknown name to fail")
	}
}

func TestEnumNamesEncodeCamelCase(t *testing.T) {
	cases := map[transport]string{
		transportSystem:    "system",
		transportHTTP:      "http",
		transportWebDav:    "webDav",
		transportHTTPProxy: "httpProxy",
		transport(99):      "99",
	}
	for value, want := range cases {
		if got := transportNames.Name(value); got != want {
			t.Fatalf("Name(%d) = %q, want %q", value, got, want)
		}
	}
}

func TestCamelCase(t *testing.T) {
	cases := map[string]string{
		"":          "",
		"URL":       "url",
		"Socks5":    "socks5",
		"IOStream":  "ioStream",
		"alreadyOk": "alreadyOk",
		"X":         "x",
	}
	for input, want := range cases {
		if got := CamelCase(input); got != want {
			t.Fatalf("CamelCase(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestYAMLCodecEngineRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e, err := New[endpoint](dir+"/Endpoint"+YAMLCodec{}.Extension(), WithCodec[endpoint](YAMLCodec{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	want := endpoint{Name: "primary", Transport: transportWebDav, Fallbacks: []string{"a", "b"}}
	e.Set(want)
	if err := e.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw := readFile(t, e.Location().Primary)
	if !strings.Contains(raw, "transport: webDav") {
		t.Fatalf("expected yaml enum name, got %s", raw)
	}

	fresh, err := New[endpoint](e.Location().Primary, WithCodec[endpoint](YAMLCodec{}))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if diff := cmp.Diff(want, fresh.Load()); diff != "" {
		t.Fatalf("yaml round trip (-want +got):\n%s", diff)
	}
}

func TestYAMLCodecNullAndCorrupt(t *testing.T) {
	codec := YAMLCodec{}
	for _, input := range []string{"~", "null", "---\n"} {
		if !codec.IsNull([]byte(input)) {
			t.Fatalf("expected %q to be null", input)
		}
	}
	var out endpoint
	if err := codec.Decode([]byte("name: [unterminated"), &out); err == nil {
		t.Fatalf("expected decode error")
	}
}
