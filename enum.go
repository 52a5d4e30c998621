package docstore

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// EnumNames maps the values of an integer enum to stable names. Enum types
// implement encoding.TextMarshaler and encoding.TextUnmarshaler through it
// so documents store names instead of ordinals:
//
//	var proxyTypeNames = docstore.NewEnumNames(map[ProxyType]string{
//		ProxyTypeSystem: "System",
//		ProxyTypeHTTP:   "Http",
//	})
//
//	func (p ProxyType) MarshalText() ([]byte, error) { return proxyTypeNames.MarshalText(p) }
//	func (p *ProxyType) UnmarshalText(b []byte) error { return proxyTypeNames.UnmarshalText(b, p) }
type EnumNames[E ~int] struct {
	names  map[E]string
	values map[string]E
}

// NewEnumNames builds the lookup tables. Names are written in camelCase and
// matched case-insensitively when read.
func NewEnumNames[E ~int](names map[E]string) *EnumNames[E] {
	n := &EnumNames[E]{
		names:  make(map[E]string, len(names)),
		values: make(map[string]E, len(names)),
	}
	for value, name := range names {
		n.names[value] = CamelCase(name)
		n.values[strings.ToLower(name)] = value
	}
	return n
}

// Name returns the encoded name of v, or its decimal form when unnamed.
func (n *EnumNames[E]) Name(v E) string {
	if name, ok := n.names[v]; ok {
		return name
	}
	return strconv.Itoa(int(v))
}

// MarshalText encodes v by name.
func (n *EnumNames[E]) MarshalText(v E) ([]byte, error) {
	return []byte(n.Name(v)), nil
}

// UnmarshalText decodes a name, ignoring case, or a decimal ordinal.
func (n *EnumNames[E]) UnmarshalText(text []byte, dst *E) error {
	raw := strings.TrimSpace(string(text))
	if value, ok := n.values[strings.ToLower(raw)]; ok {
		*dst = value
		return nil
	}
	if ordinal, err := strconv.Atoi(raw); err == nil {
		*dst = E(ordinal)
		return nil
	}
	return fmt.Errorf("docstore: unknown enum name %q", raw)
}

// CamelCase lowercases the leading run of upper-case letters of s, keeping
// the last one upper-case when it starts the next word: "WebDav" becomes
// "webDav", "HTTPProxy" becomes "httpProxy" and "URL" becomes "url".
func CamelCase(s string) string {
	runes := []rune(s)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
