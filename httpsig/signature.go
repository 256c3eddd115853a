// Package httpsig defines the structural signature of the first HTTP
// request or response seen on a flow: header order, absent headers, and
// an expected substring of the User-Agent or Server header. It holds no
// HTTP parsing logic of its own — matching live traffic against a
// Signature is intentionally out of scope for this package.
//
// The package is named httpsig, not http, to avoid shadowing the standard
// library's net/http when both are imported by a caller.
package httpsig

import (
	"fmt"
	"strings"
)

// Version is the HTTP version a signature applies to, or a wildcard.
type Version int

const (
	V10 Version = iota
	V11
	VAny
)

// String renders the version token: "0", "1", or "*".
func (v Version) String() string {
	switch v {
	case V10:
		return "0"
	case V11:
		return "1"
	default:
		return "*"
	}
}

// ParseVersion parses the version token.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "0":
		return V10, nil
	case "1":
		return V11, nil
	case "*":
		return VAny, nil
	default:
		return 0, fmt.Errorf("bad http version %q", s)
	}
}

// Header is a single header pattern: an optional presence marker, a name,
// and an optional literal value.
type Header struct {
	Optional bool
	Name     string
	Value    *string
}

// NewHeader builds a required header pattern with no value constraint.
func NewHeader(name string) Header { return Header{Name: name} }

// WithValue returns a copy of h constrained to the given literal value.
func (h Header) WithValue(value string) Header {
	h.Value = &value
	return h
}

// AsOptional returns a copy of h marked optional.
func (h Header) AsOptional() Header {
	h.Optional = true
	return h
}

// String renders a header pattern: "[?]name[=[value]]".
func (h Header) String() string {
	var b strings.Builder
	if h.Optional {
		b.WriteByte('?')
	}
	b.WriteString(h.Name)
	if h.Value != nil {
		b.WriteString("=[")
		b.WriteString(*h.Value)
		b.WriteByte(']')
	}
	return b.String()
}

// ParseHeader parses a single header pattern.
func ParseHeader(s string) (Header, error) {
	optional := false
	if strings.HasPrefix(s, "?") {
		optional = true
		s = s[1:]
	}

	name := s
	var value *string
	if idx := strings.Index(s, "=["); idx >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Header{}, fmt.Errorf("bad header %q: missing closing ]", s)
		}
		name = s[:idx]
		v := s[idx+2 : len(s)-1]
		value = &v
	}
	if name == "" {
		return Header{}, fmt.Errorf("bad header %q: empty name", s)
	}

	return Header{Optional: optional, Name: name, Value: value}, nil
}

// Signature is the structural summary of an HTTP request or response.
type Signature struct {
	Version Version
	HOrder  []Header
	HAbsent []Header
	ExpSW   string
}
