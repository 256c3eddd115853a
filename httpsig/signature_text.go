package httpsig

import (
	"fmt"
	"strings"
)

// String renders the canonical p0f.fp textual form:
// version:horder:habsent:expsw
func (s Signature) String() string {
	var b strings.Builder

	b.WriteString(s.Version.String())
	b.WriteByte(':')
	for i, h := range s.HOrder {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(h.String())
	}
	b.WriteByte(':')
	for i, h := range s.HAbsent {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(h.String())
	}
	b.WriteByte(':')
	b.WriteString(s.ExpSW)

	return b.String()
}

// ParseSignature parses the canonical textual form of an HTTP signature.
func ParseSignature(s string) (Signature, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) != 4 {
		return Signature{}, fmt.Errorf("http signature %q: expected 4 colon-separated fields, got %d", s, len(parts))
	}

	version, err := ParseVersion(parts[0])
	if err != nil {
		return Signature{}, fmt.Errorf("http signature %q: %w", s, err)
	}

	if parts[1] == "" {
		return Signature{}, fmt.Errorf("http signature %q: header order must not be empty", s)
	}
	horder, err := parseHeaderList(parts[1])
	if err != nil {
		return Signature{}, fmt.Errorf("http signature %q: %w", s, err)
	}

	habsent, err := parseHeaderList(parts[2])
	if err != nil {
		return Signature{}, fmt.Errorf("http signature %q: %w", s, err)
	}

	return Signature{
		Version: version,
		HOrder:  horder,
		HAbsent: habsent,
		ExpSW:   parts[3],
	}, nil
}

func parseHeaderList(s string) ([]Header, error) {
	if s == "" {
		return nil, nil
	}
	tokens, err := splitHeaderTokens(s)
	if err != nil {
		return nil, err
	}
	headers := make([]Header, 0, len(tokens))
	for _, tok := range tokens {
		h, err := ParseHeader(tok)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}

// splitHeaderTokens splits a comma-separated header-pattern list on
// top-level commas only: a comma inside a "=[...]" literal value (which
// may itself contain commas or semicolons, per the grammar) does not
// start a new token.
func splitHeaderTokens(s string) ([]string, error) {
	var tokens []string
	start := 0
	inValue := false

	for i := 0; i < len(s); i++ {
		switch {
		case !inValue && i+1 < len(s) && s[i] == '=' && s[i+1] == '[':
			inValue = true
		case inValue && s[i] == ']':
			inValue = false
		case !inValue && s[i] == ',':
			tokens = append(tokens, s[start:i])
			start = i + 1
		}
	}
	if inValue {
		return nil, fmt.Errorf("header list %q: unterminated value, missing ]", s)
	}
	tokens = append(tokens, s[start:])

	return tokens, nil
}
