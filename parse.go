package p0f

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/netprobe/p0f/httpsig"
	"github.com/netprobe/p0f/tcp"
)

// section identifies the module/direction a line-oriented record is
// currently being accumulated under.
type section struct {
	module    string
	direction string // "" for mtu, which has no direction
}

// LoadDatabase parses the p0f.fp textual grammar into a Database. It is a
// pure function of its input: a single pass over the lines, mirroring the
// scanner in the upstream Rust crate's Database::from_str, with one
// current-section variable and one dispatch per recognized leading token.
// Structural errors (a sig before any label, a line outside any section)
// abort the load; unknown named values inside a known section, and
// label/sig lines inside an unrecognized module, are recorded in
// Database.Diagnostics rather than treated as errors.
func LoadDatabase(text string) (*Database, error) {
	db := &Database{}
	var cur *section

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)

		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "classes"):
			names, err := parseAssignmentList(line, "classes")
			if err != nil {
				return nil, &MalformedInputError{Line: line, LineNo: lineNo, Err: err}
			}
			db.Classes = append(db.Classes, names...)

		case strings.HasPrefix(line, "ua_os"):
			entries, err := parseUAOS(line)
			if err != nil {
				return nil, &MalformedInputError{Line: line, LineNo: lineNo, Err: err}
			}
			db.UAOS = append(db.UAOS, entries...)

		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			s, err := parseSectionHeader(line)
			if err != nil {
				return nil, &MalformedInputError{Line: line, LineNo: lineNo, Err: err}
			}
			cur = s

		case cur != nil:
			name, value, err := splitNamedValue(line)
			if err != nil {
				return nil, &MalformedInputError{Line: line, LineNo: lineNo, Err: err}
			}
			if err := dispatchNamedValue(db, *cur, name, value, lineNo); err != nil {
				return nil, err
			}

		default:
			return nil, &StructuralError{Line: line, LineNo: lineNo, Reason: "line outside any [module] section"}
		}
	}

	return db, nil
}

func parseSectionHeader(line string) (*section, error) {
	inner := line[1 : len(line)-1]
	parts := strings.SplitN(inner, ":", 2)
	s := &section{module: parts[0]}
	if len(parts) == 2 {
		s.direction = parts[1]
	}
	if s.module == "" {
		return nil, fmt.Errorf("empty module name in %q", line)
	}
	return s, nil
}

func splitNamedValue(line string) (name, value string, err error) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", fmt.Errorf("expected name=value, got %q", line)
	}
	name = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if name == "" {
		return "", "", fmt.Errorf("empty name in %q", line)
	}
	return name, value, nil
}

func parseAssignmentList(line, keyword string) ([]string, error) {
	_, value, err := splitNamedValue(line)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.TrimSpace(line), keyword) {
		return nil, fmt.Errorf("expected %q assignment, got %q", keyword, line)
	}
	var out []string
	for _, tok := range strings.Split(value, ",") {
		out = append(out, strings.TrimSpace(tok))
	}
	return out, nil
}

func parseUAOS(line string) ([]UAOSEntry, error) {
	_, value, err := splitNamedValue(line)
	if err != nil {
		return nil, err
	}
	var out []UAOSEntry
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if eq := strings.Index(tok, "="); eq >= 0 {
			ua := tok[:eq]
			os := tok[eq+1:]
			out = append(out, UAOSEntry{UA: ua, OS: &os})
		} else {
			out = append(out, UAOSEntry{UA: tok})
		}
	}
	return out, nil
}

// diagnose records a non-fatal loader finding: an unknown named value in a
// recognized section, or a label/sig line inside an unrecognized module.
// These are warnings, not errors, so the load continues, but the caller
// can still inspect Database.Diagnostics afterward.
func diagnose(db *Database, lineNo int, msg string) {
	db.Diagnostics = append(db.Diagnostics, fmt.Sprintf("line %d: %s", lineNo, msg))
}

// dispatchNamedValue handles a label/sig/sys line within the current
// section, mutating db's accumulators. Unknown modules and unknown named
// values are skipped, not errors, matching the Rust loader's warn-and-skip
// behavior; the skip itself is recorded via diagnose.
func dispatchNamedValue(db *Database, cur section, name, value string, lineNo int) error {
	if cur.module == "mtu" {
		switch name {
		case "label":
			db.MTU = append(db.MTU, MTUEntry{Label: value})
			return nil
		case "sig":
			if len(db.MTU) == 0 {
				return &StructuralError{Line: name + "=" + value, LineNo: lineNo, Reason: "`mtu` sig without preceding label"}
			}
			mtus, err := parseMTUList(value)
			if err != nil {
				return &MalformedInputError{Line: value, LineNo: lineNo, Err: err}
			}
			last := &db.MTU[len(db.MTU)-1]
			last.MTUs = append(last.MTUs, mtus...)
			return nil
		default:
			diagnose(db, lineNo, fmt.Sprintf("skip unknown named value %q in [mtu]", name))
			return nil
		}
	}

	switch name {
	case "label":
		switch cur {
		case section{module: "tcp", direction: "request"}, section{module: "tcp", direction: "response"},
			section{module: "http", direction: "request"}, section{module: "http", direction: "response"}:
		default:
			diagnose(db, lineNo, fmt.Sprintf("skip `label` in unknown module [%s:%s]: %s", cur.module, cur.direction, value))
			return nil
		}
		lbl, err := ParseLabel(value)
		if err != nil {
			return &MalformedInputError{Line: value, LineNo: lineNo, Err: err}
		}
		switch cur {
		case section{module: "tcp", direction: "request"}:
			db.TCPRequest = append(db.TCPRequest, TCPEntry{Label: lbl})
		case section{module: "tcp", direction: "response"}:
			db.TCPResponse = append(db.TCPResponse, TCPEntry{Label: lbl})
		case section{module: "http", direction: "request"}:
			db.HTTPRequest = append(db.HTTPRequest, HTTPEntry{Label: lbl})
		case section{module: "http", direction: "response"}:
			db.HTTPResponse = append(db.HTTPResponse, HTTPEntry{Label: lbl})
		}
		return nil

	case "sig":
		switch cur {
		case section{module: "tcp", direction: "request"}:
			if len(db.TCPRequest) == 0 {
				return &StructuralError{Line: "sig=" + value, LineNo: lineNo, Reason: "tcp request sig without preceding label"}
			}
			sig, err := tcp.ParseSignature(value)
			if err != nil {
				return &MalformedInputError{Line: value, LineNo: lineNo, Err: err}
			}
			last := &db.TCPRequest[len(db.TCPRequest)-1]
			last.Signatures = append(last.Signatures, sig)
		case section{module: "tcp", direction: "response"}:
			if len(db.TCPResponse) == 0 {
				return &StructuralError{Line: "sig=" + value, LineNo: lineNo, Reason: "tcp response sig without preceding label"}
			}
			sig, err := tcp.ParseSignature(value)
			if err != nil {
				return &MalformedInputError{Line: value, LineNo: lineNo, Err: err}
			}
			last := &db.TCPResponse[len(db.TCPResponse)-1]
			last.Signatures = append(last.Signatures, sig)
		case section{module: "http", direction: "request"}:
			if len(db.HTTPRequest) == 0 {
				return &StructuralError{Line: "sig=" + value, LineNo: lineNo, Reason: "http request sig without preceding label"}
			}
			sig, err := httpsig.ParseSignature(value)
			if err != nil {
				return &MalformedInputError{Line: value, LineNo: lineNo, Err: err}
			}
			last := &db.HTTPRequest[len(db.HTTPRequest)-1]
			last.Signatures = append(last.Signatures, sig)
		case section{module: "http", direction: "response"}:
			if len(db.HTTPResponse) == 0 {
				return &StructuralError{Line: "sig=" + value, LineNo: lineNo, Reason: "http response sig without preceding label"}
			}
			sig, err := httpsig.ParseSignature(value)
			if err != nil {
				return &MalformedInputError{Line: value, LineNo: lineNo, Err: err}
			}
			last := &db.HTTPResponse[len(db.HTTPResponse)-1]
			last.Signatures = append(last.Signatures, sig)
		default:
			diagnose(db, lineNo, fmt.Sprintf("skip `sig` in unknown module [%s:%s]: %s", cur.module, cur.direction, value))
		}
		return nil

	case "sys":
		return nil // accepted but ignored outside mtu

	default:
		diagnose(db, lineNo, fmt.Sprintf("skip unknown named value %q", name))
		return nil
	}
}

func parseMTUList(value string) ([]int, error) {
	var out []int
	for _, tok := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, fmt.Errorf("bad mtu value %q: %w", tok, err)
		}
		out = append(out, n)
	}
	return out, nil
}
