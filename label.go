package p0f

import (
	"fmt"
	"strings"
)

// LabelType distinguishes a label naming a specific, well-known fingerprint
// from one that is merely a best-effort generic guess.
type LabelType int

const (
	LabelSpecified LabelType = iota
	LabelGeneric
)

func (t LabelType) String() string {
	switch t {
	case LabelSpecified:
		return "s"
	case LabelGeneric:
		return "g"
	default:
		return "s"
	}
}

func parseLabelType(s string) (LabelType, error) {
	switch s {
	case "s":
		return LabelSpecified, nil
	case "g":
		return LabelGeneric, nil
	default:
		return 0, fmt.Errorf("bad label type %q", s)
	}
}

// Label identifies a database entry: an OS/application/device name, its
// class (win, unix, other, ...), and an optional version flavor.
type Label struct {
	Type   LabelType
	Class  *string
	Name   string
	Flavor *string
}

// String renders the canonical form: "{s|g}:{class|!}:name:flavor?".
func (l Label) String() string {
	var b strings.Builder
	b.WriteString(l.Type.String())
	b.WriteByte(':')
	if l.Class != nil {
		b.WriteString(*l.Class)
	} else {
		b.WriteByte('!')
	}
	b.WriteByte(':')
	b.WriteString(l.Name)
	b.WriteByte(':')
	if l.Flavor != nil {
		b.WriteString(*l.Flavor)
	}
	return b.String()
}

// ParseLabel parses the canonical textual form of a Label.
func ParseLabel(s string) (Label, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) != 4 {
		return Label{}, fmt.Errorf("label %q: expected 4 colon-separated fields, got %d", s, len(parts))
	}

	ty, err := parseLabelType(parts[0])
	if err != nil {
		return Label{}, fmt.Errorf("label %q: %w", s, err)
	}

	var class *string
	if parts[1] != "!" {
		c := parts[1]
		class = &c
	}

	name := parts[2]
	if name == "" {
		return Label{}, fmt.Errorf("label %q: empty name", s)
	}

	var flavor *string
	if parts[3] != "" {
		f := parts[3]
		flavor = &f
	}

	return Label{Type: ty, Class: class, Name: name, Flavor: flavor}, nil
}
