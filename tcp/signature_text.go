package tcp

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the canonical p0f.fp textual form of a signature:
// version:ittl:olen:mss:wsize,wscale:olayout:quirks:pclass
func (s Signature) String() string {
	var b strings.Builder

	b.WriteString(s.Version.String())
	b.WriteByte(':')
	b.WriteString(s.ITTL.String())
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(s.OLen)))
	b.WriteByte(':')
	if s.MSS != nil {
		b.WriteString(strconv.Itoa(int(*s.MSS)))
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')
	b.WriteString(s.WSize.String())
	b.WriteByte(',')
	if s.WScale != nil {
		b.WriteString(strconv.Itoa(int(*s.WScale)))
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')
	for i, o := range s.OLayout {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(o.String())
	}
	b.WriteByte(':')
	for i, q := range s.Quirks {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(q.String())
	}
	b.WriteByte(':')
	b.WriteString(s.PClass.String())

	return b.String()
}

// ParseSignature parses the canonical textual form of a TCP signature.
func ParseSignature(s string) (Signature, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 8 {
		return Signature{}, fmt.Errorf("tcp signature %q: expected 8 colon-separated fields, got %d", s, len(parts))
	}

	version, err := ParseIPVersion(parts[0])
	if err != nil {
		return Signature{}, fmt.Errorf("tcp signature %q: %w", s, err)
	}

	ittl, err := ParseTTL(parts[1])
	if err != nil {
		return Signature{}, fmt.Errorf("tcp signature %q: %w", s, err)
	}

	olen, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Signature{}, fmt.Errorf("tcp signature %q: bad olen %q: %w", s, parts[2], err)
	}

	var mss *uint16
	if parts[3] != "*" {
		n, err := strconv.ParseUint(parts[3], 10, 16)
		if err != nil {
			return Signature{}, fmt.Errorf("tcp signature %q: bad mss %q: %w", s, parts[3], err)
		}
		v := uint16(n)
		mss = &v
	}

	wsizeScale := strings.SplitN(parts[4], ",", 2)
	if len(wsizeScale) != 2 {
		return Signature{}, fmt.Errorf("tcp signature %q: expected wsize,wscale, got %q", s, parts[4])
	}

	wsize, err := ParseWindowSize(wsizeScale[0])
	if err != nil {
		return Signature{}, fmt.Errorf("tcp signature %q: %w", s, err)
	}

	var wscale *uint8
	if wsizeScale[1] != "*" {
		n, err := strconv.ParseUint(wsizeScale[1], 10, 8)
		if err != nil {
			return Signature{}, fmt.Errorf("tcp signature %q: bad wscale %q: %w", s, wsizeScale[1], err)
		}
		v := uint8(n)
		wscale = &v
	}

	if parts[5] == "" {
		return Signature{}, fmt.Errorf("tcp signature %q: option layout must not be empty", s)
	}
	olayout := make([]Option, 0, 4)
	for _, tok := range strings.Split(parts[5], ",") {
		opt, err := ParseOption(tok)
		if err != nil {
			return Signature{}, fmt.Errorf("tcp signature %q: %w", s, err)
		}
		olayout = append(olayout, opt)
	}

	var quirks []Quirk
	if parts[6] != "" {
		quirks = make([]Quirk, 0, 4)
		for _, tok := range strings.Split(parts[6], ",") {
			q, err := ParseQuirk(tok)
			if err != nil {
				return Signature{}, fmt.Errorf("tcp signature %q: %w", s, err)
			}
			quirks = append(quirks, q)
		}
	}

	pclass, err := ParsePayloadClass(parts[7])
	if err != nil {
		return Signature{}, fmt.Errorf("tcp signature %q: %w", s, err)
	}

	return Signature{
		Version: version,
		ITTL:    ittl,
		OLen:    uint8(olen),
		MSS:     mss,
		WSize:   wsize,
		WScale:  wscale,
		OLayout: olayout,
		Quirks:  quirks,
		PClass:  pclass,
	}, nil
}

// String renders the IP version token: "4", "6", or "*".
func (v IPVersion) String() string {
	switch v {
	case IPv4:
		return "4"
	case IPv6:
		return "6"
	default:
		return "*"
	}
}

// ParseIPVersion parses an IP version token.
func ParseIPVersion(s string) (IPVersion, error) {
	switch s {
	case "4":
		return IPv4, nil
	case "6":
		return IPv6, nil
	case "*":
		return IPAny, nil
	default:
		return 0, fmt.Errorf("bad ip version %q", s)
	}
}

// String renders the TTL grammar: "n", "n+d", "n+?", or "n-".
func (t TTL) String() string {
	switch t.Kind {
	case TTLDistanceKind:
		return fmt.Sprintf("%d+%d", t.Value, t.Distance)
	case TTLGuessKind:
		return fmt.Sprintf("%d+?", t.Value)
	case TTLBadKind:
		return fmt.Sprintf("%d-", t.Value)
	default:
		return strconv.Itoa(int(t.Value))
	}
}

// ParseTTL parses the TTL grammar.
func ParseTTL(s string) (TTL, error) {
	switch {
	case strings.HasSuffix(s, "-"):
		n, err := strconv.ParseUint(strings.TrimSuffix(s, "-"), 10, 8)
		if err != nil {
			return TTL{}, fmt.Errorf("bad ttl %q: %w", s, err)
		}
		return BadTTL(uint8(n)), nil

	case strings.HasSuffix(s, "+?"):
		n, err := strconv.ParseUint(strings.TrimSuffix(s, "+?"), 10, 8)
		if err != nil {
			return TTL{}, fmt.Errorf("bad ttl %q: %w", s, err)
		}
		return GuessTTL(uint8(n)), nil

	case strings.Contains(s, "+"):
		idx := strings.IndexByte(s, '+')
		n, err := strconv.ParseUint(s[:idx], 10, 8)
		if err != nil {
			return TTL{}, fmt.Errorf("bad ttl %q: %w", s, err)
		}
		d, err := strconv.ParseUint(s[idx+1:], 10, 8)
		if err != nil {
			return TTL{}, fmt.Errorf("bad ttl %q: %w", s, err)
		}
		return DistanceTTL(uint8(n), uint8(d)), nil

	default:
		n, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return TTL{}, fmt.Errorf("bad ttl %q: %w", s, err)
		}
		return ValueTTL(uint8(n)), nil
	}
}

// String renders the window-size grammar: "mss*n", "mtu*n", "%m", "n", "*".
func (w WindowSize) String() string {
	switch w.Kind {
	case WSizeMSS:
		return fmt.Sprintf("mss*%d", w.N)
	case WSizeMTU:
		return fmt.Sprintf("mtu*%d", w.N)
	case WSizeMod:
		return fmt.Sprintf("%%%d", w.N)
	case WSizeAny:
		return "*"
	default:
		return strconv.FormatUint(uint64(w.N), 10)
	}
}

// ParseWindowSize parses the window-size grammar.
func ParseWindowSize(s string) (WindowSize, error) {
	switch {
	case s == "*":
		return AnyWindow(), nil
	case strings.HasPrefix(s, "mss*"):
		n, err := strconv.ParseUint(strings.TrimPrefix(s, "mss*"), 10, 32)
		if err != nil {
			return WindowSize{}, fmt.Errorf("bad window size %q: %w", s, err)
		}
		return MSSWindow(uint32(n)), nil
	case strings.HasPrefix(s, "mtu*"):
		n, err := strconv.ParseUint(strings.TrimPrefix(s, "mtu*"), 10, 32)
		if err != nil {
			return WindowSize{}, fmt.Errorf("bad window size %q: %w", s, err)
		}
		return MTUWindow(uint32(n)), nil
	case strings.HasPrefix(s, "%"):
		n, err := strconv.ParseUint(strings.TrimPrefix(s, "%"), 10, 32)
		if err != nil {
			return WindowSize{}, fmt.Errorf("bad window size %q: %w", s, err)
		}
		return ModWindow(uint32(n)), nil
	default:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return WindowSize{}, fmt.Errorf("bad window size %q: %w", s, err)
		}
		return ValueWindow(uint32(n)), nil
	}
}

// String renders a single option-layout token.
func (o Option) String() string {
	switch o.Kind {
	case OptEOL:
		return fmt.Sprintf("eol+%d", o.N)
	case OptNOP:
		return "nop"
	case OptMSS:
		return "mss"
	case OptWS:
		return "ws"
	case OptSOK:
		return "sok"
	case OptSACK:
		return "sack"
	case OptTS:
		return "ts"
	default:
		return fmt.Sprintf("?%d", o.N)
	}
}

// ParseOption parses a single option-layout token.
func ParseOption(s string) (Option, error) {
	switch {
	case strings.HasPrefix(s, "eol+"):
		n, err := strconv.ParseUint(strings.TrimPrefix(s, "eol+"), 10, 8)
		if err != nil {
			return Option{}, fmt.Errorf("bad option %q: %w", s, err)
		}
		return Option{Kind: OptEOL, N: uint8(n)}, nil
	case s == "nop":
		return Option{Kind: OptNOP}, nil
	case s == "mss":
		return Option{Kind: OptMSS}, nil
	case s == "ws":
		return Option{Kind: OptWS}, nil
	case s == "sok":
		return Option{Kind: OptSOK}, nil
	case s == "sack":
		return Option{Kind: OptSACK}, nil
	case s == "ts":
		return Option{Kind: OptTS}, nil
	case strings.HasPrefix(s, "?"):
		n, err := strconv.ParseUint(strings.TrimPrefix(s, "?"), 10, 8)
		if err != nil {
			return Option{}, fmt.Errorf("bad option %q: %w", s, err)
		}
		return Option{Kind: OptUnknown, N: uint8(n)}, nil
	default:
		return Option{}, fmt.Errorf("bad option %q", s)
	}
}

// String renders the quirk's canonical token.
func (q Quirk) String() string {
	switch q {
	case QuirkDF:
		return "df"
	case QuirkDFWithID:
		return "id+"
	case QuirkDFWithoutID:
		return "id-"
	case QuirkECN:
		return "ecn"
	case QuirkMustBeZero:
		return "0+"
	case QuirkFlowID:
		return "flow"
	case QuirkSeqNumZero:
		return "seq-"
	case QuirkAckNumNonZero:
		return "ack+"
	case QuirkAckNumZero:
		return "ack-"
	case QuirkURGPtr:
		return "uptr+"
	case QuirkURGFlag:
		return "urgf+"
	case QuirkPushFlag:
		return "pushf+"
	case QuirkOwnTimestampZero:
		return "ts1-"
	case QuirkPeerTimestampNonZero:
		return "ts2+"
	case QuirkTrailingNonZero:
		return "opt+"
	case QuirkExcessiveWindowScaling:
		return "exws"
	case QuirkBad:
		return "bad"
	default:
		return "?"
	}
}

var quirkByToken = map[string]Quirk{
	"df":     QuirkDF,
	"id+":    QuirkDFWithID,
	"id-":    QuirkDFWithoutID,
	"ecn":    QuirkECN,
	"0+":     QuirkMustBeZero,
	"flow":   QuirkFlowID,
	"seq-":   QuirkSeqNumZero,
	"ack+":   QuirkAckNumNonZero,
	"ack-":   QuirkAckNumZero,
	"uptr+":  QuirkURGPtr,
	"urgf+":  QuirkURGFlag,
	"pushf+": QuirkPushFlag,
	"ts1-":   QuirkOwnTimestampZero,
	"ts2+":   QuirkPeerTimestampNonZero,
	"opt+":   QuirkTrailingNonZero,
	"exws":   QuirkExcessiveWindowScaling,
	"bad":    QuirkBad,
}

// ParseQuirk parses a single quirk token.
func ParseQuirk(s string) (Quirk, error) {
	q, ok := quirkByToken[s]
	if !ok {
		return 0, fmt.Errorf("bad quirk %q", s)
	}
	return q, nil
}

// String renders the payload-class token: "0", "+", or "*".
func (p PayloadClass) String() string {
	switch p {
	case PayloadZero:
		return "0"
	case PayloadNonZero:
		return "+"
	default:
		return "*"
	}
}

// ParsePayloadClass parses the payload-class token.
func ParsePayloadClass(s string) (PayloadClass, error) {
	switch s {
	case "0":
		return PayloadZero, nil
	case "+":
		return PayloadNonZero, nil
	case "*":
		return PayloadAny, nil
	default:
		return 0, fmt.Errorf("bad payload class %q", s)
	}
}
