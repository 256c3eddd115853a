package tcp

import "testing"

func u16(n uint16) *uint16 { return &n }
func u8(n uint8) *uint8    { return &n }

// Signature fixtures are taken from flier/rust-p0f's parse.rs test table
// (TCP_SIGNATURES), plus a WSizeMod case not present in the upstream
// crate's enum (the upstream crate predates the Mod window-size variant).
func TestSignatureRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		sig  Signature
	}{
		{
			text: "*:64:0:*:mss*20,10:mss,sok,ts,nop,ws:df,id+:0",
			sig: Signature{
				Version: IPAny,
				ITTL:    ValueTTL(64),
				OLen:    0,
				MSS:     nil,
				WSize:   MSSWindow(20),
				WScale:  u8(10),
				OLayout: []Option{{Kind: OptMSS}, {Kind: OptSOK}, {Kind: OptTS}, {Kind: OptNOP}, {Kind: OptWS}},
				Quirks:  []Quirk{QuirkDF, QuirkDFWithID},
				PClass:  PayloadZero,
			},
		},
		{
			text: "*:64:0:*:16384,0:mss::0",
			sig: Signature{
				Version: IPAny,
				ITTL:    ValueTTL(64),
				OLen:    0,
				MSS:     nil,
				WSize:   ValueWindow(16384),
				WScale:  u8(0),
				OLayout: []Option{{Kind: OptMSS}},
				Quirks:  nil,
				PClass:  PayloadZero,
			},
		},
		{
			text: "4:128:0:1460:mtu*2,0:mss,nop,ws::0",
			sig: Signature{
				Version: IPv4,
				ITTL:    ValueTTL(128),
				OLen:    0,
				MSS:     u16(1460),
				WSize:   MTUWindow(2),
				WScale:  u8(0),
				OLayout: []Option{{Kind: OptMSS}, {Kind: OptNOP}, {Kind: OptWS}},
				Quirks:  nil,
				PClass:  PayloadZero,
			},
		},
		{
			text: "*:64-:0:265:%512,0:mss,sok,ts:ack+:0",
			sig: Signature{
				Version: IPAny,
				ITTL:    BadTTL(64),
				OLen:    0,
				MSS:     u16(265),
				WSize:   ModWindow(512),
				WScale:  u8(0),
				OLayout: []Option{{Kind: OptMSS}, {Kind: OptSOK}, {Kind: OptTS}},
				Quirks:  []Quirk{QuirkAckNumNonZero},
				PClass:  PayloadZero,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseSignature(tt.text)
			if err != nil {
				t.Fatalf("ParseSignature(%q): %v", tt.text, err)
			}
			if !signatureEqual(got, tt.sig) {
				t.Fatalf("ParseSignature(%q) = %+v, want %+v", tt.text, got, tt.sig)
			}
			if s := tt.sig.String(); s != tt.text {
				t.Fatalf("String() = %q, want %q", s, tt.text)
			}
			reparsed, err := ParseSignature(got.String())
			if err != nil {
				t.Fatalf("re-parse of printed form failed: %v", err)
			}
			if !signatureEqual(reparsed, got) {
				t.Fatalf("parse . print . parse not idempotent for %q", tt.text)
			}
		})
	}
}

func TestTTLRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		ttl  TTL
	}{
		{"64", ValueTTL(64)},
		{"54+10", DistanceTTL(54, 10)},
		{"64-", BadTTL(64)},
		{"54+?", GuessTTL(54)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseTTL(tt.text)
			if err != nil {
				t.Fatalf("ParseTTL(%q): %v", tt.text, err)
			}
			if got != tt.ttl {
				t.Fatalf("ParseTTL(%q) = %+v, want %+v", tt.text, got, tt.ttl)
			}
			if s := tt.ttl.String(); s != tt.text {
				t.Fatalf("String() = %q, want %q", s, tt.text)
			}
		})
	}
}

func TestQuirkRoundTrip(t *testing.T) {
	for token, q := range quirkByToken {
		got, err := ParseQuirk(token)
		if err != nil {
			t.Fatalf("ParseQuirk(%q): %v", token, err)
		}
		if got != q {
			t.Fatalf("ParseQuirk(%q) = %v, want %v", token, got, q)
		}
		if s := q.String(); s != token {
			t.Fatalf("Quirk(%v).String() = %q, want %q", q, s, token)
		}
	}
}

func TestParseSignatureRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"4:64:0:*:16384,0:mss:0", // too few fields
		"9:64:0:*:16384,0:mss::0",
		"4:sixty-four:0:*:16384,0:mss::0",
		"4:64:0:*:16384,0:::0", // empty olayout
		"4:64:0:*:16384,0:mss::nope",
	}
	for _, s := range tests {
		if _, err := ParseSignature(s); err == nil {
			t.Errorf("ParseSignature(%q) = nil error, want error", s)
		}
	}
}

func signatureEqual(a, b Signature) bool {
	if a.Version != b.Version || a.ITTL != b.ITTL || a.OLen != b.OLen || a.WSize != b.WSize || a.PClass != b.PClass {
		return false
	}
	if !optU16Equal(a.MSS, b.MSS) || !optU8Equal(a.WScale, b.WScale) {
		return false
	}
	if len(a.OLayout) != len(b.OLayout) {
		return false
	}
	for i := range a.OLayout {
		if a.OLayout[i] != b.OLayout[i] {
			return false
		}
	}
	if len(a.Quirks) != len(b.Quirks) {
		return false
	}
	for i := range a.Quirks {
		if a.Quirks[i] != b.Quirks[i] {
			return false
		}
	}
	return true
}

func optU16Equal(a, b *uint16) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func optU8Equal(a, b *uint8) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
