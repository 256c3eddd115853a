package httpsig

import "testing"

// Fixtures are the HEADER / HTTP_SIGNATURES tables from flier/rust-p0f's
// parse.rs test suite, carried forward verbatim.
func TestHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		text string
		h    Header
	}{
		{"Host", NewHeader("Host")},
		{"User-Agent", NewHeader("User-Agent")},
		{"Accept=[,*/*;q=]", NewHeader("Accept").WithValue(",*/*;q=")},
		{"?Accept-Language", NewHeader("Accept-Language").AsOptional()},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseHeader(tt.text)
			if err != nil {
				t.Fatalf("ParseHeader(%q): %v", tt.text, err)
			}
			if !headerEqual(got, tt.h) {
				t.Fatalf("ParseHeader(%q) = %+v, want %+v", tt.text, got, tt.h)
			}
			if s := tt.h.String(); s != tt.text {
				t.Fatalf("String() = %q, want %q", s, tt.text)
			}
		})
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	text := "*:Host,User-Agent,Accept=[,*/*;q=],?Accept-Language,Accept-Encoding=[gzip,deflate]," +
		"Accept-Charset=[utf-8;q=0.7,*;q=0.7],Keep-Alive=[300],Connection=[keep-alive]::Firefox/"

	want := Signature{
		Version: VAny,
		HOrder: []Header{
			NewHeader("Host"),
			NewHeader("User-Agent"),
			NewHeader("Accept").WithValue(",*/*;q="),
			NewHeader("Accept-Language").AsOptional(),
			NewHeader("Accept-Encoding").WithValue("gzip,deflate"),
			NewHeader("Accept-Charset").WithValue("utf-8;q=0.7,*;q=0.7"),
			NewHeader("Keep-Alive").WithValue("300"),
			NewHeader("Connection").WithValue("keep-alive"),
		},
		HAbsent: nil,
		ExpSW:   "Firefox/",
	}

	got, err := ParseSignature(text)
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if len(got.HOrder) != len(want.HOrder) {
		t.Fatalf("HOrder len = %d, want %d", len(got.HOrder), len(want.HOrder))
	}
	for i := range got.HOrder {
		if !headerEqual(got.HOrder[i], want.HOrder[i]) {
			t.Fatalf("HOrder[%d] = %+v, want %+v", i, got.HOrder[i], want.HOrder[i])
		}
	}
	if got.Version != want.Version || got.ExpSW != want.ExpSW {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if s := got.String(); s != text {
		t.Fatalf("String() = %q, want %q", s, text)
	}
}

func TestSignatureEmptyHAbsent(t *testing.T) {
	text := "1:Host,Connection::curl/"
	got, err := ParseSignature(text)
	if err != nil {
		t.Fatalf("ParseSignature: %v", err)
	}
	if got.HAbsent != nil {
		t.Fatalf("HAbsent = %v, want nil (empty list, per spec's absent/empty conflation)", got.HAbsent)
	}
	if s := got.String(); s != text {
		t.Fatalf("String() = %q, want %q", s, text)
	}
}

func TestParseSignatureRejectsEmptyHOrder(t *testing.T) {
	if _, err := ParseSignature("1::Host::"); err == nil {
		t.Fatalf("expected error for empty horder")
	}
}

func headerEqual(a, b Header) bool {
	if a.Optional != b.Optional || a.Name != b.Name {
		return false
	}
	if (a.Value == nil) != (b.Value == nil) {
		return false
	}
	return a.Value == nil || *a.Value == *b.Value
}
