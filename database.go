// Package p0f implements the data model, text codec, and database loader
// for a passive, p0f-style TCP/IP and HTTP fingerprinting system. Packet
// extraction lives in the extract subpackage; p0f itself never touches a
// wire frame.
package p0f

import (
	_ "embed"
	"sync"

	"github.com/netprobe/p0f/httpsig"
	"github.com/netprobe/p0f/tcp"
)

//go:embed data/p0f.fp
var defaultFPText string

// MTUEntry is one row of the mtu table: a free-form label and the set of
// link MTUs associated with it.
type MTUEntry struct {
	Label string
	MTUs  []int
}

// UAOSEntry is one row of the ua_os table: a User-Agent token and the OS
// tag it implies, when known.
type UAOSEntry struct {
	UA string
	OS *string
}

// TCPEntry is one labeled bucket of TCP signatures.
type TCPEntry struct {
	Label      Label
	Signatures []tcp.Signature
}

// HTTPEntry is one labeled bucket of HTTP signatures.
type HTTPEntry struct {
	Label      Label
	Signatures []httpsig.Signature
}

// Database is the loaded fingerprint knowledge base: OS classes, the MTU
// table, the UA->OS map, and the four signature tables. It is immutable
// once returned by LoadDatabase or DefaultDatabase and may be shared freely
// across goroutines.
type Database struct {
	Classes      []string
	MTU          []MTUEntry
	UAOS         []UAOSEntry
	TCPRequest   []TCPEntry
	TCPResponse  []TCPEntry
	HTTPRequest  []HTTPEntry
	HTTPResponse []HTTPEntry

	// Diagnostics holds one message per non-fatal finding encountered
	// during the load: an unknown named value in a recognized section, or
	// a label/sig line inside an unrecognized module. Empty for a clean
	// load; never nil-vs-empty significant.
	Diagnostics []string
}

var (
	defaultDBOnce sync.Once
	defaultDB     *Database
)

// DefaultDatabase returns the database embedded in the binary, parsing it
// once on first use. The embedded text is a build-time invariant: if it
// fails to parse, that is a bug in this module, not a runtime condition a
// caller can recover from, so this panics rather than returning an error.
func DefaultDatabase() *Database {
	defaultDBOnce.Do(func() {
		db, err := LoadDatabase(defaultFPText)
		if err != nil {
			panic("p0f: embedded default database failed to parse: " + err.Error())
		}
		defaultDB = db
	})
	return defaultDB
}
