package extract

import "fmt"

// ShortPacketError reports that a frame, IP header, TCP header, or option
// ran past the end of the supplied buffer.
type ShortPacketError struct {
	// Layer names the decode stage that ran out of bytes (e.g. "ethernet",
	// "ipv4", "tcp").
	Layer string
	Err   error
}

func (e *ShortPacketError) Error() string {
	return fmt.Sprintf("short packet decoding %s: %v", e.Layer, e.Err)
}

func (e *ShortPacketError) Unwrap() error { return e.Err }

// UnsupportedProtocolError reports a frame this extractor does not and
// will not handle: a non-IPv4/IPv6 ethertype, a non-TCP payload, an IPv4
// fragment, or an illegal TCP flag combination.
type UnsupportedProtocolError struct {
	Reason string
}

func (e *UnsupportedProtocolError) Error() string {
	return "unsupported protocol: " + e.Reason
}
