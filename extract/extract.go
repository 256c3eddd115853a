// Package extract turns a raw link-layer frame into a tcp.Signature.
// Ethernet/VLAN/IPv4/IPv6/TCP field decode goes through
// github.com/google/gopacket/layers, then a manual byte walk over the raw
// TCP option bytes so that a malformed option length degrades to the
// "bad" quirk instead of aborting the walk.
package extract

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/netprobe/p0f/tcp"
)

// ExtractTCPSignature parses frame, a complete Ethernet frame with no SLL
// or pcap preamble, and returns the TCP signature observed in its first
// TCP segment.
func ExtractTCPSignature(frame []byte) (tcp.Signature, error) {
	eth := &layers.Ethernet{}
	if err := eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return tcp.Signature{}, &ShortPacketError{Layer: "ethernet", Err: err}
	}
	return visitEthernet(eth.EthernetType, eth.Payload)
}

func visitEthernet(ethertype layers.EthernetType, payload []byte) (tcp.Signature, error) {
	switch ethertype {
	case layers.EthernetTypeDot1Q, layers.EthernetTypeQinQ:
		vlan := &layers.Dot1Q{}
		if err := vlan.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
			return tcp.Signature{}, &ShortPacketError{Layer: "vlan", Err: err}
		}
		return visitEthernet(vlan.Type, vlan.Payload)

	case layers.EthernetTypeIPv4:
		ip := &layers.IPv4{}
		if err := ip.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
			return tcp.Signature{}, &ShortPacketError{Layer: "ipv4", Err: err}
		}
		return visitIPv4(ip)

	case layers.EthernetTypeIPv6:
		ip := &layers.IPv6{}
		if err := ip.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
			return tcp.Signature{}, &ShortPacketError{Layer: "ipv6", Err: err}
		}
		return visitIPv6(ip)

	default:
		return tcp.Signature{}, &UnsupportedProtocolError{Reason: fmt.Sprintf("unsupported ethertype %s", ethertype)}
	}
}

// IPv4 TOS bits (RFC 3168).
const (
	ipTOSECNCE  = 0x01
	ipTOSECNECT = 0x02
	// ip4ReservedBit is the "must be zero" flag bit in the IPv4 flags field.
	ip4ReservedBit = 0b100
)

func visitIPv4(ip *layers.IPv4) (tcp.Signature, error) {
	if ip.Protocol != layers.IPProtocolTCP {
		return tcp.Signature{}, &UnsupportedProtocolError{Reason: fmt.Sprintf("non-TCP IPv4 payload: %s", ip.Protocol)}
	}
	if ip.FragOffset > 0 || ip.Flags&layers.IPv4MoreFragments != 0 {
		return tcp.Signature{}, &UnsupportedProtocolError{Reason: "IPv4 fragment"}
	}

	var quirks []tcp.Quirk
	if ip.TOS&(ipTOSECNCE|ipTOSECNECT) != 0 {
		quirks = append(quirks, tcp.QuirkECN)
	}
	if uint8(ip.Flags)&ip4ReservedBit != 0 {
		quirks = append(quirks, tcp.QuirkMustBeZero)
	}
	if ip.Flags&layers.IPv4DontFragment != 0 {
		quirks = append(quirks, tcp.QuirkDF)
		if ip.Id != 0 {
			quirks = append(quirks, tcp.QuirkDFWithID)
		}
	} else if ip.Id == 0 {
		quirks = append(quirks, tcp.QuirkDFWithoutID)
	}

	olen := uint8(0)
	if int(ip.IHL) > 5 {
		olen = uint8(int(ip.IHL)-5) * 4
	}

	tcpLayer := &layers.TCP{}
	if err := tcpLayer.DecodeFromBytes(ip.Payload, gopacket.NilDecodeFeedback); err != nil {
		return tcp.Signature{}, &ShortPacketError{Layer: "tcp", Err: err}
	}
	return visitTCP(tcpLayer, tcp.IPv4, tcp.ValueTTL(ip.TTL), olen, quirks)
}

func visitIPv6(ip *layers.IPv6) (tcp.Signature, error) {
	if ip.NextHeader != layers.IPProtocolTCP {
		return tcp.Signature{}, &UnsupportedProtocolError{Reason: fmt.Sprintf("non-TCP IPv6 next header: %s", ip.NextHeader)}
	}

	var quirks []tcp.Quirk
	if ip.FlowLabel != 0 {
		quirks = append(quirks, tcp.QuirkFlowID)
	}
	if ip.TrafficClass&(ipTOSECNCE|ipTOSECNECT) != 0 {
		quirks = append(quirks, tcp.QuirkECN)
	}

	// IPv6 extension-header chain traversal is deliberately unimplemented;
	// olen stays 0.
	tcpLayer := &layers.TCP{}
	if err := tcpLayer.DecodeFromBytes(ip.Payload, gopacket.NilDecodeFeedback); err != nil {
		return tcp.Signature{}, &ShortPacketError{Layer: "tcp", Err: err}
	}
	return visitTCP(tcpLayer, tcp.IPv6, tcp.ValueTTL(ip.HopLimit), 0, quirks)
}

const (
	flagSYN uint8 = 1 << iota
	flagACK
	flagFIN
	flagRST
)

func maskedFlags(t *layers.TCP) uint8 {
	var m uint8
	if t.SYN {
		m |= flagSYN
	}
	if t.ACK {
		m |= flagACK
	}
	if t.FIN {
		m |= flagFIN
	}
	if t.RST {
		m |= flagRST
	}
	return m
}

func visitTCP(t *layers.TCP, version tcp.IPVersion, ittl tcp.TTL, olen uint8, quirks []tcp.Quirk) (tcp.Signature, error) {
	masked := maskedFlags(t)
	if masked != flagSYN && masked != flagSYN|flagACK {
		return tcp.Signature{}, &UnsupportedProtocolError{Reason: fmt.Sprintf("illegal TCP flag combination %#02x", masked)}
	}
	isPureSYN := masked == flagSYN

	if t.ECE || t.CWR || t.NS {
		quirks = append(quirks, tcp.QuirkECN)
	}
	if t.Seq == 0 {
		quirks = append(quirks, tcp.QuirkSeqNumZero)
	}
	if t.ACK {
		if t.Ack == 0 {
			quirks = append(quirks, tcp.QuirkAckNumZero)
		}
	} else if t.Ack != 0 && !t.RST {
		quirks = append(quirks, tcp.QuirkAckNumNonZero)
	}
	if t.URG {
		quirks = append(quirks, tcp.QuirkURGFlag)
	} else if t.Urgent != 0 {
		quirks = append(quirks, tcp.QuirkURGPtr)
	}
	if t.PSH {
		quirks = append(quirks, tcp.QuirkPushFlag)
	}

	if len(t.Contents) < 20 {
		return tcp.Signature{}, &ShortPacketError{Layer: "tcp", Err: fmt.Errorf("header shorter than 20 bytes")}
	}
	olayout, mss, wscale, optQuirks := walkOptions(t.Contents[20:], isPureSYN)
	quirks = append(quirks, optQuirks...)

	pclass := tcp.PayloadZero
	if len(t.Payload) > 0 {
		pclass = tcp.PayloadNonZero
	}

	return tcp.Signature{
		Version: version,
		ITTL:    ittl,
		OLen:    olen,
		MSS:     mss,
		WSize:   tcp.ValueWindow(uint32(t.Window)),
		WScale:  wscale,
		OLayout: olayout,
		Quirks:  quirks,
		PClass:  pclass,
	}, nil
}

// TCP option kinds, per RFC 793/1323/2018.
const (
	tcpOptEOL  = 0
	tcpOptNOP  = 1
	tcpOptMSS  = 2
	tcpOptWS   = 3
	tcpOptSOK  = 4
	tcpOptSACK = 5
	tcpOptTS   = 8
)

// walkOptions walks the raw TCP option bytes one option at a time. A
// declared length that disagrees with the option's fixed size adds the
// "bad" quirk and the walk goes on, per the non-fatal OptionLengthMismatch
// policy. A length below 2, or one that runs past the buffer, adds "bad"
// and ends the walk. Neither case is an error here; the layers.TCP decode
// in visitIPv4/visitIPv6 already rejects such an overrunning option as a
// ShortPacketError before this walk runs.
func walkOptions(raw []byte, isPureSYN bool) (olayout []tcp.Option, mss *uint16, wscale *uint8, quirks []tcp.Quirk) {
	i := 0
	for i < len(raw) {
		kind := raw[i]

		switch kind {
		case tcpOptEOL:
			pad := len(raw) - i - 1
			olayout = append(olayout, tcp.Option{Kind: tcp.OptEOL, N: uint8(pad)})
			for _, b := range raw[i+1:] {
				if b != 0 {
					quirks = append(quirks, tcp.QuirkTrailingNonZero)
					break
				}
			}
			return olayout, mss, wscale, quirks

		case tcpOptNOP:
			olayout = append(olayout, tcp.Option{Kind: tcp.OptNOP})
			i++
			continue
		}

		if i+1 >= len(raw) {
			quirks = append(quirks, tcp.QuirkBad)
			return olayout, mss, wscale, quirks
		}
		length := int(raw[i+1])
		if length < 2 || i+length > len(raw) {
			quirks = append(quirks, tcp.QuirkBad)
			return olayout, mss, wscale, quirks
		}
		data := raw[i+2 : i+length]

		switch kind {
		case tcpOptMSS:
			olayout = append(olayout, tcp.Option{Kind: tcp.OptMSS})
			if len(data) >= 2 {
				v := binary.BigEndian.Uint16(data[:2])
				mss = &v
			}
			if length != 4 {
				quirks = append(quirks, tcp.QuirkBad)
			}

		case tcpOptWS:
			olayout = append(olayout, tcp.Option{Kind: tcp.OptWS})
			if len(data) >= 1 {
				v := data[0]
				wscale = &v
				if v > 14 {
					quirks = append(quirks, tcp.QuirkExcessiveWindowScaling)
				}
			}
			if length != 3 {
				quirks = append(quirks, tcp.QuirkBad)
			}

		case tcpOptSOK:
			olayout = append(olayout, tcp.Option{Kind: tcp.OptSOK})
			if length != 2 {
				quirks = append(quirks, tcp.QuirkBad)
			}

		case tcpOptSACK:
			olayout = append(olayout, tcp.Option{Kind: tcp.OptSACK})
			switch length {
			case 10, 18, 26, 34:
			default:
				quirks = append(quirks, tcp.QuirkBad)
			}

		case tcpOptTS:
			olayout = append(olayout, tcp.Option{Kind: tcp.OptTS})
			if len(data) >= 4 && binary.BigEndian.Uint32(data[:4]) == 0 {
				quirks = append(quirks, tcp.QuirkOwnTimestampZero)
			}
			if isPureSYN && len(data) >= 8 && binary.BigEndian.Uint32(data[4:8]) != 0 {
				quirks = append(quirks, tcp.QuirkPeerTimestampNonZero)
			}
			if length != 10 {
				quirks = append(quirks, tcp.QuirkBad)
			}

		default:
			olayout = append(olayout, tcp.Option{Kind: tcp.OptUnknown, N: kind})
		}

		i += length
	}

	return olayout, mss, wscale, quirks
}
