package protocol

import (
	"bytes"
	"fmt"

	"github.com/danmuck/mavctl/internal/protocol/frame"
)

// Version is the frame marker (STX) and selects the wire layout.
type Version byte

const (
	V1 Version = Version(frame.MagicV1)
	V2 Version = Version(frame.MagicV2)
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	default:
		return fmt.Sprintf("unknown(%#02x)", byte(v))
	}
}

// HeaderLen returns the header length of the layout, or false for an
// unknown marker.
func (v Version) HeaderLen() (int, bool) {
	switch v {
	case V1:
		return frame.HeaderLenV1, true
	case V2:
		return frame.HeaderLenV2, true
	default:
		return 0, false
	}
}

const (
	MaxMessageIDV1 = 0xFF
	MaxMessageIDV2 = 0xFFFFFF
	MaxTimestamp   = 1<<48 - 1
)

// Header holds the sender and message fields common to both layouts.
type Header struct {
	Sequence    uint8
	SystemID    uint8
	ComponentID uint8
	MessageID   uint32
}

// Signing carries the inputs of a v2 signature block.
type Signing struct {
	LinkID    uint8
	Timestamp uint64
	Key       []byte
}

// Packet is an immutable MAVLink packet. raw is the canonical encoding;
// every other field was read from it or written into it.
type Packet struct {
	version   Version
	incompat  uint8
	compat    uint8
	header    Header
	payload   []byte
	checksum  uint16
	signature []byte
	raw       []byte
}

func (p *Packet) Version() Version { return p.version }

// IncompatFlags is zero for v1 packets.
func (p *Packet) IncompatFlags() uint8 { return p.incompat }

// CompatFlags is zero for v1 packets.
func (p *Packet) CompatFlags() uint8 { return p.compat }

func (p *Packet) Header() Header { return p.header }
func (p *Packet) Sequence() uint8 { return p.header.Sequence }
func (p *Packet) SystemID() uint8 { return p.header.SystemID }
func (p *Packet) ComponentID() uint8 { return p.header.ComponentID }
func (p *Packet) MessageID() uint32 { return p.header.MessageID }
func (p *Packet) Checksum() uint16 { return p.checksum }
func (p *Packet) PayloadLen() int { return len(p.payload) }
func (p *Packet) Len() int { return len(p.raw) }
func (p *Packet) IsV2() bool { return p.version == V2 }
func (p *Packet) Payload() []byte { return bytes.Clone(p.payload) }
func (p *Packet) Signature() []byte { return bytes.Clone(p.signature) }
func (p *Packet) Raw() []byte { return bytes.Clone(p.raw) }
func (p *Packet) IsSigned() bool { return p.incompat&frame.FlagSigned != 0 }
func (p *Packet) Equal(o *Packet) bool { return o != nil && bytes.Equal(p.raw, o.raw) }

// SignatureLinkID returns the signing link id, or false when unsigned.
func (p *Packet) SignatureLinkID() (uint8, bool) {
	if !p.IsSigned() || len(p.signature) != frame.SignatureLen {
		return 0, false
	}
	return p.signature[0], true
}

// SignatureTimestamp returns the 48-bit signing timestamp, or false when
// unsigned.
func (p *Packet) SignatureTimestamp() (uint64, bool) {
	if !p.IsSigned() || len(p.signature) != frame.SignatureLen {
		return 0, false
	}
	return uint48(p.signature[1:7]), true
}

func (p *Packet) String() string {
	return fmt.Sprintf(
		"Packet{version=%s seq=%d sys=%d comp=%d msg=%d len=%d crc=%#04x signed=%t}",
		p.version, p.header.Sequence, p.header.SystemID, p.header.ComponentID,
		p.header.MessageID, len(p.payload), p.checksum, p.IsSigned(),
	)
}

// View is a flat, JSON-friendly copy of a packet for tooling.
type View struct {
	Version       string  `json:"version"`
	IncompatFlags uint8   `json:"incompat_flags"`
	CompatFlags   uint8   `json:"compat_flags"`
	Sequence      uint8   `json:"seq"`
	SystemID      uint8   `json:"sys"`
	ComponentID   uint8   `json:"comp"`
	MessageID     uint32  `json:"msg_id"`
	Payload       []byte  `json:"payload"`
	Checksum      uint16  `json:"checksum"`
	Signed        bool    `json:"signed"`
	LinkID        *uint8  `json:"link_id,omitempty"`
	Timestamp     *uint64 `json:"timestamp,omitempty"`
}

func (p *Packet) View() View {
	v := View{
		Version:       p.version.String(),
		IncompatFlags: p.incompat,
		CompatFlags:   p.compat,
		Sequence:      p.header.Sequence,
		SystemID:      p.header.SystemID,
		ComponentID:   p.header.ComponentID,
		MessageID:     p.header.MessageID,
		Payload:       p.Payload(),
		Checksum:      p.checksum,
		Signed:        p.IsSigned(),
	}
	if id, ok := p.SignatureLinkID(); ok {
		v.LinkID = &id
	}
	if ts, ok := p.SignatureTimestamp(); ok {
		v.Timestamp = &ts
	}
	return v
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func uint48(b []byte) uint64 {
	var v uint64
	for i := 5; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func putUint48(b []byte, v uint64) {
	for i := 0; i < 6; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
