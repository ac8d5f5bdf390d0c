package protocol

import (
	"bytes"
	"fmt"

	"github.com/danmuck/mavctl/internal/protocol/frame"
)

// Parse decodes raw according to its marker byte.
func Parse(raw []byte) (*Packet, error) {
	if len(raw) == 0 {
		return nil, ErrTruncated
	}
	switch raw[0] {
	case frame.MagicV1:
		return FromV1Bytes(raw)
	case frame.MagicV2:
		return FromV2Bytes(raw)
	default:
		return nil, fmt.Errorf("%w: %#02x", ErrUnknownMarker, raw[0])
	}
}

// FromV1Bytes unpacks a v1 frame. Checksum is not validated. raw is
// copied; bytes past the frame are ignored.
func FromV1Bytes(raw []byte) (*Packet, error) {
	if len(raw) < frame.HeaderLenV1+frame.ChecksumLen {
		return nil, ErrTruncated
	}
	if raw[0] != frame.MagicV1 {
		return nil, fmt.Errorf("%w: %#02x is not v1", ErrUnknownMarker, raw[0])
	}
	payloadLen := int(raw[1])
	total := frame.HeaderLenV1 + payloadLen + frame.ChecksumLen
	if len(raw) < total {
		return nil, ErrTruncated
	}
	buf := bytes.Clone(raw[:total])
	at := frame.HeaderLenV1 + payloadLen
	return &Packet{
		version: V1,
		header: Header{
			Sequence:    buf[2],
			SystemID:    buf[3],
			ComponentID: buf[4],
			MessageID:   uint32(buf[5]),
		},
		payload:   buf[frame.HeaderLenV1:at:at],
		checksum:  uint16(buf[at]) | uint16(buf[at+1])<<8,
		signature: []byte{},
		raw:       buf,
	}, nil
}

// FromV2Bytes unpacks a v2 frame. The signature block is read only when
// the signed flag is set. Neither checksum nor signature is validated.
func FromV2Bytes(raw []byte) (*Packet, error) {
	if len(raw) < frame.HeaderLenV2+frame.ChecksumLen {
		return nil, ErrTruncated
	}
	if raw[0] != frame.MagicV2 {
		return nil, fmt.Errorf("%w: %#02x is not v2", ErrUnknownMarker, raw[0])
	}
	payloadLen := int(raw[1])
	incompat := raw[2]
	total := frame.HeaderLenV2 + payloadLen + frame.ChecksumLen
	sigLen := 0
	if incompat&frame.FlagSigned != 0 {
		sigLen = frame.SignatureLen
	}
	if len(raw) < total+sigLen {
		return nil, ErrTruncated
	}
	buf := bytes.Clone(raw[:total+sigLen])
	at := frame.HeaderLenV2 + payloadLen
	signature := []byte{}
	if sigLen > 0 {
		signature = buf[total : total+sigLen : total+sigLen]
	}
	return &Packet{
		version:  V2,
		incompat: incompat,
		compat:   buf[3],
		header: Header{
			Sequence:    buf[4],
			SystemID:    buf[5],
			ComponentID: buf[6],
			MessageID:   uint24(buf[7:10]),
		},
		payload:   buf[frame.HeaderLenV2:at:at],
		checksum:  uint16(buf[at]) | uint16(buf[at+1])<<8,
		signature: signature,
		raw:       buf,
	}, nil
}
