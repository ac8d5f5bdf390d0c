package protocol

import (
	"fmt"

	"github.com/danmuck/mavctl/internal/protocol/frame"
)

// NewV1Packet builds a v1 packet:
// [0xFE][len][seq][sys][comp][msg][payload...][crc16].
func NewV1Packet(h Header, crcExtra byte, payload []byte) (*Packet, error) {
	if h.MessageID > MaxMessageIDV1 {
		return nil, fmt.Errorf("%w: v1 message id %d exceeds %d", ErrInvalidInput, h.MessageID, MaxMessageIDV1)
	}
	raw, err := layout(V1, 0, h, payload, 0)
	if err != nil {
		return nil, err
	}
	return seal(V1, 0, h, raw, crcExtra, len(payload))
}

// NewV2Packet builds an unsigned v2 packet:
// [0xFD][len][incompat=0][compat=0][seq][sys][comp][msg:3][payload...][crc16].
func NewV2Packet(h Header, crcExtra byte, payload []byte) (*Packet, error) {
	if h.MessageID > MaxMessageIDV2 {
		return nil, fmt.Errorf("%w: v2 message id %d exceeds %d", ErrInvalidInput, h.MessageID, MaxMessageIDV2)
	}
	raw, err := layout(V2, 0, h, payload, 0)
	if err != nil {
		return nil, err
	}
	return seal(V2, 0, h, raw, crcExtra, len(payload))
}

// NewSignedV2Packet builds a v2 packet with the signed flag set and a
// 13 byte signature block after the checksum.
func NewSignedV2Packet(h Header, crcExtra byte, payload []byte, s Signing) (*Packet, error) {
	if h.MessageID > MaxMessageIDV2 {
		return nil, fmt.Errorf("%w: v2 message id %d exceeds %d", ErrInvalidInput, h.MessageID, MaxMessageIDV2)
	}
	if s.Timestamp > MaxTimestamp {
		return nil, fmt.Errorf("%w: signing timestamp %d exceeds 48 bits", ErrInvalidInput, s.Timestamp)
	}
	raw, err := layout(V2, frame.FlagSigned, h, payload, frame.SignatureLen)
	if err != nil {
		return nil, err
	}
	p, err := seal(V2, frame.FlagSigned, h, raw, crcExtra, len(payload))
	if err != nil {
		return nil, err
	}
	sig, err := GenerateSignature(raw, s.LinkID, s.Timestamp, s.Key)
	if err != nil {
		return nil, err
	}
	copy(raw[len(raw)-frame.SignatureLen:], sig)
	p.signature = sig
	return p, nil
}

// layout allocates the full frame and writes header and payload. The
// checksum and signature regions are left zeroed.
func layout(v Version, incompat byte, h Header, payload []byte, sigLen int) ([]byte, error) {
	if len(payload) > frame.MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	headerLen, _ := v.HeaderLen()
	raw := make([]byte, headerLen+len(payload)+frame.ChecksumLen+sigLen)
	raw[0] = byte(v)
	raw[1] = byte(len(payload))
	switch v {
	case V1:
		raw[2] = h.Sequence
		raw[3] = h.SystemID
		raw[4] = h.ComponentID
		raw[5] = byte(h.MessageID)
	case V2:
		raw[2] = incompat
		raw[3] = 0
		raw[4] = h.Sequence
		raw[5] = h.SystemID
		raw[6] = h.ComponentID
		putUint24(raw[7:10], h.MessageID)
	}
	copy(raw[headerLen:], payload)
	return raw, nil
}

// seal writes the checksum into raw and wraps it in a Packet.
func seal(v Version, incompat byte, h Header, raw []byte, crcExtra byte, payloadLen int) (*Packet, error) {
	sum, err := GenerateCRC(raw, crcExtra)
	if err != nil {
		return nil, err
	}
	headerLen, _ := v.HeaderLen()
	at := headerLen + payloadLen
	raw[at] = byte(sum)
	raw[at+1] = byte(sum >> 8)
	return &Packet{
		version:   v,
		incompat:  incompat,
		header:    h,
		payload:   raw[headerLen:at:at],
		checksum:  sum,
		signature: []byte{},
		raw:       raw,
	}, nil
}
