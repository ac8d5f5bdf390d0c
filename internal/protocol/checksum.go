package protocol

import (
	"crypto/sha256"

	"github.com/danmuck/mavctl/internal/protocol/crc"
	"github.com/danmuck/mavctl/internal/protocol/frame"
)

// GenerateCRC computes the checksum of a packet from the byte after the
// marker through the end of the declared payload, followed by crcExtra.
// Bytes past the payload (checksum, signature) are ignored, so a whole
// frame may be passed.
func GenerateCRC(packet []byte, crcExtra byte) (uint16, error) {
	if len(packet) < 3 {
		return 0, ErrShortPacket
	}
	headerLen, ok := Version(packet[0]).HeaderLen()
	if !ok {
		return 0, ErrUnknownMarker
	}
	end := headerLen + int(packet[1])
	if len(packet) < end {
		return 0, ErrTruncated
	}
	c := crc.New()
	c.AccumulateRange(packet, 1, end)
	c.Accumulate(crcExtra)
	return c.Sum(), nil
}

// GenerateSignature builds the 13 byte signature block of a signed v2
// packet: [link id][timestamp:6][hash:6]. The hash is the first six bytes
// of SHA-256(key || packet[0:checksum end] || link id || timestamp).
func GenerateSignature(packet []byte, linkID uint8, timestamp uint64, key []byte) ([]byte, error) {
	if len(packet) < 3 || packet[0] != frame.MagicV2 || packet[2]&frame.FlagSigned == 0 {
		return nil, ErrNotSigned
	}
	if timestamp > MaxTimestamp {
		return nil, ErrInvalidInput
	}
	signedLen := frame.HeaderLenV2 + int(packet[1]) + frame.ChecksumLen
	if len(packet) < signedLen {
		return nil, ErrIncompletePacket
	}

	sig := make([]byte, frame.SignatureLen)
	sig[0] = linkID
	putUint48(sig[1:7], timestamp)

	h := sha256.New()
	h.Write(key)
	h.Write(packet[:signedLen])
	h.Write(sig[:7])
	copy(sig[7:], h.Sum(nil)[:6])
	return sig, nil
}
