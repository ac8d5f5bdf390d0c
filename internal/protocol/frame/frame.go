package frame

import (
	"errors"
	"io"

	"github.com/danmuck/mavctl/internal/protocol/stream"
	"github.com/rs/zerolog/log"
)

const (
	MagicV1 byte = 0xFE
	MagicV2 byte = 0xFD

	// FlagSigned is incompatibility flag bit 0: a signature block follows
	// the checksum.
	FlagSigned byte = 0x01

	HeaderLenV1   = 6
	HeaderLenV2   = 10
	ChecksumLen   = 2
	SignatureLen  = 13
	MaxPayloadLen = 255
	MaxFrameLen   = HeaderLenV2 + MaxPayloadLen + ChecksumLen + SignatureLen
)

// Stats counts synchronizer activity over the life of a Reader.
type Stats struct {
	Frames uint64 `json:"frames"`
	Drops  uint64 `json:"drops"`
}

// Reader locates candidate frames in a byte stream.
//
// A frame is any byte run that starts with a known marker and is as long
// as its header declares. Checksums and signatures are not inspected;
// callers validate and call Drop on rejection, which resumes the scan one
// byte after the rejected frame's start.
type Reader struct {
	in       *stream.Reader
	captured bool
	stats    Stats
}

func NewReader(r io.Reader) *Reader {
	return &Reader{in: stream.NewReader(r, MaxFrameLen)}
}

// RemainingLength returns how many bytes follow the bytes already consumed
// for a frame with the given marker: two bytes for v1 (marker, length),
// three for v2 (marker, length, incompat flags).
func RemainingLength(marker, payloadLen, incompat byte) (int, bool) {
	switch marker {
	case MagicV1:
		return HeaderLenV1 - 2 + int(payloadLen) + ChecksumLen, true
	case MagicV2:
		n := HeaderLenV2 - 3 + int(payloadLen) + ChecksumLen
		if incompat&FlagSigned != 0 {
			n += SignatureLen
		}
		return n, true
	default:
		return 0, false
	}
}

// Next commits the previous window and scans for the next frame. It
// returns false with a nil error when the stream ends before a complete
// frame is available.
func (r *Reader) Next() (bool, error) {
	r.captured = false
	r.in.Commit()
	for {
		marker, err := r.in.ReadByte()
		if err != nil {
			return r.eof(err)
		}
		payloadLen, err := r.in.ReadByte()
		if err != nil {
			return r.eof(err)
		}

		var remaining int
		switch marker {
		case MagicV1:
			remaining, _ = RemainingLength(marker, payloadLen, 0)
		case MagicV2:
			incompat, err := r.in.ReadByte()
			if err != nil {
				return r.eof(err)
			}
			remaining, _ = RemainingLength(marker, payloadLen, incompat)
		default:
			if err := r.drop(); err != nil {
				return false, err
			}
			continue
		}

		ok, err := r.in.Advance(remaining)
		if err != nil || !ok {
			return false, err
		}
		r.captured = true
		r.stats.Frames++
		return true, nil
	}
}

// Frame returns a copy of the frame captured by the last successful Next,
// or an empty slice.
func (r *Reader) Frame() []byte {
	if !r.captured {
		return []byte{}
	}
	window := r.in.Buffer()
	out := make([]byte, len(window))
	copy(out, window)
	return out
}

// Drop returns the captured frame to the stream minus its first byte.
// Without a captured frame it does nothing.
func (r *Reader) Drop() error {
	if !r.captured {
		return nil
	}
	r.captured = false
	return r.drop()
}

func (r *Reader) Stats() Stats {
	return r.stats
}

func (r *Reader) drop() error {
	r.in.Rollback()
	if err := r.in.Skip(1); err != nil {
		return err
	}
	r.in.Commit()
	r.stats.Drops++
	log.Trace().Uint64("drops", r.stats.Drops).Msg("frame.drop")
	return nil
}

func (r *Reader) eof(err error) (bool, error) {
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	return false, err
}
