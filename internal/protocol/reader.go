package protocol

import (
	"io"

	"github.com/danmuck/mavctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Reader pumps packets out of a byte stream.
//
// Packets are structurally decoded only. Callers validate checksum and
// signature and call Drop on failure, so an invalid packet is neither
// delivered nor allowed to hide a valid frame that starts inside it.
// A Reader is bound to one stream and one goroutine.
type Reader struct {
	frames *frame.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{frames: frame.NewReader(r)}
}

// Next returns the next packet. It returns ErrEndOfStream when the stream
// ends; I/O errors from the source are returned unchanged.
func (r *Reader) Next() (*Packet, error) {
	for {
		ok, err := r.frames.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrEndOfStream
		}
		raw := r.frames.Frame()
		switch raw[0] {
		case frame.MagicV1:
			return FromV1Bytes(raw)
		case frame.MagicV2:
			return FromV2Bytes(raw)
		}
		log.Debug().Uint8("marker", raw[0]).Msg("protocol.Reader unknown marker, resyncing")
		if err := r.frames.Drop(); err != nil {
			return nil, err
		}
	}
}

// Drop discards the last packet and resumes scanning one byte after its
// first byte.
func (r *Reader) Drop() error {
	return r.frames.Drop()
}

func (r *Reader) Stats() frame.Stats {
	return r.frames.Stats()
}
