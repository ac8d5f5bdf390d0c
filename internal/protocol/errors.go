package protocol

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrShortPacket      = errors.New("protocol: packet shorter than minimal header")
	ErrUnknownMarker    = errors.New("protocol: unknown version marker")
	ErrTruncated        = errors.New("protocol: truncated data")
	ErrIncompletePacket = errors.New("protocol: packet is incomplete")
	ErrNotSigned        = errors.New("protocol: packet is not signed")
	ErrInvalidInput     = errors.New("protocol: invalid input")
	ErrPayloadTooLarge  = errors.New("protocol: payload too large")

	// ErrEndOfStream is terminal; errors.Is(err, io.EOF) holds for it.
	ErrEndOfStream = fmt.Errorf("protocol: end of stream: %w", io.EOF)
)
