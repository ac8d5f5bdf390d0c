// Package stream provides a transactional byte reader for frame scanning.
//
// Bytes read since the last Commit stay buffered so a rejected candidate
// frame can be rolled back and rescanned from a later offset. A Reader is
// owned by a single goroutine; it is not safe for concurrent use.
package stream

import (
	"errors"
	"io"
)

// MinCapacity covers the largest MAVLink frame: a signed v2 frame with a
// 255 byte payload (10 + 255 + 2 + 13).
const MinCapacity = 280

const maxConsecutiveEmptyReads = 100

var ErrWindowFull = errors.New("stream: window exceeds buffer capacity")

// Reader buffers an io.Reader between a commit point and a cursor.
//
//	buf[0:commit]       discarded, reclaimed on the next compaction
//	buf[commit:cursor]  the current window, visible through Buffer
//	buf[cursor:limit]   read ahead from src, not yet consumed
type Reader struct {
	src    io.Reader
	buf    []byte
	commit int
	cursor int
	limit  int
	err    error
}

// NewReader wraps r with a buffer of the given capacity, raised to
// MinCapacity when smaller.
func NewReader(r io.Reader, capacity int) *Reader {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &Reader{src: r, buf: make([]byte, capacity)}
}

// ReadByte returns the next byte and advances the cursor. The byte stays
// in the window until Commit. It returns io.EOF once the source is drained.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.fill(1); err != nil {
		return 0, err
	}
	b := r.buf[r.cursor]
	r.cursor++
	return b, nil
}

// Advance moves the cursor n bytes forward, reading from the source as
// needed. It reports false with a nil error when the source ends first, in
// which case the cursor is left at the end of the available data.
func (r *Reader) Advance(n int) (bool, error) {
	if n <= 0 {
		return true, nil
	}
	err := r.fill(n)
	switch {
	case err == nil:
		r.cursor += n
		return true, nil
	case errors.Is(err, io.EOF):
		r.cursor = r.limit
		return false, nil
	default:
		return false, err
	}
}

// Commit discards the window; the cursor becomes the new commit point.
func (r *Reader) Commit() {
	r.commit = r.cursor
	if r.commit == r.limit {
		r.commit, r.cursor, r.limit = 0, 0, 0
	}
}

// Rollback returns the cursor to the commit point.
func (r *Reader) Rollback() {
	r.cursor = r.commit
}

// Skip moves the cursor past up to n bytes. Used right after Rollback to
// step over a misidentified marker before the next Commit. Reaching the end
// of the source is not an error.
func (r *Reader) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	if err := r.fill(n); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	r.cursor += min(n, r.limit-r.cursor)
	return nil
}

// Buffer returns the window between the commit point and the cursor. The
// slice aliases internal storage and is only valid until the next call.
func (r *Reader) Buffer() []byte {
	return r.buf[r.commit:r.cursor]
}

// Window reports the number of bytes between the commit point and the cursor.
func (r *Reader) Window() int {
	return r.cursor - r.commit
}

// Buffered reports bytes read ahead of the cursor.
func (r *Reader) Buffered() int {
	return r.limit - r.cursor
}

// Cap reports the buffer capacity.
func (r *Reader) Cap() int {
	return len(r.buf)
}

// fill ensures at least n bytes are buffered past the cursor.
func (r *Reader) fill(n int) error {
	if r.cursor+n-r.commit > len(r.buf) {
		return ErrWindowFull
	}
	empty := 0
	for r.limit-r.cursor < n {
		if r.err != nil {
			return r.err
		}
		if r.limit == len(r.buf) {
			r.compact()
		}
		read, err := r.src.Read(r.buf[r.limit:])
		if read < 0 {
			return errors.New("stream: source returned negative count")
		}
		r.limit += read
		if err != nil {
			r.err = err
			continue
		}
		if read == 0 {
			empty++
			if empty >= maxConsecutiveEmptyReads {
				return io.ErrNoProgress
			}
			continue
		}
		empty = 0
	}
	return nil
}

func (r *Reader) compact() {
	if r.commit == 0 {
		return
	}
	copy(r.buf, r.buf[r.commit:r.limit])
	r.cursor -= r.commit
	r.limit -= r.commit
	r.commit = 0
}
