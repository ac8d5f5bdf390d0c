// Package crc implements the X.25 checksum used by MAVLink frames.
//
// The running register is the CRC-16/MCRF4XX variant: init 0xFFFF,
// reflected polynomial 0x1021, no final xor. Sum returns the register as
// carried on the wire. Get folds the register once more and is the value
// message schemas reduce to a single CRC extra byte.
package crc

import "github.com/sigurn/crc16"

// Initial is the register value of a fresh engine.
const Initial uint16 = 0xFFFF

var table = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// X25 accumulates bytes into a 16-bit checksum.
// There is no reset; use a fresh engine per computation.
type X25 struct {
	reg uint16
	one [1]byte
}

// New returns an engine initialized to Initial.
func New() *X25 {
	return &X25{reg: crc16.Init(table)}
}

// Accumulate folds one byte into the register.
func (c *X25) Accumulate(b byte) {
	c.one[0] = b
	c.reg = crc16.Update(c.reg, c.one[:], table)
}

// AccumulateBytes folds every byte of p in order.
func (c *X25) AccumulateBytes(p []byte) {
	c.reg = crc16.Update(c.reg, p, table)
}

// AccumulateRange folds p[from:to]. Bounds are clamped to p.
func (c *X25) AccumulateRange(p []byte, from, to int) {
	if from < 0 {
		from = 0
	}
	if to > len(p) {
		to = len(p)
	}
	if from >= to {
		return
	}
	c.AccumulateBytes(p[from:to])
}

// AccumulateString folds the UTF-8 bytes of s.
func (c *X25) AccumulateString(s string) {
	c.AccumulateBytes([]byte(s))
}

// Sum returns the register, the checksum written after a packet payload.
func (c *X25) Sum() uint16 {
	return crc16.Complete(c.reg, table)
}

// Get returns the folded checksum: reg ^ (reg >> 8).
func (c *X25) Get() uint16 {
	s := c.Sum()
	return s ^ (s >> 8)
}

// Extra returns the low byte of Get, the per-message CRC extra.
func (c *X25) Extra() byte {
	return byte(c.Get())
}

// Checksum returns the register after folding p and then extra.
func Checksum(p []byte, extra byte) uint16 {
	c := New()
	c.AccumulateBytes(p)
	c.Accumulate(extra)
	return c.Sum()
}
