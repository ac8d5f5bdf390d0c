package session

import (
	"io"
	"sync"

	"github.com/danmuck/mavctl/internal/auth"
	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/danmuck/mavctl/internal/protocol/frame"
	"github.com/danmuck/mavctl/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

// RejectReason labels why a Receiver dropped a packet.
type RejectReason string

const (
	RejectUnknown   RejectReason = "unknown_message"
	RejectLength    RejectReason = "length"
	RejectCRC       RejectReason = "crc"
	RejectUnsigned  RejectReason = "unsigned"
	RejectSignature RejectReason = "signature"
	RejectReplay    RejectReason = "replay"
)

// Observer is notified of every receive outcome.
type Observer interface {
	PacketAccepted(p *protocol.Packet)
	PacketRejected(reason string)
}

type Stats struct {
	Frames   uint64                  `json:"frames"`
	Drops    uint64                  `json:"drops"`
	Accepted uint64                  `json:"accepted"`
	Rejected map[RejectReason]uint64 `json:"rejected"`
}

type streamKey struct {
	system, component, link uint8
}

// Receiver yields only packets that pass descriptor, checksum and
// signature checks. Failed packets are dropped through the pump so a
// valid frame starting inside them is still found.
//
// Next must be called from one goroutine; Stats may be called from any.
type Receiver struct {
	in       *protocol.Reader
	reg      *schema.Registry
	cfg      Config
	verifier auth.Verifier
	observer Observer

	mu       sync.Mutex
	frames   frame.Stats
	accepted uint64
	rejected map[RejectReason]uint64
	lastSeen map[streamKey]uint64
}

// ReceiverOption customizes a Receiver.
type ReceiverOption func(*Receiver)

// WithVerifier replaces the verifier derived from Config.Key.
func WithVerifier(v auth.Verifier) ReceiverOption {
	return func(r *Receiver) { r.verifier = v }
}

func WithObserver(o Observer) ReceiverOption {
	return func(r *Receiver) { r.observer = o }
}

func NewReceiver(src io.Reader, reg *schema.Registry, cfg Config, opts ...ReceiverOption) (*Receiver, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Receiver{
		in:       protocol.NewReader(src),
		reg:      reg,
		cfg:      cfg,
		rejected: make(map[RejectReason]uint64),
		lastSeen: make(map[streamKey]uint64),
	}
	if cfg.Signing() {
		r.verifier = auth.StaticKey{Keys: []auth.Key{cfg.Key}}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Next returns the next accepted packet, protocol.ErrEndOfStream at end
// of input, or the source's I/O error.
func (r *Receiver) Next() (*protocol.Packet, error) {
	defer r.syncFrames()
	for {
		p, err := r.in.Next()
		if err != nil {
			return nil, err
		}
		reason, ok := r.check(p)
		if ok {
			r.accept(p)
			return p, nil
		}
		r.reject(p, reason)
		if err := r.in.Drop(); err != nil {
			return nil, err
		}
	}
}

// syncFrames publishes the pump counters, which are owned by the Next
// goroutine, for Stats.
func (r *Receiver) syncFrames() {
	fs := r.in.Stats()
	r.mu.Lock()
	r.frames = fs
	r.mu.Unlock()
}

func (r *Receiver) check(p *protocol.Packet) (RejectReason, bool) {
	extra, known := r.reg.CRCExtra(p.MessageID())
	if !known {
		if r.cfg.AllowUnknown {
			return "", true
		}
		return RejectUnknown, false
	}
	if err := r.reg.Validate(p.Version(), p.MessageID(), p.PayloadLen()); err != nil {
		return RejectLength, false
	}
	if !p.ValidateCRC(extra) {
		return RejectCRC, false
	}
	if r.verifier == nil {
		return "", true
	}
	if !p.IsSigned() {
		if !r.cfg.AcceptUnsigned {
			return RejectUnsigned, false
		}
		return "", true
	}
	if err := r.verifier.Verify(p); err != nil {
		return RejectSignature, false
	}
	return r.checkReplay(p)
}

// checkReplay requires the signing timestamp of each (system, component,
// link) stream to strictly increase.
func (r *Receiver) checkReplay(p *protocol.Packet) (RejectReason, bool) {
	link, _ := p.SignatureLinkID()
	ts, _ := p.SignatureTimestamp()
	key := streamKey{system: p.SystemID(), component: p.ComponentID(), link: link}

	r.mu.Lock()
	defer r.mu.Unlock()
	if last, seen := r.lastSeen[key]; seen && ts <= last {
		return RejectReplay, false
	}
	r.lastSeen[key] = ts
	return "", true
}

func (r *Receiver) accept(p *protocol.Packet) {
	r.mu.Lock()
	r.accepted++
	r.mu.Unlock()
	if r.observer != nil {
		r.observer.PacketAccepted(p)
	}
}

func (r *Receiver) reject(p *protocol.Packet, reason RejectReason) {
	r.mu.Lock()
	r.rejected[reason]++
	r.mu.Unlock()
	// Candidate frames cut from noise fail structurally all the time;
	// only authentication failures are worth a warning.
	ev := log.Debug()
	switch reason {
	case RejectUnsigned, RejectSignature, RejectReplay:
		ev = log.Warn()
	}
	ev.Str("reason", string(reason)).
		Uint32("msg_id", p.MessageID()).
		Uint8("sys", p.SystemID()).
		Uint8("comp", p.ComponentID()).
		Stringer("version", p.Version()).
		Msg("session.Receiver rejected packet")
	if r.observer != nil {
		r.observer.PacketRejected(string(reason))
	}
}

// Stats returns a snapshot of receive counters.
func (r *Receiver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Stats{
		Frames:   r.frames.Frames,
		Drops:    r.frames.Drops,
		Accepted: r.accepted,
		Rejected: make(map[RejectReason]uint64, len(r.rejected)),
	}
	for k, v := range r.rejected {
		out.Rejected[k] = v
	}
	return out
}
