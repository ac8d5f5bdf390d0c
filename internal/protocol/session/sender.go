package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/danmuck/mavctl/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

// Sender encodes and writes packets for one (system, component, link).
// It is safe for concurrent use; writes are serialized.
type Sender struct {
	mu     sync.Mutex
	w      io.Writer
	reg    *schema.Registry
	cfg    Config
	seq    uint8
	lastTS uint64
	now    func() time.Time
}

func NewSender(w io.Writer, reg *schema.Registry, cfg Config) (*Sender, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sender{w: w, reg: reg, cfg: cfg, now: time.Now}, nil
}

// Build encodes the next packet without writing it. The sequence number
// advances on every successful build.
func (s *Sender) Build(msgID uint32, payload []byte) (*protocol.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.build(msgID, payload)
}

// Send builds the next packet and writes its raw bytes.
func (s *Sender) Send(msgID uint32, payload []byte) (*protocol.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.build(msgID, payload)
	if err != nil {
		return nil, err
	}
	if _, err := s.w.Write(p.Raw()); err != nil {
		return nil, fmt.Errorf("session: write packet: %w", err)
	}
	log.Trace().
		Uint32("msg_id", msgID).
		Uint8("seq", p.Sequence()).
		Bool("signed", p.IsSigned()).
		Msg("session.Sender sent")
	return p, nil
}

func (s *Sender) build(msgID uint32, payload []byte) (*protocol.Packet, error) {
	extra, ok := s.reg.CRCExtra(msgID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, msgID)
	}
	h := protocol.Header{
		Sequence:    s.seq,
		SystemID:    s.cfg.SystemID,
		ComponentID: s.cfg.ComponentID,
		MessageID:   msgID,
	}

	var (
		p   *protocol.Packet
		err error
	)
	switch {
	case s.cfg.Version == protocol.V1:
		if msgID > protocol.MaxMessageIDV1 {
			return nil, fmt.Errorf("%w: %d", ErrMessageIDOutOfRange, msgID)
		}
		p, err = protocol.NewV1Packet(h, extra, payload)
	case s.cfg.Signing():
		p, err = protocol.NewSignedV2Packet(h, extra, payload, protocol.Signing{
			LinkID:    s.cfg.LinkID,
			Timestamp: s.nextTimestamp(),
			Key:       s.cfg.Key.Bytes(),
		})
	default:
		p, err = protocol.NewV2Packet(h, extra, payload)
	}
	if err != nil {
		return nil, err
	}
	s.seq++
	return p, nil
}

// nextTimestamp never repeats within a Sender, even when the clock
// stalls or steps back.
func (s *Sender) nextTimestamp() uint64 {
	ts := Timestamp(s.now())
	if ts <= s.lastTS && s.lastTS < protocol.MaxTimestamp {
		ts = s.lastTS + 1
	}
	s.lastTS = ts
	return ts
}
