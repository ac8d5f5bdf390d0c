// Package bridge forwards accepted packets from a link to a message bus.
package bridge

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/danmuck/mavctl/internal/observability"
	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Publisher delivers one packet.
type Publisher interface {
	Publish(ctx context.Context, p *protocol.Packet) error
}

// Source yields packets; session.Receiver satisfies it.
type Source interface {
	Next() (*protocol.Packet, error)
}

type Config struct {
	Node        string
	MaxAttempts int
	Backoff     BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Node:        "mavctl",
		MaxAttempts: 3,
		Backoff:     DefaultBackoff(),
	}
}

type Stats struct {
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
}

// Bridge pumps a Source into a Publisher.
type Bridge struct {
	src       Source
	pub       Publisher
	cfg       Config
	rng       *rand.Rand
	sleep     func(context.Context, time.Duration) error
	published atomic.Uint64
	failed    atomic.Uint64
}

func New(src Source, pub Publisher, cfg Config) *Bridge {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Bridge{
		src:   src,
		pub:   pub,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepCtx,
	}
}

// Run forwards packets until the source ends, returning nil, or fails,
// returning its error. Context cancellation is checked between packets;
// a read blocked in the source is released by closing the source.
// Packets that cannot be published after MaxAttempts are logged,
// counted and skipped.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := b.src.Next()
		if err != nil {
			if errors.Is(err, protocol.ErrEndOfStream) {
				log.Info().Uint64("published", b.published.Load()).Msg("bridge source ended")
				return nil
			}
			return err
		}
		if err := b.publish(ctx, p); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.failed.Add(1)
			log.Error().Err(err).
				Uint32("msg_id", p.MessageID()).
				Uint8("sys", p.SystemID()).
				Msg("bridge publish failed")
			continue
		}
		b.published.Add(1)
	}
}

func (b *Bridge) publish(ctx context.Context, p *protocol.Packet) error {
	start := time.Now()
	var err error
	for attempt := 1; attempt <= b.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := NextBackoffDelay(b.cfg.Backoff, attempt-1, b.rng)
			if serr := b.sleep(ctx, delay); serr != nil {
				break
			}
		}
		if err = b.pub.Publish(ctx, p); err == nil {
			break
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("bridge publish retry")
	}
	observability.RecordPublish(b.cfg.Node, time.Since(start), err == nil)
	return err
}

func (b *Bridge) Stats() Stats {
	return Stats{Published: b.published.Load(), Failed: b.failed.Load()}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
