package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/mavctl/internal/auth"
	"github.com/danmuck/mavctl/internal/protocol"
)

var (
	ErrInvalidVersion      = errors.New("session: invalid protocol version")
	ErrSigningRequiresV2   = errors.New("session: signing requires protocol v2")
	ErrUnknownMessage      = errors.New("session: unknown message id")
	ErrMessageIDOutOfRange = errors.New("session: message id out of range for version")
)

// Config identifies one end of a link and its acceptance policy.
type Config struct {
	Version     protocol.Version
	SystemID    uint8
	ComponentID uint8
	LinkID      uint8

	// Key signs outgoing v2 packets and verifies incoming ones. The zero
	// key disables signing.
	Key auth.Key

	// AcceptUnsigned lets unsigned packets through a Receiver that
	// verifies signatures. Without a verifier they are always accepted.
	AcceptUnsigned bool
	// AllowUnknown delivers packets with no descriptor, unchecked.
	AllowUnknown bool
}

// DefaultConfig returns ground station defaults: v2, system 255,
// component 190, no signing.
func DefaultConfig() Config {
	return Config{
		Version:     protocol.V2,
		SystemID:    255,
		ComponentID: 190,
	}
}

// WithDefaults fills unset identity fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.SystemID == 0 {
		c.SystemID = d.SystemID
	}
	if c.ComponentID == 0 {
		c.ComponentID = d.ComponentID
	}
	return c
}

func (c Config) Signing() bool {
	return !c.Key.IsZero()
}

func (c Config) Validate() error {
	switch c.Version {
	case protocol.V1:
		if c.Signing() {
			return ErrSigningRequiresV2
		}
	case protocol.V2:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidVersion, c.Version)
	}
	return nil
}

// signingEpoch is 2015-01-01T00:00:00Z, the origin of signing timestamps.
var signingEpoch = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

// Timestamp converts t to signing units of 10µs since 2015-01-01 UTC,
// clamped to the 48 bit field.
func Timestamp(t time.Time) uint64 {
	if t.Before(signingEpoch) {
		return 0
	}
	ts := uint64(t.Sub(signingEpoch).Microseconds() / 10)
	if ts > protocol.MaxTimestamp {
		return protocol.MaxTimestamp
	}
	return ts
}
