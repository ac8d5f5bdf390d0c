// Package auth provides MAVLink v2 signing keys and packet verifiers.
//
// It avoids key storage and distribution concerns.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/mavctl/internal/protocol"
)

var (
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrInvalidKey   = errors.New("auth: invalid key")
)

// KeyLen is the MAVLink signing secret length.
const KeyLen = 32

type Key [KeyLen]byte

func (k Key) Bytes() []byte {
	out := make([]byte, KeyLen)
	copy(out, k[:])
	return out
}

func (k Key) IsZero() bool {
	return k == Key{}
}

// ParseHexKey decodes a 64 digit hex secret.
func ParseHexKey(s string) (Key, error) {
	var k Key
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return k, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != KeyLen {
		return k, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidKey, len(raw), KeyLen)
	}
	copy(k[:], raw)
	return k, nil
}

// KeyFromPassphrase derives a key as SHA-256 of the passphrase, the way
// ground stations turn a typed secret into a signing key.
func KeyFromPassphrase(passphrase string) Key {
	return Key(sha256.Sum256([]byte(passphrase)))
}

// Verifier decides whether a packet is authentic.
type Verifier interface {
	Verify(p *protocol.Packet) error
}

// StaticKey accepts signed packets that validate under any of Keys.
type StaticKey struct {
	Keys []Key
}

func (s StaticKey) Verify(p *protocol.Packet) error {
	if p == nil || !p.IsSigned() {
		return ErrUnauthorized
	}
	for _, k := range s.Keys {
		if k.IsZero() {
			continue
		}
		if p.ValidateSignature(k[:]) {
			return nil
		}
	}
	return ErrUnauthorized
}

// FuncVerifier adapts a function into a Verifier.
type FuncVerifier func(p *protocol.Packet) error

func (f FuncVerifier) Verify(p *protocol.Packet) error {
	return f(p)
}
