package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/danmuck/mavctl/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
)

func signedWith(t *testing.T, k Key) *protocol.Packet {
	t.Helper()
	p, err := protocol.NewSignedV2Packet(protocol.Header{SystemID: 1, ComponentID: 1}, 50, []byte{0, 0, 0, 0, 2, 3, 0x51, 4, 3},
		protocol.Signing{LinkID: 0, Timestamp: 1, Key: k.Bytes()})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return p
}

func TestParseHexKey(t *testing.T) {
	testlog.Start(t)
	k, err := ParseHexKey(strings.Repeat("ab", KeyLen) + "\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if k[0] != 0xAB || k[31] != 0xAB {
		t.Fatalf("unexpected key %x", k)
	}
	for _, bad := range []string{"", "zz", strings.Repeat("ab", KeyLen-1)} {
		if _, err := ParseHexKey(bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("ParseHexKey(%q): expected ErrInvalidKey, got %v", bad, err)
		}
	}
}

func TestKeyFromPassphraseIsStable(t *testing.T) {
	testlog.Start(t)
	a := KeyFromPassphrase("correct horse")
	b := KeyFromPassphrase("correct horse")
	if a != b || a.IsZero() {
		t.Fatalf("derivation not stable")
	}
	if a == KeyFromPassphrase("correct horse.") {
		t.Fatalf("different passphrases produced the same key")
	}
	buf := a.Bytes()
	buf[0] ^= 0xFF
	if a.Bytes()[0] == buf[0] {
		t.Fatalf("Bytes aliases key storage")
	}
}

func TestStaticKeyVerify(t *testing.T) {
	testlog.Start(t)
	good := KeyFromPassphrase("vehicle-1")
	other := KeyFromPassphrase("vehicle-2")
	unsigned, _ := protocol.NewV2Packet(protocol.Header{}, 50, nil)

	tests := []struct {
		name    string
		keys    []Key
		packet  *protocol.Packet
		wantErr error
	}{
		{name: "no keys denied", keys: nil, packet: signedWith(t, good), wantErr: ErrUnauthorized},
		{name: "zero key skipped", keys: []Key{{}}, packet: signedWith(t, Key{}), wantErr: ErrUnauthorized},
		{name: "wrong key denied", keys: []Key{other}, packet: signedWith(t, good), wantErr: ErrUnauthorized},
		{name: "unsigned denied", keys: []Key{good}, packet: unsigned, wantErr: ErrUnauthorized},
		{name: "nil denied", keys: []Key{good}, packet: nil, wantErr: ErrUnauthorized},
		{name: "matching key accepted", keys: []Key{good}, packet: signedWith(t, good), wantErr: nil},
		{name: "any listed key accepted", keys: []Key{other, good}, packet: signedWith(t, good), wantErr: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticKey{Keys: tc.keys}).Verify(tc.packet)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
			log.Debug().Str("case", tc.name).AnErr("err", err).Msg("auth/static-key")
		})
	}
}

func TestFuncVerifier(t *testing.T) {
	testlog.Start(t)
	v := FuncVerifier(func(p *protocol.Packet) error {
		if p.SystemID() != 1 {
			return ErrUnauthorized
		}
		return nil
	})
	ok, _ := protocol.NewV1Packet(protocol.Header{SystemID: 1}, 0, nil)
	bad, _ := protocol.NewV1Packet(protocol.Header{SystemID: 2}, 0, nil)
	if err := v.Verify(ok); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := v.Verify(bad); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
