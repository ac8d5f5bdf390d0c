package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/mavctl/internal/auth"
	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/danmuck/mavctl/internal/testutil/testlog"
)

func TestTemplateParsesToDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := Parse([]byte(Template()))
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	def := Default()
	if cfg.Node != def.Node || cfg.Link != def.Link || cfg.NATS != def.NATS || cfg.Status.Addr != def.Status.Addr {
		t.Fatalf("template drifted from defaults: %+v", cfg)
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := Parse([]byte(`
node = "gcs-1"
[link]
system_id = 42
passphrase = "fleet"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Node != "gcs-1" || cfg.Link.SystemID != 42 || cfg.Link.ComponentID != 190 || cfg.NATS.Subject != "mavlink.raw" {
		t.Fatalf("unexpected overlay: %+v", cfg)
	}
	sc, err := cfg.Session()
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sc.Version != protocol.V2 || sc.SystemID != 42 || sc.Key != auth.KeyFromPassphrase("fleet") {
		t.Fatalf("unexpected session config: %+v", sc)
	}
}

func TestParseRejects(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"unknown key":       "colour = \"blue\"\n",
		"bad version":       "[link]\nversion = 3\n",
		"system id range":   "[link]\nsystem_id = 256\n",
		"bad key":           "[link]\nkey = \"abcd\"\n",
		"key and phrase":    "[link]\nkey = \"" + strings.Repeat("00", 32) + "\"\npassphrase = \"x\"\n",
		"signed v1":         "[link]\nversion = 1\npassphrase = \"x\"\n",
		"empty subject":     "[nats]\nsubject = \" \"\n",
		"zero attempts":     "[nats]\nmax_attempts = 0\n",
		"empty status addr": "[status]\naddr = \"\"\n",
		"bare cors origin":  "[status]\ncors_origins = [\"localhost\"]\n",
	}
	for name, in := range cases {
		if _, err := Parse([]byte(in)); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if name != "unknown key" && !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestWriteTemplateAndLoad(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "mavctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bc := cfg.Bridge(); bc.Node != "mavctl" || bc.MaxAttempts != 3 {
		t.Fatalf("bridge config: %+v", bc)
	}
	if sc := cfg.Server(nil); sc.Addr != "127.0.0.1:9180" || len(sc.CORSOrigins) != 1 {
		t.Fatalf("server config: %+v", sc)
	}
}

func TestRegistryWithDialect(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	dialect := filepath.Join(dir, "vendor.toml")
	err := os.WriteFile(dialect, []byte(`
[[message]]
id = 42000
name = "VENDOR_PING"
  [[message.field]]
  name = "seq"
  type = "uint32_t"
`), 0o644)
	if err != nil {
		t.Fatalf("write dialect: %v", err)
	}
	cfg := Default()
	cfg.Link.Dialect = dialect
	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if _, ok := reg.Lookup(42000); !ok {
		t.Fatalf("dialect message missing")
	}
	if _, ok := reg.Lookup(0); !ok {
		t.Fatalf("common message missing")
	}

	cfg.Link.Dialect = filepath.Join(dir, "missing.toml")
	if _, err := cfg.Registry(); err == nil {
		t.Fatalf("expected error for missing dialect")
	}
}
