package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parseLevel(%q)=%v,%v want %v", raw, got, ok, want)
		}
	}
	if _, ok := parseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogTimestamp, "nope")
	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel || !cfg.NoColor || !cfg.Timestamp {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestApplyBypassWritesJSON(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	apply(Config{Level: zerolog.InfoLevel, Bypass: true}, &buf)
	log.Info().Uint8("sys", 1).Msg("frame")
	if !strings.Contains(buf.String(), `"sys":1`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}

func TestApplyConsoleWithoutTimestamp(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	apply(Config{Level: zerolog.InfoLevel, NoColor: true}, &buf)
	log.Info().Msg("frame")
	out := buf.String()
	if strings.Contains(out, "<nil>") || !strings.HasPrefix(out, "INF frame") {
		t.Fatalf("unexpected console line: %q", out)
	}
}
