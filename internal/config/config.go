package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/mavctl/internal/auth"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config is the mavctl process configuration file.
type Config struct {
	Node   string       `toml:"node"`
	Link   LinkConfig   `toml:"link"`
	NATS   NATSConfig   `toml:"nats"`
	Status StatusConfig `toml:"status"`
}

type LinkConfig struct {
	Version        int    `toml:"version"`
	SystemID       int    `toml:"system_id"`
	ComponentID    int    `toml:"component_id"`
	LinkID         int    `toml:"link_id"`
	Key            string `toml:"key"`
	Passphrase     string `toml:"passphrase"`
	AcceptUnsigned bool   `toml:"accept_unsigned"`
	AllowUnknown   bool   `toml:"allow_unknown"`
	Dialect        string `toml:"dialect"`
}

type NATSConfig struct {
	URL         string `toml:"url"`
	Subject     string `toml:"subject"`
	MaxAttempts int    `toml:"max_attempts"`
}

type StatusConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func Default() Config {
	return Config{
		Node: "mavctl",
		Link: LinkConfig{
			Version:     2,
			SystemID:    255,
			ComponentID: 190,
		},
		NATS: NATSConfig{
			URL:         "nats://127.0.0.1:4222",
			Subject:     "mavlink.raw",
			MaxAttempts: 3,
		},
		Status: StatusConfig{
			Addr:        "127.0.0.1:9180",
			CorsOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Load reads path over Default and validates the result. Unknown keys
// are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Node) == "" {
		return fmt.Errorf("%w: missing node", ErrInvalidConfig)
	}
	l := cfg.Link
	if l.Version != 1 && l.Version != 2 {
		return fmt.Errorf("%w: link.version must be 1 or 2, got %d", ErrInvalidConfig, l.Version)
	}
	for name, v := range map[string]int{
		"link.system_id":    l.SystemID,
		"link.component_id": l.ComponentID,
		"link.link_id":      l.LinkID,
	} {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: %s out of range: %d", ErrInvalidConfig, name, v)
		}
	}
	if l.Key != "" && l.Passphrase != "" {
		return fmt.Errorf("%w: link.key and link.passphrase are exclusive", ErrInvalidConfig)
	}
	if l.Key != "" {
		if _, err := auth.ParseHexKey(l.Key); err != nil {
			return fmt.Errorf("%w: link.key: %v", ErrInvalidConfig, err)
		}
	}
	if l.Version == 1 && (l.Key != "" || l.Passphrase != "") {
		return fmt.Errorf("%w: signing requires link.version 2", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.NATS.Subject) == "" {
		return fmt.Errorf("%w: missing nats.subject", ErrInvalidConfig)
	}
	if cfg.NATS.MaxAttempts < 1 {
		return fmt.Errorf("%w: nats.max_attempts must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Status.Addr) == "" {
		return fmt.Errorf("%w: missing status.addr", ErrInvalidConfig)
	}
	for _, origin := range cfg.Status.CorsOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("%w: status.cors_origins entry %q needs an http(s) scheme", ErrInvalidConfig, origin)
		}
	}
	return nil
}
