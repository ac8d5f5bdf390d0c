package config

import (
	"strings"

	"github.com/danmuck/mavctl/internal/auth"
	"github.com/danmuck/mavctl/internal/bridge"
	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/danmuck/mavctl/internal/protocol/schema"
	"github.com/danmuck/mavctl/internal/protocol/session"
	"github.com/danmuck/mavctl/internal/server"
)

// Session converts the link section. The config must be valid.
func (c Config) Session() (session.Config, error) {
	l := c.Link
	out := session.Config{
		Version:        protocol.V2,
		SystemID:       uint8(l.SystemID),
		ComponentID:    uint8(l.ComponentID),
		LinkID:         uint8(l.LinkID),
		AcceptUnsigned: l.AcceptUnsigned,
		AllowUnknown:   l.AllowUnknown,
	}
	if l.Version == 1 {
		out.Version = protocol.V1
	}
	switch {
	case l.Key != "":
		k, err := auth.ParseHexKey(l.Key)
		if err != nil {
			return session.Config{}, err
		}
		out.Key = k
	case l.Passphrase != "":
		out.Key = auth.KeyFromPassphrase(l.Passphrase)
	}
	return out, nil
}

// Registry returns the common messages plus the configured dialect.
// Dialect entries replace common entries with the same id.
func (c Config) Registry() (*schema.Registry, error) {
	path := strings.TrimSpace(c.Link.Dialect)
	if path == "" {
		return schema.Common(), nil
	}
	extra, err := schema.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.Merge(schema.Common(), extra...)
}

func (c Config) Bridge() bridge.Config {
	out := bridge.DefaultConfig()
	out.Node = c.Node
	out.MaxAttempts = c.NATS.MaxAttempts
	return out
}

func (c Config) Server(stats server.StatsFunc) server.Config {
	return server.Config{
		Node:        c.Node,
		Addr:        c.Status.Addr,
		CORSOrigins: c.Status.CorsOrigins,
		Stats:       stats,
	}
}
