package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/mavctl/internal/auth"
	"github.com/danmuck/mavctl/internal/protocol/schema"
	"github.com/spf13/cobra"
)

// linkFlags are the key and dialect flags shared by the packet commands.
type linkFlags struct {
	key        string
	passphrase string
	dialect    string
}

func (f *linkFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.key, "key", "", "signing key as 64 hex digits")
	cmd.Flags().StringVar(&f.passphrase, "passphrase", "", "derive the signing key from a passphrase")
	cmd.Flags().StringVar(&f.dialect, "dialect", "", "TOML dialect merged over the common messages")
	cmd.MarkFlagsMutuallyExclusive("key", "passphrase")
}

func (f *linkFlags) signingKey() (auth.Key, error) {
	switch {
	case f.key != "":
		return auth.ParseHexKey(f.key)
	case f.passphrase != "":
		return auth.KeyFromPassphrase(f.passphrase), nil
	}
	return auth.Key{}, nil
}

func (f *linkFlags) registry() (*schema.Registry, error) {
	if f.dialect == "" {
		return schema.Common(), nil
	}
	descs, err := schema.LoadFile(f.dialect)
	if err != nil {
		return nil, err
	}
	return schema.Merge(schema.Common(), descs...)
}

// openInput returns stdin for "" or "-". The process stdin is returned
// as is so closing it can release a pending read.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok {
			return f, nil
		}
		return io.NopCloser(in), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
