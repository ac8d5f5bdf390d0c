package main

import (
	"errors"

	"github.com/bytedance/sonic"
	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/danmuck/mavctl/internal/protocol/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type packetSource interface {
	Next() (*protocol.Packet, error)
}

func newDumpCmd() *cobra.Command {
	var (
		link     linkFlags
		validate bool
		unknown  bool
		unsigned bool
	)
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Print each framed packet as a JSON line",
		Long: "dump reads a byte stream from file (or stdin) and prints one JSON object per packet.\n" +
			"Without --validate every frame is printed; with it only packets passing descriptor,\n" +
			"checksum and signature checks are printed and rejects are counted.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			in, err := openInput(cmd, path)
			if err != nil {
				return err
			}
			defer in.Close()

			var (
				src      packetSource
				receiver *session.Receiver
				reader   *protocol.Reader
			)
			if validate {
				reg, err := link.registry()
				if err != nil {
					return err
				}
				key, err := link.signingKey()
				if err != nil {
					return err
				}
				cfg := session.DefaultConfig()
				cfg.Key = key
				cfg.AllowUnknown = unknown
				cfg.AcceptUnsigned = unsigned
				if err := cfg.Validate(); err != nil {
					return err
				}
				receiver, err = session.NewReceiver(in, reg, cfg)
				if err != nil {
					return err
				}
				src = receiver
			} else {
				reader = protocol.NewReader(in)
				src = reader
			}

			enc := sonic.ConfigStd.NewEncoder(cmd.OutOrStdout())
			count := 0
			for {
				p, err := src.Next()
				if errors.Is(err, protocol.ErrEndOfStream) {
					break
				}
				if err != nil {
					return err
				}
				if err := enc.Encode(p.View()); err != nil {
					return err
				}
				count++
			}

			ev := log.Info().Int("packets", count)
			if receiver != nil {
				st := receiver.Stats()
				ev = ev.Uint64("frames", st.Frames).Uint64("drops", st.Drops).Interface("rejected", st.Rejected)
			} else {
				st := reader.Stats()
				ev = ev.Uint64("frames", st.Frames).Uint64("drops", st.Drops)
			}
			ev.Msg("dump complete")
			return nil
		},
	}
	link.bind(cmd)
	cmd.Flags().BoolVar(&validate, "validate", false, "check descriptors, checksums and signatures")
	cmd.Flags().BoolVar(&unknown, "allow-unknown", false, "with --validate, pass messages missing from the registry")
	cmd.Flags().BoolVar(&unsigned, "accept-unsigned", false, "with --validate and a key, also pass unsigned packets")
	return cmd
}
