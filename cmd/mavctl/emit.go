package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danmuck/mavctl/internal/config"
	"github.com/danmuck/mavctl/internal/protocol/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newEmitCmd() *cobra.Command {
	var (
		cfgPath  string
		out      string
		msgID    uint32
		payload  string
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Write a run of packets from the configured link identity",
		Long: "emit builds packets with the link section of the config (identity, version and\n" +
			"signing key), advancing the sequence number and signing timestamp, and writes\n" +
			"their raw bytes to --out or stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			sc, err := cfg.Session()
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}
			body, err := hex.DecodeString(payload)
			if err != nil {
				return fmt.Errorf("payload: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			sender, err := session.NewSender(w, reg, sc)
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				if i > 0 && interval > 0 {
					select {
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					case <-time.After(interval):
					}
				}
				if _, err := sender.Send(msgID, body); err != nil {
					return err
				}
			}
			log.Info().Int("count", count).Uint32("msg_id", msgID).Bool("signed", sc.Signing()).Msg("emit complete")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file; defaults apply when empty")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file; stdout when empty")
	cmd.Flags().Uint32Var(&msgID, "msg-id", 0, "message id")
	cmd.Flags().StringVar(&payload, "payload", "000000000203510403", "payload as hex")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of packets")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between packets")
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
