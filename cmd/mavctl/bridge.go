package main

import (
	"context"
	"errors"
	"io"

	"github.com/danmuck/mavctl/internal/bridge"
	"github.com/danmuck/mavctl/internal/config"
	"github.com/danmuck/mavctl/internal/observability"
	"github.com/danmuck/mavctl/internal/protocol/session"
	"github.com/danmuck/mavctl/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type bridgeStats struct {
	Link   session.Stats `json:"link"`
	Bridge bridge.Stats  `json:"bridge"`
}

func newBridgeCmd() *cobra.Command {
	var (
		cfgPath string
		input   string
	)
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Forward accepted packets from a link to NATS and serve status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			in, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer in.Close()

			pub, err := bridge.DialNATS(cfg.NATS.URL, cfg.NATS.Subject, cfg.Node)
			if err != nil {
				return err
			}
			defer pub.Close()
			return runBridge(cmd.Context(), cfg, in, pub)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file; defaults apply when empty")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "link byte stream (file, fifo or - for stdin)")
	return cmd
}

// runBridge wires receiver, publisher and status server until the input
// ends or ctx is done.
func runBridge(ctx context.Context, cfg config.Config, in io.ReadCloser, pub bridge.Publisher) error {
	sc, err := cfg.Session()
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	observability.RegisterMetrics()
	recv, err := session.NewReceiver(in, reg, sc, session.WithObserver(observability.LinkMetrics{Node: cfg.Node}))
	if err != nil {
		return err
	}
	b := bridge.New(recv, pub, cfg.Bridge())

	srv := server.New(cfg.Server(func() any {
		return bridgeStats{Link: recv.Stats(), Bridge: b.Stats()}
	}))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Serve(ctx) }()

	// A read blocked on the link is released by closing it.
	go func() {
		<-ctx.Done()
		_ = in.Close()
	}()

	srv.SetReady(true)
	log.Info().
		Str("node", cfg.Node).
		Str("subject", cfg.NATS.Subject).
		Bool("signing", sc.Signing()).
		Msg("bridge started")
	// Cancellation does not wait for a read the input cannot interrupt.
	runDone := make(chan error, 1)
	go func() { runDone <- b.Run(ctx) }()
	var runErr error
	stopped := false
	select {
	case runErr = <-runDone:
		stopped = ctx.Err() != nil
	case <-ctx.Done():
		stopped = true
		log.Info().Str("node", cfg.Node).Msg("bridge stopping")
	}
	srv.SetReady(false)
	cancel()
	if err := <-srvErr; err != nil {
		log.Error().Err(err).Msg("status server failed")
	}
	if stopped || errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
