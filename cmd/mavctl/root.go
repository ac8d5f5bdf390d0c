package main

import (
	"fmt"

	"github.com/danmuck/mavctl/internal/logging"
	"github.com/danmuck/mavctl/internal/observability"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:           "mavctl",
		Short:         "Encode, inspect and bridge MAVLink v1/v2 packet streams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			observability.InitLogger("mavctl")
			if level != "" && !logging.SetLevel(level) {
				return fmt.Errorf("unknown log level %q", level)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "", "override MAVCTL_LOG_LEVEL (trace|debug|info|warn|error)")

	root.AddCommand(
		newDumpCmd(),
		newEncodeCmd(),
		newEmitCmd(),
		newBridgeCmd(),
		newConfigCmd(),
	)
	return root
}
