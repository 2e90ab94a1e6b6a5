// Command tweakly-sim runs board descriptions against scripted scenarios on
// simulated time, or live on a Linux board's GPIO lines.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "tweakly-sim",
		Short:         "Simulate a cooperative scheduler board on the host",
		Long:          `tweakly-sim loads a YAML board description, registers its ticks, buttons, encoders and PWM channels, and pumps the scheduler on a simulated millisecond clock or, with live, on real GPIO lines.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text or json)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newLiveCmd(opts))
	root.AddCommand(newCheckCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
