package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tweakly/config"
)

func newCheckCmd() *cobra.Command {
	var boardPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a board file",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := config.Load(boardPath)
			if err != nil {
				return fmt.Errorf("board %s: %w", boardPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d inputs, %d outputs, %d encoders, %d pwm, %d ticks)\n",
				b.Name, len(b.Inputs), len(b.Outputs), len(b.Encoders), len(b.PWM), len(b.Ticks))
			return nil
		},
	}
	cmd.Flags().StringVar(&boardPath, "board", "board.yaml", "Path to the board description")
	return cmd
}
