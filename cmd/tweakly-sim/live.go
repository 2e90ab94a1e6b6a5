package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"tweakly/config"
	"tweakly/core"
	"tweakly/host/logging"
	"tweakly/host/periph"
	"tweakly/host/serial"
)

// hostInit loads the periph host drivers; tests swap it out
var hostInit = periph.Init

type liveOptions struct {
	board       string
	traceDevice string
	baud        int
	period      time.Duration
	duration    time.Duration
	maxDuty     uint32
	frequency   int64
	dumpEvents  bool
}

func newLiveCmd(global *globalOptions) *cobra.Command {
	opts := &liveOptions{}
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Run a board on real GPIO lines through periph.io",
		Long: `live registers the board on the host's GPIO lines (named GPIOn) and pumps
the scheduler on the wall clock until interrupted or --duration elapses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if opts.duration > 0 {
				var stop context.CancelFunc
				ctx, stop = context.WithTimeout(ctx, opts.duration)
				defer stop()
			}
			return runLive(ctx, cmd.ErrOrStderr(), global, opts)
		},
	}
	cmd.Flags().StringVar(&opts.board, "board", "board.yaml", "Path to the board description")
	cmd.Flags().StringVar(&opts.traceDevice, "trace-device", "", "Serial device that receives a copy of the log")
	cmd.Flags().IntVar(&opts.baud, "baud", serial.DefaultBaud, "Baud rate of the trace device")
	cmd.Flags().DurationVar(&opts.period, "period", time.Millisecond, "Pump period")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	cmd.Flags().Uint32Var(&opts.maxDuty, "max-duty", 255, "Duty value mapped to 100%")
	cmd.Flags().Int64Var(&opts.frequency, "pwm-frequency", 1000, "PWM carrier frequency in Hz")
	cmd.Flags().BoolVar(&opts.dumpEvents, "dump-events", false, "Dump the scheduler event ring on exit (debug level)")
	return cmd
}

func runLive(ctx context.Context, stderr io.Writer, global *globalOptions, opts *liveOptions) error {
	if opts.period <= 0 {
		return fmt.Errorf("period must be positive, got %v", opts.period)
	}
	board, err := config.Load(opts.board)
	if err != nil {
		return fmt.Errorf("board %s: %w", opts.board, err)
	}
	logger, trace, err := openLog(stderr, global, opts.traceDevice, opts.baud)
	if err != nil {
		return err
	}
	if trace != nil {
		defer closeTrace(logger, trace)
	}
	logger = logger.With().Str("board", board.Name).Logger()

	if err := hostInit(); err != nil {
		return err
	}
	gpio := periph.NewGPIO()
	pwm := periph.NewPWM(core.PWMValue(opts.maxDuty), physic.Frequency(opts.frequency)*physic.Hertz)
	s, err := core.New(periph.NewClock(), gpio, pwm, append(board.Options(), logging.Options(logger)...)...)
	if err != nil {
		return err
	}
	if err := config.Apply(s, board, boardActions(logger, s)); err != nil {
		return err
	}

	logger.Info().Dur("period", opts.period).Msg("live loop started")
	passes := pump(ctx, s, opts.period)
	logger.Info().Int("passes", passes).Uint32("at", uint32(s.Now())).Msg("live loop stopped")
	if opts.dumpEvents {
		s.DumpEvents()
	}
	return nil
}

// pump runs the scheduler once per period until ctx ends
func pump(ctx context.Context, s *core.Scheduler, period time.Duration) int {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	passes := 0
	for {
		s.Run()
		passes++
		select {
		case <-ctx.Done():
			return passes
		case <-ticker.C:
		}
	}
}
