package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tweakly/config"
	"tweakly/core"
	"tweakly/host/logging"
	"tweakly/host/serial"
	"tweakly/host/sim"
)

type runOptions struct {
	board       string
	scenario    string
	traceDevice string
	baud        int
	lines       uint32
	maxDuty     uint32
	dumpEvents  bool
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario against a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runScenario(ctx, cmd.ErrOrStderr(), global, opts)
		},
	}
	cmd.Flags().StringVar(&opts.board, "board", "board.yaml", "Path to the board description")
	cmd.Flags().StringVar(&opts.scenario, "scenario", "scenario.yaml", "Path to the scenario script")
	cmd.Flags().StringVar(&opts.traceDevice, "trace-device", "", "Serial device that receives a copy of the log")
	cmd.Flags().IntVar(&opts.baud, "baud", serial.DefaultBaud, "Baud rate of the trace device")
	cmd.Flags().Uint32Var(&opts.lines, "lines", 30, "Number of simulated GPIO lines")
	cmd.Flags().Uint32Var(&opts.maxDuty, "max-duty", 255, "Largest duty value the simulated PWM accepts")
	cmd.Flags().BoolVar(&opts.dumpEvents, "dump-events", false, "Dump the scheduler event ring at the end (debug level)")
	return cmd
}

func runScenario(ctx context.Context, stderr io.Writer, global *globalOptions, opts *runOptions) error {
	board, err := config.Load(opts.board)
	if err != nil {
		return fmt.Errorf("board %s: %w", opts.board, err)
	}
	sc, err := sim.LoadScenario(opts.scenario)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", opts.scenario, err)
	}

	logger, trace, err := openLog(stderr, global, opts.traceDevice, opts.baud)
	if err != nil {
		return err
	}
	if trace != nil {
		defer closeTrace(logger, trace)
	}
	logger = logger.With().Str("board", board.Name).Logger()

	clock := &sim.Clock{}
	gpio := sim.NewGPIO(opts.lines, clock)
	pwm := sim.NewPWM(core.PWMValue(opts.maxDuty), clock)
	traceWrites(logger, gpio, pwm)

	s, err := core.New(clock, gpio, pwm, append(board.Options(), logging.Options(logger)...)...)
	if err != nil {
		return err
	}
	if err := config.Apply(s, board, boardActions(logger, s)); err != nil {
		return err
	}

	runner := &sim.Runner{Scheduler: s, Clock: clock, GPIO: gpio, Log: logger}
	if _, err := runner.Run(ctx, sc); err != nil {
		return err
	}
	if opts.dumpEvents {
		s.DumpEvents()
	}
	return nil
}

// openLog builds the command logger, mirrored to a serial trace device
// when one is given
func openLog(stderr io.Writer, global *globalOptions, device string, baud int) (zerolog.Logger, *serial.Trace, error) {
	writers := []io.Writer{stderr}
	var trace *serial.Trace
	if device != "" {
		cfg := serial.DefaultConfig(device)
		cfg.Baud = baud
		var err error
		trace, err = serial.Open(cfg)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		writers = append(writers, trace)
	}
	logger, err := logging.Setup(global.logLevel, global.logFormat, writers...)
	if err != nil {
		if trace != nil {
			trace.Close()
		}
		return zerolog.Nop(), nil, err
	}
	return logger, trace, nil
}

func closeTrace(logger zerolog.Logger, trace *serial.Trace) {
	if err := trace.Err(); err != nil {
		logger.Warn().Err(err).Int("lines", trace.Lines()).Msg("trace device detached")
	}
	trace.Close()
}

// boardActions routes declarative board hooks into the log
func boardActions(logger zerolog.Logger, s *core.Scheduler) config.Actions {
	return config.Actions{
		Log: func(tick, msg string) {
			logger.Info().Str("tick", tick).Msg(msg)
		},
		Encoder: func(name string, dir bool) {
			logger.Info().Str("encoder", name).Bool("direction", dir).Uint32("at", uint32(s.Now())).Msg("encoder step")
		},
		Fault: func(tick string, err error) {
			logger.Warn().Str("tick", tick).Err(err).Msg("tick action failed")
		},
	}
}

func traceWrites(logger zerolog.Logger, gpio *sim.GPIO, pwm *sim.PWM) {
	gpio.OnWrite = func(w sim.PinWrite) {
		logger.Info().Uint32("at", uint32(w.At)).Uint32("pin", uint32(w.Pin)).Bool("level", w.Level).Msg("gpio write")
	}
	pwm.OnWrite = func(w sim.DutyWrite) {
		logger.Debug().Uint32("at", uint32(w.At)).Uint32("pin", uint32(w.Pin)).Uint32("value", uint32(w.Value)).Msg("pwm write")
	}
}
