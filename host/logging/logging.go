// Package logging bridges the scheduler's debug and fault hooks into
// zerolog for host builds.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tweakly/core"
)

// Setup creates a zerolog logger writing to every w. Format "text" selects
// the console writer for the first writer; anything else emits JSON.
func Setup(level, format string, w ...io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}
	if len(w) == 0 {
		return zerolog.Nop(), nil
	}
	writers := make([]io.Writer, len(w))
	copy(writers, w)
	if strings.EqualFold(format, "text") {
		writers[0] = zerolog.ConsoleWriter{Out: w[0], TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(lvl)
	return logger, nil
}

// DebugWriter returns a core.DebugWriter logging each line at debug level
// under the "core" component.
func DebugWriter(log zerolog.Logger) core.DebugWriter {
	l := log.With().Str("component", "core").Logger()
	return func(msg string) {
		l.Debug().Msg(msg)
	}
}

// FaultHandler returns a fault callback logging at warn level
func FaultHandler(log zerolog.Logger) func(core.Fault) {
	return func(f core.Fault) {
		ev := log.Warn().
			Str("kind", f.Kind.String()).
			Uint32("at", uint32(f.At)).
			Err(f.Err)
		if f.Name != "" {
			ev = ev.Str("name", f.Name)
		} else {
			ev = ev.Uint32("pin", f.Pin)
		}
		if code := core.CodeOf(f.Err); code != "" {
			ev = ev.Str("code", string(code))
		}
		ev.Msg("entity fault")
	}
}

// Options wires both hooks into scheduler options
func Options(log zerolog.Logger) []core.Option {
	return []core.Option{
		core.WithDebugWriter(DebugWriter(log)),
		core.WithFaultHandler(FaultHandler(log)),
	}
}
