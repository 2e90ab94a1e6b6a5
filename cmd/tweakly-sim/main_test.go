package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

const testBoard = `
name: bench
inputs:
  - pin: gpio2
outputs:
  - pin: gpio25
ticks:
  - name: blink
    every: 100ms
    action: toggle
    pin: gpio25
  - name: hello
    every: 150ms
    action: log
    message: hi
`

const testScenario = `
until: 250
step: 5
steps:
  - at: 50
    set: {gpio2: false}
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheck(t *testing.T) {
	board := writeFile(t, "board.yaml", testBoard)
	out, _, err := execute(t, "check", "--board", board)
	require.NoError(t, err)
	assert.Equal(t, "bench: ok (1 inputs, 1 outputs, 0 encoders, 0 pwm, 2 ticks)\n", out)

	bad := writeFile(t, "bad.yaml", "ticks:\n  - name: x\n    action: nope\n")
	_, _, err = execute(t, "check", "--board", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "nope"`)
}

func TestRun(t *testing.T) {
	board := writeFile(t, "board.yaml", testBoard)
	scenario := writeFile(t, "scenario.yaml", testScenario)
	_, logs, err := execute(t, "run", "--board", board, "--scenario", scenario,
		"--log-format", "json", "--log-level", "debug", "--dump-events")
	require.NoError(t, err)

	assert.Contains(t, logs, `"message":"gpio write"`)
	assert.Contains(t, logs, `"tick":"hello"`)
	assert.Contains(t, logs, `"message":"hi"`)
	assert.Contains(t, logs, `"message":"step applied"`)
	assert.Contains(t, logs, `"message":"scenario finished"`)
	assert.Contains(t, logs, "[EVENTS] === End Dump ===")
	assert.Contains(t, logs, `"board":"bench"`)
}

func TestRunErrors(t *testing.T) {
	board := writeFile(t, "board.yaml", testBoard)
	scenario := writeFile(t, "scenario.yaml", testScenario)

	_, _, err := execute(t, "run", "--board", filepath.Join(t.TempDir(), "none.yaml"), "--scenario", scenario)
	assert.Error(t, err)

	_, _, err = execute(t, "run", "--board", board, "--scenario", scenario, "--log-level", "chatty")
	assert.ErrorContains(t, err, "parse log level")

	_, _, err = execute(t, "run", "--board", board, "--scenario", scenario,
		"--trace-device", filepath.Join(t.TempDir(), "ttyNONE"))
	assert.ErrorContains(t, err, "failed to open serial port")

	pause := writeFile(t, "pause.yaml", "steps:\n  - at: 1\n    pause: missing\n")
	_, _, err = execute(t, "run", "--board", board, "--scenario", pause, "--log-level", "error")
	assert.ErrorContains(t, err, "step at 1")
}

const liveBoard = `
name: bench
outputs:
  - pin: gpio931
pwm:
  - pin: gpio932
    max: 10
    fade: in
ticks:
  - name: hello
    every: 20ms
    action: log
    message: hi
`

func hostLine(t *testing.T, n int) *gpiotest.Pin {
	t.Helper()
	p := &gpiotest.Pin{N: fmt.Sprintf("GPIO%d", n), Num: n}
	require.NoError(t, gpioreg.Register(p))
	t.Cleanup(func() { _ = gpioreg.Unregister(p.N) })
	return p
}

func TestLive(t *testing.T) {
	hostLine(t, 931)
	led := hostLine(t, 932)
	prev := hostInit
	hostInit = func() error { return nil }
	t.Cleanup(func() { hostInit = prev })

	board := writeFile(t, "board.yaml", liveBoard)
	_, logs, err := execute(t, "live", "--board", board, "--duration", "200ms",
		"--max-duty", "10", "--log-format", "json")
	require.NoError(t, err)

	assert.Contains(t, logs, `"message":"live loop started"`)
	assert.Contains(t, logs, `"message":"hi"`)
	assert.Contains(t, logs, `"message":"live loop stopped"`)
	assert.Equal(t, gpio.DutyMax, led.D, "fade reached full duty")
}

func TestLiveErrors(t *testing.T) {
	prev := hostInit
	t.Cleanup(func() { hostInit = prev })
	board := writeFile(t, "board.yaml", liveBoard)

	_, _, err := execute(t, "live", "--board", board, "--period", "0s")
	assert.ErrorContains(t, err, "period must be positive")

	hostInit = func() error { return errors.New("periph host init: no drivers") }
	_, _, err = execute(t, "live", "--board", board, "--duration", "10ms")
	assert.ErrorContains(t, err, "no drivers")

	hostInit = func() error { return nil }
	_, _, err = execute(t, "live", "--board", board, "--duration", "10ms")
	assert.ErrorContains(t, err, "no line named GPIO931")
}
