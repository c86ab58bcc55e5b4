package qtest

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type InterpTest struct {
	suite.Suite

	out bytes.Buffer
	in  *Interp
}

func TestInterpSuite(t *testing.T) {
	suite.Run(t, new(InterpTest))
}

func (t *InterpTest) SetupTest() {
	t.out.Reset()
	t.in = New(
		Config{Length: DefaultLength, Seed: 1, Verbose: 1, LogSeverity: "OFF"},
		&t.out,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func (t *InterpTest) run(script ...string) error {
	return t.in.Run(strings.NewReader(strings.Join(script, "\n")))
}

func (t *InterpTest) TestScenario() {
	err := t.run(
		"new",
		"it b",
		"ih a",
		"it c",
		"size 3",
		"reverse",
		"sort",
		"rh a",
		"rh b",
		"rh c",
		"size 0",
		"free",
	)

	t.NoError(err)
	t.Zero(t.in.Errors())
	t.Contains(t.out.String(), `Removed "a"`)
	t.Contains(t.out.String(), "q = NULL")
}

func (t *InterpTest) TestReverse() {
	err := t.run(
		"new",
		"it a",
		"it b",
		"it c",
		"reverse",
		"rh c",
		"rh b",
		"rh a",
	)
	t.NoError(err)
}

func (t *InterpTest) TestRepeat() {
	err := t.run(
		"new",
		"ih x 5",
		"it y 5",
		"size 10",
		"sort",
		"rh x",
		"rhq",
		"size 8",
	)
	t.NoError(err)
}

func (t *InterpTest) TestWrongValue() {
	err := t.run(
		"new",
		"it a",
		"rh b",
	)
	t.ErrorIs(err, ErrFailed)
	t.Equal(1, t.in.Errors())
	t.Contains(t.out.String(), `ERROR: removed value "a", expected "b"`)
}

func (t *InterpTest) TestWrongSize() {
	err := t.run(
		"new",
		"it a",
		"size 2",
	)
	t.ErrorIs(err, ErrFailed)
	t.Equal(1, t.in.Errors())
}

func (t *InterpTest) TestRemoveEmpty() {
	err := t.run(
		"new",
		"rh",
		"rhq",
		"size 0",
	)
	t.NoError(err)
	t.Contains(t.out.String(), "queue is empty")
}

func (t *InterpTest) TestNoQueue() {
	err := t.run(
		"it a",
		"size 0",
	)
	t.ErrorIs(err, ErrFailed)
	t.Equal(1, t.in.Errors())
}

func (t *InterpTest) TestUnknownCommand() {
	err := t.run("frobnicate")
	t.ErrorIs(err, ErrFailed)
	t.Contains(t.out.String(), `unknown command "frobnicate"`)
}

func (t *InterpTest) TestTruncation() {
	err := t.run(
		"new",
		"option length 4",
		"it abcdef",
		"rh abcdef",
	)
	t.NoError(err)
	t.Contains(t.out.String(), `Removed "abc"`)
}

func (t *InterpTest) TestCommentsAndQuit() {
	err := t.run(
		"# setup",
		"",
		"new",
		"quit",
		"bogus",
	)
	t.NoError(err)
}

func (t *InterpTest) TestEcho() {
	err := t.run(
		"option echo true",
		"new",
	)
	t.NoError(err)
	t.Contains(t.out.String(), "cmd> new")
}

func (t *InterpTest) TestFailureInjection() {
	err := t.run(
		"new",
		"option fail 30",
		"it a 50",
		"ih b 50",
		"reverse",
		"sort",
		"option fail 0",
		"free",
	)
	t.NoError(err)
	t.Empty(t.in.h.Live())
	_, _, failures := t.in.h.Stats()
	t.Positive(failures)
}

func (t *InterpTest) TestShow() {
	err := t.run(
		"show",
		"new",
		"it b",
		"ih a",
		"it c",
		"show",
		"free",
		"show",
	)
	t.NoError(err)
	t.Contains(t.out.String(), "q = [a b c]")
	t.Equal(3, strings.Count(t.out.String(), "q = NULL\n"))
}

func (t *InterpTest) TestVerboseShowsQueue() {
	err := t.run(
		"option verbose 2",
		"new",
		"it a",
		"it b",
		"reverse",
		"sort",
	)
	t.NoError(err)
	t.Contains(t.out.String(), "q = [a b]\n")
	t.Contains(t.out.String(), "q = [b a]\n")
}

func (t *InterpTest) TestVerboseZeroIsQuiet() {
	err := t.run(
		"option verbose 0",
		"new",
		"it a",
		"size 1",
		"rh a",
		"rh",
	)
	t.NoError(err)
	t.Empty(t.out.String())
}

func (t *InterpTest) TestVerboseZeroStillReportsErrors() {
	err := t.run(
		"option verbose 0",
		"new",
		"size 1",
	)
	t.ErrorIs(err, ErrFailed)
	t.Contains(t.out.String(), "ERROR: size is 0, expected 1")
}

func (t *InterpTest) TestNewReplacesQueue() {
	err := t.run(
		"new",
		"it a",
		"it b",
		"new",
		"size 0",
		"it c",
		"rh c",
	)
	t.NoError(err)
	t.Empty(t.in.h.Live())
}

func (t *InterpTest) TestNewAllocationFails() {
	err := t.run(
		"new",
		"it a",
		"option fail 100",
		"new",
		"size 0",
		"option fail 0",
		"new",
		"it b",
		"rh b",
	)
	t.NoError(err)
	t.Contains(t.out.String(), "queue allocation failed")
	t.Empty(t.in.h.Live())
}

func (t *InterpTest) TestBadOption() {
	err := t.run(
		"option fail 101",
		"option length 0",
		"option colour blue",
		"option verbose loud",
	)
	t.ErrorIs(err, ErrFailed)
	t.Equal(4, t.in.Errors())
}

func (t *InterpTest) TestHelp() {
	t.NoError(t.run("help"))
	for name := range commands {
		t.Contains(t.out.String(), commands[name].usage)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Length: 1, LogSeverity: "info"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"FailLow", Config{FailPercent: -1, Length: 1, LogSeverity: "INFO"}},
		{"FailHigh", Config{FailPercent: 101, Length: 1, LogSeverity: "INFO"}},
		{"Length", Config{Length: 0, LogSeverity: "INFO"}},
		{"Severity", Config{Length: 1, LogSeverity: "LOUD"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.ErrorIs(t, test.cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "warning")
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = NewLogger(&buf, "nope")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
