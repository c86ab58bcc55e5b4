// Package qtest implements a small command interpreter that drives a
// [strq.Queue] through a script and checks its behavior, including
// under injected storage failures.
package qtest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"deedles.dev/strq"
	"deedles.dev/strq/alloc"
)

// ErrFailed is returned by [Interp.Run] if any command reported an
// error.
var ErrFailed = errors.New("test failed")

var errNoQueue = errors.New("no queue")

type command struct {
	usage   string
	help    string
	mutates bool
	run     func(in *Interp, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"new":     {"new", "Create a new queue, freeing any existing one", true, (*Interp).doNew},
		"free":    {"free", "Free the queue", true, (*Interp).doFree},
		"ih":      {"ih str [n]", "Insert str at the head n times", true, (*Interp).doInsertHead},
		"it":      {"it str [n]", "Insert str at the tail n times", true, (*Interp).doInsertTail},
		"rh":      {"rh [str]", "Remove from the head, optionally checking the value", true, (*Interp).doRemoveHead},
		"rhq":     {"rhq", "Remove from the head without reading the value", true, (*Interp).doRemoveHeadQuiet},
		"size":    {"size [n]", "Print the size, optionally checking it", false, (*Interp).doSize},
		"show":    {"show", "Print the contents of the queue", false, (*Interp).doShow},
		"reverse": {"reverse", "Reverse the queue", true, (*Interp).doReverse},
		"sort":    {"sort", "Sort the queue", true, (*Interp).doSort},
		"option":  {"option name value", "Set fail, length, verbose, or echo", false, (*Interp).doOption},
		"help":    {"help", "Show this list", false, (*Interp).doHelp},
		"quit":    {"quit", "Stop reading commands", false, (*Interp).doQuit},
	}
}

// Interp runs queue commands. It is not safe for concurrent use.
type Interp struct {
	cfg Config
	out io.Writer
	log *slog.Logger

	h *alloc.Harness
	q *strq.Queue

	errs     int
	problems int
	quit     bool
}

// New returns an Interp that writes its results to out and its
// diagnostics to log.
func New(cfg Config, out io.Writer, log *slog.Logger) *Interp {
	h := alloc.NewHarness(cfg.FailPercent, uint64(cfg.Seed))
	h.Logger = log

	return &Interp{
		cfg: cfg,
		out: out,
		log: log,
		h:   h,
	}
}

// Errors returns the number of errors reported so far.
func (in *Interp) Errors() int {
	return in.errs
}

// Run executes every command read from r, then frees any remaining
// queue and checks for leaked storage. It returns an error wrapping
// [ErrFailed] if anything went wrong.
func (in *Interp) Run(r io.Reader) error {
	s := bufio.NewScanner(r)
	for !in.quit && s.Scan() {
		in.Exec(s.Text())
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}

	if in.q != nil {
		in.report(in.doFree(nil))
	}

	if in.errs > 0 {
		return fmt.Errorf("%w: %d errors", ErrFailed, in.errs)
	}
	return nil
}

// Exec runs a single line. Blank lines and lines starting with # are
// ignored.
func (in *Interp) Exec(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	if in.cfg.Echo {
		fmt.Fprintf(in.out, "cmd> %v\n", line)
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	in.log.Debug("exec", "cmd", name, "args", args)

	cmd, ok := commands[name]
	if !ok {
		in.report(fmt.Errorf("unknown command %q", name))
		return
	}

	in.report(cmd.run(in, args))
	if err := in.q.Check(); err != nil {
		in.report(fmt.Errorf("after %v: %w", name, err))
	}
	if cmd.mutates {
		in.printf(2, "q = %v\n", in.q)
	}
}

// printf writes to the output if the verbosity is at least level.
func (in *Interp) printf(level int, format string, args ...any) {
	if in.cfg.Verbose < level {
		return
	}
	fmt.Fprintf(in.out, format, args...)
}

func (in *Interp) report(err error) {
	if err == nil {
		return
	}

	in.errs++
	fmt.Fprintf(in.out, "ERROR: %v\n", err)
}

// failing reports whether storage failures are being injected and are
// therefore an acceptable outcome.
func (in *Interp) failing() bool {
	return in.h.FailPercent > 0
}

func (in *Interp) doNew(args []string) error {
	var errs []error
	if in.q != nil {
		errs = append(errs, in.doFree(nil))
	}

	in.q = strq.NewWith(in.h)
	switch {
	case in.q == nil && in.failing():
		in.printf(1, "queue allocation failed\n")
	case in.q == nil:
		errs = append(errs, errors.New("queue allocation failed"))
	default:
		in.printf(1, "q = %v\n", in.q)
	}

	return errors.Join(errs...)
}

func (in *Interp) doFree(args []string) error {
	if in.q == nil {
		return errNoQueue
	}

	in.q.Free()
	in.q = nil
	in.printf(1, "q = NULL\n")

	var errs []error
	if live := in.h.Live(); len(live) > 0 {
		errs = append(errs, fmt.Errorf("freed queue, but %d blocks are still allocated", len(live)))
	}
	problems := in.h.Problems()
	errs = append(errs, problems[in.problems:]...)
	in.problems = len(problems)
	return errors.Join(errs...)
}

func (in *Interp) insert(args []string, where string, insert func(string) bool) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: %v", commands[where].usage)
	}
	if in.q == nil {
		return errNoQueue
	}

	reps := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid repeat count %q", args[1])
		}
		reps = n
	}

	var errs []error
	for range reps {
		before := in.q.Size()
		ok := insert(args[0])
		after := in.q.Size()

		switch {
		case ok && after != before+1:
			errs = append(errs, fmt.Errorf("%v: size went from %d to %d", where, before, after))
		case !ok && after != before:
			errs = append(errs, fmt.Errorf("%v: failed insertion changed size from %d to %d", where, before, after))
		case !ok && !in.failing():
			errs = append(errs, fmt.Errorf("%v: insertion of %q failed", where, args[0]))
		case !ok:
			in.printf(1, "%v: insertion of %q failed\n", where, args[0])
		}
	}

	return errors.Join(errs...)
}

func (in *Interp) doInsertHead(args []string) error {
	return in.insert(args, "ih", in.q.InsertHead)
}

func (in *Interp) doInsertTail(args []string) error {
	return in.insert(args, "it", in.q.InsertTail)
}

func (in *Interp) remove(buf []byte) (ok bool, err error) {
	if in.q == nil {
		return false, errNoQueue
	}

	before := in.q.Size()
	ok = in.q.RemoveHead(buf)
	after := in.q.Size()

	switch {
	case before == 0 && ok:
		return ok, errors.New("removal from empty queue succeeded")
	case before == 0:
		in.printf(1, "queue is empty\n")
		return ok, nil
	case !ok:
		return ok, fmt.Errorf("removal from queue of size %d failed", before)
	case after != before-1:
		return ok, fmt.Errorf("removal changed size from %d to %d", before, after)
	}
	return ok, nil
}

func (in *Interp) doRemoveHead(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: %v", commands["rh"].usage)
	}

	// Poison the buffer so that a missing terminator is noticed.
	buf := slices.Repeat([]byte{'X'}, in.cfg.Length)
	ok, err := in.remove(buf)
	if err != nil || !ok {
		return err
	}

	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return errors.New("removed value is not terminated")
	}
	got := string(buf[:end])
	in.printf(1, "Removed %q\n", got)

	if len(args) == 1 {
		want := args[0]
		if len(want) > in.cfg.Length-1 {
			want = want[:in.cfg.Length-1]
		}
		if got != want {
			return fmt.Errorf("removed value %q, expected %q", got, want)
		}
	}

	return nil
}

func (in *Interp) doRemoveHeadQuiet(args []string) error {
	ok, err := in.remove(nil)
	if err == nil && ok {
		in.printf(1, "Removed element from queue\n")
	}
	return err
}

func (in *Interp) doSize(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: %v", commands["size"].usage)
	}

	size := in.q.Size()
	in.printf(1, "Queue size = %d\n", size)

	if len(args) == 1 {
		want, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid size %q", args[0])
		}
		if size != want {
			return fmt.Errorf("size is %d, expected %d", size, want)
		}
	}
	return nil
}

func (in *Interp) doShow(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: %v", commands["show"].usage)
	}

	fmt.Fprintf(in.out, "q = %v\n", in.q)
	return nil
}

func (in *Interp) transform(name string, f func()) error {
	if in.q == nil {
		return errNoQueue
	}

	before := in.q.Size()
	allocs, frees, _ := in.h.Stats()
	f()
	allocs2, frees2, _ := in.h.Stats()

	if after := in.q.Size(); after != before {
		return fmt.Errorf("%v changed size from %d to %d", name, before, after)
	}
	if allocs2 != allocs || frees2 != frees {
		return fmt.Errorf("%v allocated or freed storage", name)
	}
	return nil
}

func (in *Interp) doReverse(args []string) error {
	return in.transform("reverse", in.q.Reverse)
}

func (in *Interp) doSort(args []string) error {
	return in.transform("sort", in.q.Sort)
}

func (in *Interp) doOption(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %v", commands["option"].usage)
	}

	name, val := args[0], args[1]
	switch name {
	case "fail":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 || n > 100 {
			return fmt.Errorf("invalid fail percentage %q", val)
		}
		in.cfg.FailPercent = n
		in.h.FailPercent = n

	case "length":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid length %q", val)
		}
		in.cfg.Length = n

	case "verbose":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid verbosity %q", val)
		}
		in.cfg.Verbose = n

	case "echo":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid echo setting %q", val)
		}
		in.cfg.Echo = b

	default:
		return fmt.Errorf("unknown option %q", name)
	}

	in.log.Info("option set", "name", name, "value", val)
	return nil
}

func (in *Interp) doHelp(args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(in.out, "  %-18v | %v\n", cmd.usage, cmd.help)
	}
	return nil
}

func (in *Interp) doQuit(args []string) error {
	in.quit = true
	return nil
}
