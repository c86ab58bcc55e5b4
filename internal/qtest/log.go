package qtest

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	levelTrace = slog.Level(-8)

	// Nothing is logged at or above this level.
	levelOff = slog.Level(12)
)

var severities = map[string]slog.Level{
	"TRACE":   levelTrace,
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
	"OFF":     levelOff,
}

// NewLogger returns a text logger writing to w that emits records at
// or above the named severity.
func NewLogger(w io.Writer, severity string) (*slog.Logger, error) {
	level, ok := severities[strings.ToUpper(severity)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown log severity %q", ErrInvalidConfig, severity)
	}

	var programLevel slog.LevelVar
	programLevel.Set(level)

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &programLevel})
	return slog.New(h), nil
}
