// qtest runs scripts of queue commands against a string queue.
package main

import (
	"io"
	"log/slog"
	"os"

	"deedles.dev/strq/internal/qtest"
)

func run(cfg qtest.Config) error {
	logger, err := qtest.NewLogger(os.Stderr, cfg.LogSeverity)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	var r io.Reader = os.Stdin
	if cfg.File != "" {
		f, err := os.Open(cfg.File)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	return qtest.New(cfg, os.Stdout, logger).Run(r)
}

func main() {
	cmd, err := NewRootCmd(run)
	if err != nil {
		slog.Error("create command", "err", err)
		os.Exit(2)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
