package main

import (
	"fmt"

	"deedles.dev/strq/internal/qtest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd returns the qtest command. Once flags, environment, and
// config file have been resolved, the resulting config is passed to
// run.
func NewRootCmd(run func(cfg qtest.Config) error) (*cobra.Command, error) {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "qtest [flags] [script]",
		Short: "Drive a string queue from a script of commands",
		Long: `qtest reads queue commands, one per line, from the given script or
from standard input and checks that the queue behaves correctly. Run
the help command for a list of commands.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qtest.Load(v, cfgFile)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.File = args[0]
			}
			return run(cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "YAML config file")
	if err := qtest.BindFlags(cmd.PersistentFlags(), v); err != nil {
		return nil, fmt.Errorf("error while binding flags: %w", err)
	}

	return cmd, nil
}
