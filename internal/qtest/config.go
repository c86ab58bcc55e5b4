package qtest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config controls an [Interp].
type Config struct {
	// File is the script to run. Standard input is used if it is
	// empty.
	File string `yaml:"file"`

	// FailPercent is the chance, from 0 to 100, that any storage
	// reservation made by the queue fails.
	FailPercent int `yaml:"fail"`

	// Seed seeds the source that decides reservation failures.
	Seed int64 `yaml:"seed"`

	// Length is the size of the buffer that removed values are
	// copied into, including the terminating 0 byte.
	Length int `yaml:"length"`

	// Echo causes each command to be printed before it runs.
	Echo bool `yaml:"echo"`

	// Verbose sets how much the interpreter prints. At 0 only errors
	// are printed, at 1 the result of each command, and at 2 or above
	// the queue's contents after every command that changes it.
	Verbose int `yaml:"verbose"`

	// LogSeverity is the minimum severity of diagnostic logs, one of
	// TRACE, DEBUG, INFO, WARNING, ERROR, or OFF.
	LogSeverity string `yaml:"log-severity"`
}

// DefaultLength is the default removal buffer size.
const DefaultLength = 1024

// ErrInvalidConfig is wrapped by errors about unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Validate reports whether c can be used to run an Interp.
func (c Config) Validate() error {
	if c.FailPercent < 0 || c.FailPercent > 100 {
		return fmt.Errorf("%w: fail must be between 0 and 100 but is %d", ErrInvalidConfig, c.FailPercent)
	}
	if c.Verbose < 0 {
		return fmt.Errorf("%w: verbose must not be negative but is %d", ErrInvalidConfig, c.Verbose)
	}
	if c.Length < 1 {
		return fmt.Errorf("%w: length must be at least 1 but is %d", ErrInvalidConfig, c.Length)
	}
	if _, ok := severities[strings.ToUpper(c.LogSeverity)]; !ok {
		return fmt.Errorf("%w: unknown log severity %q", ErrInvalidConfig, c.LogSeverity)
	}
	return nil
}

// BindFlags adds the interpreter's flags to flagSet and binds each of
// them to its config key in v.
func BindFlags(flagSet *pflag.FlagSet, v *viper.Viper) error {
	var err error

	flagSet.IntP("fail", "", 0, "Percentage chance that a storage reservation fails.")

	err = v.BindPFlag("fail", flagSet.Lookup("fail"))
	if err != nil {
		return err
	}

	flagSet.Int64P("seed", "", 1, "Seed for deciding which reservations fail.")

	err = v.BindPFlag("seed", flagSet.Lookup("seed"))
	if err != nil {
		return err
	}

	flagSet.IntP("length", "l", DefaultLength, "Size of the buffer removed values are copied into.")

	err = v.BindPFlag("length", flagSet.Lookup("length"))
	if err != nil {
		return err
	}

	flagSet.BoolP("echo", "e", false, "Print each command before running it.")

	err = v.BindPFlag("echo", flagSet.Lookup("echo"))
	if err != nil {
		return err
	}

	flagSet.IntP("verbose", "v", 1, "Output detail: 0 for errors only, 1 for command results, 2 to also show the queue.")

	err = v.BindPFlag("verbose", flagSet.Lookup("verbose"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Severity of logs to emit. One of TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")

	err = v.BindPFlag("log-severity", flagSet.Lookup("log-severity"))
	if err != nil {
		return err
	}

	return nil
}

// Load builds a Config from the flags bound to v, the environment,
// and, if cfgFile is not empty, a YAML config file. Flags that were
// set explicitly take precedence over the environment, which takes
// precedence over the file.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	v.SetEnvPrefix("QTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error while reading the config file: %w", err)
		}
	}

	var c Config
	err := v.Unmarshal(&c, func(decoderConfig *mapstructure.DecoderConfig) {
		decoderConfig.TagName = "yaml"
	})
	if err != nil {
		return Config{}, fmt.Errorf("error while unmarshaling the config: %w", err)
	}

	return c, c.Validate()
}
