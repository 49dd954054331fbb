package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/growout/pkg/config"
	"github.com/ajitpratap0/growout/pkg/logger"
)

const envPrefix = "GROWOUT"

// newViper binds a command's flags and the matching GROWOUT_* variables.
// A flag --tag-column is also read from GROWOUT_TAG_COLUMN.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func overrideBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

// loadRunConfig builds the run configuration of the split command. Flags
// win over GROWOUT_* variables, which win over the --config file, which
// wins over defaults.
func loadRunConfig(cmd *cobra.Command, args []string, now time.Time) (*config.RunConfig, error) {
	v, err := newViper(cmd)
	if err != nil {
		return nil, err
	}

	cfg := &config.RunConfig{}
	if path := v.GetString("config"); path != "" {
		if err := config.Load(path, cfg); err != nil {
			return nil, err
		}
	}

	overrideString(v, "transformer", &cfg.Transformer)
	overrideString(v, "delimiter", &cfg.Input.Delimiter)
	overrideString(v, "row-key", &cfg.Input.RowKey)
	overrideString(v, "tag-column", &cfg.Input.TagColumn)
	overrideString(v, "outdir", &cfg.Output.Dir)
	overrideString(v, "format", &cfg.Output.Format)
	overrideString(v, "compression", &cfg.Output.Compression)
	overrideString(v, "extension", &cfg.Output.Extension)
	overrideString(v, "region", &cfg.Output.Region)
	overrideString(v, "credentials-file", &cfg.Output.CredentialsFile)
	overrideBool(v, "dry-run", &cfg.Output.DryRun)
	overrideBool(v, "verbose", &cfg.Output.Verbose)
	overrideBool(v, "verify", &cfg.Output.Verify)
	overrideString(v, "locations", &cfg.Locations.Path)
	overrideString(v, "log-level", &cfg.Logging.Level)
	overrideString(v, "log-encoding", &cfg.Logging.Encoding)
	overrideString(v, "metrics-file", &cfg.Metrics.File)
	overrideBool(v, "trace", &cfg.Tracing.Enabled)

	if len(args) > 0 {
		cfg.Input.Files = args
	}

	// --debug enables verbose output and disables writes
	if v.GetBool("debug") {
		cfg.Output.Verbose = true
		cfg.Output.DryRun = true
		cfg.Logging.Level = "debug"
	}

	cfg.ApplyDefaults(now)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg config.LoggingConfig) error {
	lc := logger.DefaultConfig()
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	if cfg.Encoding != "" {
		lc.Encoding = cfg.Encoding
	}
	lc.Development = cfg.Development
	return logger.Init(lc)
}
