// Package config loads attractor settings from an optional
// .attractor.yaml file plus ATTRACTOR_* environment variables. CLI flags
// override everything here; config only supplies defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the engine's tunable defaults.
type Config struct {
	// PipelineFile is the default pipeline path for CLI commands.
	PipelineFile string

	// OutputFormat is "text" or "json".
	OutputFormat string

	// Strict promotes the missing-gate rule to an error in validation.
	Strict bool

	// LockTimeout bounds mutation lock acquisition. Zero blocks
	// indefinitely.
	LockTimeout time.Duration
}

// Load reads configuration. configFile may be "" to use .attractor.yaml
// in the working directory; a missing file is not an error, only a
// malformed one is.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".attractor")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ATTRACTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("pipeline.file", "pipeline.dot")
	v.SetDefault("output.format", "text")
	v.SetDefault("validate.strict", false)
	v.SetDefault("lock.timeout", time.Duration(0))

	if err := v.ReadInConfig(); err != nil {
		// Implicit discovery tolerates a missing file; an explicit path
		// or a malformed file does not.
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if configFile != "" || !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		PipelineFile: v.GetString("pipeline.file"),
		OutputFormat: v.GetString("output.format"),
		Strict:       v.GetBool("validate.strict"),
		LockTimeout:  v.GetDuration("lock.timeout"),
	}
	if cfg.OutputFormat != "text" && cfg.OutputFormat != "json" {
		return nil, fmt.Errorf("output.format: %q is invalid (valid values: text, json)", cfg.OutputFormat)
	}
	return cfg, nil
}
