package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".ravlbench"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for ravlbench settings.
const envPrefix = "RAVLBENCH"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Default values.
const (
	DefaultViolationBound = 6
	DefaultThreads        = 4
	DefaultDuration       = "1s"
	DefaultInitialSize    = 256
	DefaultKeyRange       = 1 << 16
	DefaultUpdatePercent  = 20
	DefaultInsertPercent  = 50
	DefaultDistribution   = DistributionUniform
	DefaultZipfAlpha      = 1.2
	DefaultLogLevel       = "info"
	DefaultLogEncoding    = "console"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	return LoadWith(viper.New(), configPath)
}

// LoadWith is LoadConfig on a caller-supplied viper instance, so that
// command-line flags bound to it take precedence.
func LoadWith(viperCfg *viper.Viper, configPath string) (*Config, error) {
	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("map.violation_bound", DefaultViolationBound)

	viperCfg.SetDefault("workload.threads", DefaultThreads)
	viperCfg.SetDefault("workload.duration", DefaultDuration)
	viperCfg.SetDefault("workload.initial_size", DefaultInitialSize)
	viperCfg.SetDefault("workload.key_range", DefaultKeyRange)
	viperCfg.SetDefault("workload.update_percent", DefaultUpdatePercent)
	viperCfg.SetDefault("workload.insert_percent", DefaultInsertPercent)
	viperCfg.SetDefault("workload.distribution", DefaultDistribution)
	viperCfg.SetDefault("workload.zipf_alpha", DefaultZipfAlpha)
	viperCfg.SetDefault("workload.seed", 0)

	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.encoding", DefaultLogEncoding)

	viperCfg.SetDefault("metrics.addr", "")
}
