package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/metailurini/ravl"
	"github.com/metailurini/ravl/internal/config"
	"github.com/metailurini/ravl/internal/logging"
)

// bindFlags maps command-line flags onto config keys. Only flags set on the
// command line override the file and environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	return nil
}

var commonFlagKeys = map[string]string{
	"log-level":       "log.level",
	"log-encoding":    "log.encoding",
	"violation-bound": "map.violation_bound",
}

type session struct {
	cfg    *config.Config
	logger *zap.Logger
	m      *ravl.Map[int, int]
	undo   func()
}

// setup loads configuration, builds the logger and the map under test.
func setup(cmd *cobra.Command, configPath string, extra map[string]string) (*session, error) {
	v := viper.New()

	if err := bindFlags(v, cmd.Flags(), commonFlagKeys); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd.Flags(), extra); err != nil {
		return nil, err
	}

	cfg, err := config.LoadWith(v, configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	undo, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf))
	if err != nil {
		logger.Warn("adjust GOMAXPROCS", zap.Error(err))
	}

	m := ravl.New[int, int](
		ravl.WithViolationBound(cfg.Map.ViolationBound),
		ravl.WithLogger(logger.Named("ravl")),
	)

	return &session{cfg: cfg, logger: logger, m: m, undo: undo}, nil
}

func (s *session) close() {
	if s.undo != nil {
		s.undo()
	}
	_ = s.logger.Sync()
}
