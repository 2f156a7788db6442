// Package config holds the benchmark harness configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config is the top-level configuration of ravlbench.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Map      MapConfig      `mapstructure:"map"`
	Workload WorkloadConfig `mapstructure:"workload"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// MapConfig configures the map under test.
type MapConfig struct {
	ViolationBound int `mapstructure:"violation_bound"`
}

// WorkloadConfig describes one benchmark run.
type WorkloadConfig struct {
	Threads     int           `mapstructure:"threads"`
	Duration    time.Duration `mapstructure:"duration"`
	InitialSize int           `mapstructure:"initial_size"`
	KeyRange    int           `mapstructure:"key_range"`
	// UpdatePercent is the share of operations that write.
	UpdatePercent int `mapstructure:"update_percent"`
	// InsertPercent is the share of writes that insert; the rest delete.
	InsertPercent int     `mapstructure:"insert_percent"`
	Distribution  string  `mapstructure:"distribution"`
	ZipfAlpha     float64 `mapstructure:"zipf_alpha"`
	// Seed 0 picks a time-based seed.
	Seed int64 `mapstructure:"seed"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Key distributions.
const (
	DistributionUniform   = "uniform"
	DistributionZipf      = "zipf"
	DistributionAscending = "ascending"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidViolationBound indicates a negative violation bound.
	ErrInvalidViolationBound = errors.New("map.violation_bound must be non-negative")
	// ErrInvalidThreads indicates the thread count is not positive.
	ErrInvalidThreads = errors.New("workload.threads must be positive")
	// ErrInvalidDuration indicates the duration is not positive.
	ErrInvalidDuration = errors.New("workload.duration must be positive")
	// ErrInvalidInitialSize indicates the initial size is negative.
	ErrInvalidInitialSize = errors.New("workload.initial_size must be non-negative")
	// ErrInvalidKeyRange indicates the key range cannot hold the initial keys.
	ErrInvalidKeyRange = errors.New("workload.key_range must be positive and at least initial_size")
	// ErrInvalidUpdatePercent indicates the update share is out of range.
	ErrInvalidUpdatePercent = errors.New("workload.update_percent must be between 0 and 100")
	// ErrInvalidInsertPercent indicates the insert share is out of range.
	ErrInvalidInsertPercent = errors.New("workload.insert_percent must be between 0 and 100")
	// ErrInvalidDistribution indicates an unknown key distribution.
	ErrInvalidDistribution = errors.New("workload.distribution must be uniform, zipf or ascending")
	// ErrInvalidZipfAlpha indicates a zipf exponent the generator rejects.
	ErrInvalidZipfAlpha = errors.New("workload.zipf_alpha must be greater than 1")
)

// Validate checks Config invariants and returns every violation found.
func (c *Config) Validate() error {
	return multierr.Combine(
		c.validateMap(),
		c.validateWorkload(),
	)
}

func (c *Config) validateMap() error {
	if c.Map.ViolationBound < 0 {
		return ErrInvalidViolationBound
	}

	return nil
}

func (c *Config) validateWorkload() error {
	w := c.Workload

	var err error
	if w.Threads <= 0 {
		err = multierr.Append(err, ErrInvalidThreads)
	}

	if w.Duration <= 0 {
		err = multierr.Append(err, ErrInvalidDuration)
	}

	if w.InitialSize < 0 {
		err = multierr.Append(err, ErrInvalidInitialSize)
	}

	if w.KeyRange <= 0 || w.KeyRange < w.InitialSize {
		err = multierr.Append(err, fmt.Errorf("%w: key_range=%d initial_size=%d", ErrInvalidKeyRange, w.KeyRange, w.InitialSize))
	}

	if w.UpdatePercent < 0 || w.UpdatePercent > 100 {
		err = multierr.Append(err, ErrInvalidUpdatePercent)
	}

	if w.InsertPercent < 0 || w.InsertPercent > 100 {
		err = multierr.Append(err, ErrInvalidInsertPercent)
	}

	switch w.Distribution {
	case DistributionUniform, DistributionAscending:
	case DistributionZipf:
		if w.ZipfAlpha <= 1 {
			err = multierr.Append(err, ErrInvalidZipfAlpha)
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrInvalidDistribution, w.Distribution))
	}

	return err
}
