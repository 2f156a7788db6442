package ravl

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultViolationBound is the number of rank violations tolerated on one
// root-to-leaf path before a mutator repairs them.
const DefaultViolationBound = 6

// Option configures a Map at construction.
type Option func(*options)

type options struct {
	violationBound int
	logger         *zap.Logger
	stats          bool
}

func defaultOptions() options {
	return options{
		violationBound: DefaultViolationBound,
		logger:         zap.NewNop(),
		stats:          true,
	}
}

// WithViolationBound sets d, the number of violations allowed on a path.
// Zero repairs every violation as soon as it is created.
func WithViolationBound(d int) Option {
	return func(o *options) {
		o.violationBound = d
	}
}

// WithLogger sets the logger used for rare diagnostic events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithoutStats disables the contention and rebalancing counters.
func WithoutStats() Option {
	return func(o *options) {
		o.stats = false
	}
}

func (o *options) validate() error {
	var err error
	if o.violationBound < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %d", ErrNegativeViolationBound, o.violationBound))
	}
	if o.logger == nil {
		err = multierr.Append(err, ErrNilLogger)
	}
	return err
}
