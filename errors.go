package ravl

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the root of every error the map reports to callers.
// Contention is never reported; it is retried internally.
var ErrInvalidArgument = errors.New("ravl: invalid argument")

var (
	// ErrNilComparator is returned by NewFunc when no comparator is given.
	ErrNilComparator = fmt.Errorf("%w: nil comparator", ErrInvalidArgument)

	// ErrNilKey is the panic value for a nil key of an interface, pointer or
	// other nilable key type.
	ErrNilKey = fmt.Errorf("%w: nil key", ErrInvalidArgument)

	// ErrNegativeViolationBound is returned for WithViolationBound(d) with d < 0.
	ErrNegativeViolationBound = fmt.Errorf("%w: negative violation bound", ErrInvalidArgument)

	// ErrNilLogger is returned for WithLogger(nil).
	ErrNilLogger = fmt.Errorf("%w: nil logger", ErrInvalidArgument)
)
