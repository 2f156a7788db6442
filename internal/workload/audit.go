package workload

import (
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/metailurini/ravl"
)

// auditCheckEvery is how many steps pass between full structure checks.
const auditCheckEvery = 256

var (
	// ErrAuditMismatch indicates the map disagreed with the reference model.
	ErrAuditMismatch = errors.New("map disagrees with reference model")
	// ErrBoundExceeded indicates a path held more violations than the map's bound.
	ErrBoundExceeded = errors.New("path violations exceed the violation bound")
)

// AuditReport summarizes a sequential audit.
type AuditReport struct {
	Steps  int
	Size   int
	Height int
	// MaxPathViolations is the worst per-path violation count seen after
	// any step.
	MaxPathViolations int
}

// Audit runs steps random single-threaded updates over [0, keyRange) against
// m and a plain map, checking results, structure and the per-path violation
// count against m.ViolationBound() as it goes. Every problem found is returned.
func Audit(m *ravl.Map[int, int], steps, keyRange int, seed int64, logger *zap.Logger) (AuditReport, error) {
	var (
		rng   = rand.New(rand.NewSource(seed))
		model = make(map[int]int)
		rep   = AuditReport{Steps: steps}
		err   error
	)

	for i := range steps {
		k := rng.Intn(keyRange)
		want, present := model[k]

		switch rng.Intn(4) {
		case 0:
			got, ok := m.Delete(k)
			if ok != present || got != want {
				err = multierr.Append(err, fmt.Errorf("%w: step %d Delete(%d) = %d, %t", ErrAuditMismatch, i, k, got, ok))
			}
			delete(model, k)
		case 1:
			got, ok := m.Get(k)
			if ok != present || got != want {
				err = multierr.Append(err, fmt.Errorf("%w: step %d Get(%d) = %d, %t", ErrAuditMismatch, i, k, got, ok))
			}
		default:
			got, ok := m.Put(k, i)
			if ok != present || got != want {
				err = multierr.Append(err, fmt.Errorf("%w: step %d Put(%d) = %d, %t", ErrAuditMismatch, i, k, got, ok))
			}
			model[k] = i
		}

		if v := m.PathViolations(); v > rep.MaxPathViolations {
			err = multierr.Append(err, boundBreach(i, rep.MaxPathViolations, v, m.ViolationBound()))
			rep.MaxPathViolations = v
		}

		if i%auditCheckEvery == auditCheckEvery-1 {
			if checkErr := m.Check(); checkErr != nil {
				return rep, multierr.Append(err, fmt.Errorf("step %d: %w", i, checkErr))
			}
			logger.Debug("audit checkpoint", zap.Int("step", i), zap.Int("height", m.Height()))
		}
	}

	rep.Size = m.Size()
	rep.Height = m.Height()
	if rep.Size != len(model) {
		err = multierr.Append(err, fmt.Errorf("%w: size %d, model holds %d", ErrAuditMismatch, rep.Size, len(model)))
	}
	for k, want := range model {
		if got, ok := m.Get(k); !ok || got != want {
			err = multierr.Append(err, fmt.Errorf("%w: final Get(%d) = %d, %t", ErrAuditMismatch, k, got, ok))
		}
	}

	return rep, multierr.Append(err, m.Check())
}

// boundBreach reports the step at which the worst path count first rises
// above bound, and nil otherwise.
func boundBreach(step, prevWorst, worst, bound int) error {
	if worst <= bound || prevWorst > bound {
		return nil
	}
	return fmt.Errorf("%w: step %d left %d on one path, bound %d", ErrBoundExceeded, step, worst, bound)
}
