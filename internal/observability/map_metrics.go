// Package observability exports map counters as OpenTelemetry instruments.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/metailurini/ravl"
)

const (
	metricUpdates     = "ravl.map.updates"
	metricSCX         = "ravl.scx.operations"
	metricHelps       = "ravl.llx.helps"
	metricLLXFailures = "ravl.llx.failures"
	metricRetries     = "ravl.update.retries"
	metricFixes       = "ravl.rebalance.fixes"
	metricRebalances  = "ravl.rebalance.transformations"

	attrKind   = "kind"
	attrResult = "result"
)

// StatsSource is implemented by *ravl.Map for any key and value types.
type StatsSource interface {
	Stats() ravl.Stats
}

// MapMetrics reads a map's counters on every collection cycle.
type MapMetrics struct {
	source StatsSource

	updates     metric.Int64ObservableCounter
	scx         metric.Int64ObservableCounter
	helps       metric.Int64ObservableCounter
	llxFailures metric.Int64ObservableCounter
	retries     metric.Int64ObservableCounter
	fixes       metric.Int64ObservableCounter
	rebalances  metric.Int64ObservableCounter
}

var (
	kindInsert       = metric.WithAttributes(attribute.String(attrKind, "insert"))
	kindReplace      = metric.WithAttributes(attribute.String(attrKind, "replace"))
	kindDelete       = metric.WithAttributes(attribute.String(attrKind, "delete"))
	kindPromote      = metric.WithAttributes(attribute.String(attrKind, "promote"))
	kindRotate1      = metric.WithAttributes(attribute.String(attrKind, "rotate1"))
	kindRotate2      = metric.WithAttributes(attribute.String(attrKind, "rotate2"))
	kindDoubleRotate = metric.WithAttributes(attribute.String(attrKind, "double-rotate"))
	resultCommitted  = metric.WithAttributes(attribute.String(attrResult, "committed"))
	resultAborted    = metric.WithAttributes(attribute.String(attrResult, "aborted"))
)

// NewMapMetrics creates the instruments on mt and registers a callback that
// snapshots source.
func NewMapMetrics(mt metric.Meter, source StatsSource) (*MapMetrics, error) {
	mm := &MapMetrics{source: source}

	counters := []struct {
		dst  *metric.Int64ObservableCounter
		name string
		desc string
		unit string
	}{
		{&mm.updates, metricUpdates, "Committed map updates by kind", "{update}"},
		{&mm.scx, metricSCX, "SCX operations driven to a terminal state", "{operation}"},
		{&mm.helps, metricHelps, "Operations of other goroutines helped to completion", "{operation}"},
		{&mm.llxFailures, metricLLXFailures, "LLX calls that observed a retired node", "{call}"},
		{&mm.retries, metricRetries, "Update attempts restarted from the root", "{attempt}"},
		{&mm.fixes, metricFixes, "Rebalancer invocations", "{call}"},
		{&mm.rebalances, metricRebalances, "Committed rebalancing transformations by kind", "{transformation}"},
	}

	instruments := make([]metric.Observable, 0, len(counters))

	for _, c := range counters {
		counter, err := mt.Int64ObservableCounter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}

		*c.dst = counter
		instruments = append(instruments, counter)
	}

	_, err := mt.RegisterCallback(mm.observe, instruments...)
	if err != nil {
		return nil, fmt.Errorf("register map metrics callback: %w", err)
	}

	return mm, nil
}

func (mm *MapMetrics) observe(_ context.Context, obs metric.Observer) error {
	st := mm.source.Stats()

	obs.ObserveInt64(mm.updates, st.Inserts, kindInsert)
	obs.ObserveInt64(mm.updates, st.Replaces, kindReplace)
	obs.ObserveInt64(mm.updates, st.Deletes, kindDelete)

	obs.ObserveInt64(mm.scx, st.Commits, resultCommitted)
	obs.ObserveInt64(mm.scx, st.Aborts, resultAborted)

	obs.ObserveInt64(mm.helps, st.Helps)
	obs.ObserveInt64(mm.llxFailures, st.LLXFailures)
	obs.ObserveInt64(mm.retries, st.Retries)
	obs.ObserveInt64(mm.fixes, st.Fixes)

	obs.ObserveInt64(mm.rebalances, st.Promotes, kindPromote)
	obs.ObserveInt64(mm.rebalances, st.Rotate1s, kindRotate1)
	obs.ObserveInt64(mm.rebalances, st.Rotate2s, kindRotate2)
	obs.ObserveInt64(mm.rebalances, st.DoubleRotates, kindDoubleRotate)

	return nil
}
