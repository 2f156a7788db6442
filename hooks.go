package ravl

// Test hooks (kept separate so instrumentation doesn't clutter logic).
// They must not block forever or mutate the map in ways that break its
// invariants.
var (
	// scxFrozenHook runs after every node of an operation is frozen and
	// retired but before the child swap.
	scxFrozenHook func(op any)

	// scxAbortHook runs after an operation is aborted.
	scxAbortHook func(op any)

	// fixPassHook runs once per descent of the rebalancer.
	fixPassHook func(pass int)
)
