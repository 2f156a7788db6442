package workload

// Counters are one worker's operation tallies. The first of each pair counts
// attempts and the second the attempts that changed or found something.
type Counters struct {
	Adds     int64
	Added    int64
	Removes  int64
	Removed  int64
	Contains int64
	Found    int64
}

func (c Counters) add(o Counters) Counters {
	return Counters{
		Adds:     c.Adds + o.Adds,
		Added:    c.Added + o.Added,
		Removes:  c.Removes + o.Removes,
		Removed:  c.Removed + o.Removed,
		Contains: c.Contains + o.Contains,
		Found:    c.Found + o.Found,
	}
}

// Ops is the number of operations attempted.
func (c Counters) Ops() int64 { return c.Adds + c.Removes + c.Contains }

// Reads counts lookups.
func (c Counters) Reads() int64 { return c.Contains }

// EffectiveReads counts operations that left the map unchanged: lookups plus
// failed inserts and deletes.
func (c Counters) EffectiveReads() int64 {
	return c.Contains + (c.Adds - c.Added) + (c.Removes - c.Removed)
}

// Updates counts attempted inserts and deletes.
func (c Counters) Updates() int64 { return c.Adds + c.Removes }

// EffectiveUpdates counts inserts and deletes that changed the map.
func (c Counters) EffectiveUpdates() int64 { return c.Added + c.Removed }
