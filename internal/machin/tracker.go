package machin

// seriesTracker decides, after each generation of a block pass, how many
// terms the next generation must divide.
//
// The count is the larger of the series still non-zero in the quotient
// buffer and the high-water mark already recorded for the next generation,
// whose remainders must keep being consumed. Within a pass the returned
// counts never increase.
type seriesTracker struct {
	// pass holds the counts returned during the current block pass. It is
	// diagnostic state, reported as Stats.LastPass.
	pass []int
}

func (t *seriesTracker) reset() {
	t.pass = t.pass[:0]
}

// next returns the active count for generation g.
func (t *seriesTracker) next(ts *termState, gens generations, g int) int {
	count := ts.lastNonZero()
	if g < len(gens) {
		count = max(count, gens[g].active)
	}
	t.pass = append(t.pass, count)
	return count
}
