package machin

import (
	"context"
	"fmt"
	"slices"
)

// Computation is the state of one block-wise evaluation: the accumulator,
// the sorted term state with its quotient buffer, the remainder generations
// and the block cursor. A Computation is single-use and not safe for
// concurrent use.
type Computation struct {
	params  Params
	opts    Options
	acc     *Accumulator
	terms   *termState
	gens    generations
	tracker seriesTracker
	offset  int
	blocks  int
}

// Stats describes the work done by a finished computation.
type Stats struct {
	Limbs       int
	Blocks      int
	Generations int
	// Active is the final high-water term count of each generation.
	Active []int
	// LastPass is the sequence of active counts of the latest block pass.
	LastPass []int
}

// NewComputation validates the parameters and prepares the initial state.
//
// Parameters:
//   - p: The formula and precision.
//   - opts: The block geometry; zero fields take their defaults.
//
// Returns:
//   - *Computation: The ready-to-run computation.
//   - error: A validation error if the parameters are unusable.
func NewComputation(p Params, opts Options) (*Computation, error) {
	opts = opts.normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	terms, err := newTermState(p, opts.BlockWidth)
	if err != nil {
		return nil, err
	}
	return &Computation{
		params: p,
		opts:   opts,
		acc:    NewAccumulator(opts.BlockWidth, p.FractionLimbs(opts.BlockWidth)),
		terms:  terms,
	}, nil
}

// TotalBlocks returns the number of blocks needed to fill the accumulator.
func (c *Computation) TotalBlocks() int {
	return c.acc.Len() / c.opts.BlockWidth
}

// Run processes every block, reporting progress as the fraction of blocks
// completed. The context is checked between blocks.
func (c *Computation) Run(ctx context.Context, reporter ProgressReporter) error {
	total := c.TotalBlocks()
	for c.offset < c.acc.Len() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("calculation canceled after %d of %d blocks: %w", c.blocks, total, err)
		}
		if err := c.processBlock(); err != nil {
			return err
		}
		if reporter != nil {
			reporter(float64(c.blocks) / float64(total))
		}
	}
	return nil
}

// Accumulator returns the accumulator holding the result.
func (c *Computation) Accumulator() *Accumulator { return c.acc }

// Stats returns the work counters of the computation.
func (c *Computation) Stats() Stats {
	active := make([]int, len(c.gens))
	for i, g := range c.gens {
		active[i] = g.active
	}
	return Stats{
		Limbs:       c.acc.Len(),
		Blocks:      c.blocks,
		Generations: len(c.gens),
		Active:      active,
		LastPass:    slices.Clone(c.tracker.pass),
	}
}
