package machin

import (
	"context"

	"github.com/rs/zerolog/log"
)

// BlockwiseCalculator is the limb kernel: every arccotangent series is run
// as a long division over blocks of BlockWidth output limbs, with the
// division remainders of each generation of BlockHeight steps carried from
// one block to the next. Memory is proportional to the precision plus the
// remainder store; no big-number multiplication is ever performed.
type BlockwiseCalculator struct{}

// Name returns the name of the algorithm.
func (c *BlockwiseCalculator) Name() string {
	return "Block-wise Long Division"
}

// CalculateCore runs the block-wise kernel.
func (c *BlockwiseCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, p Params, opts Options) (*Accumulator, error) {
	comp, err := NewComputation(p, opts)
	if err != nil {
		return nil, err
	}
	if err := comp.Run(ctx, reporter); err != nil {
		return nil, err
	}
	stats := comp.Stats()
	log.Debug().
		Int("limbs", stats.Limbs).
		Int("blocks", stats.Blocks).
		Int("generations", stats.Generations).
		Ints("last_pass", stats.LastPass).
		Msg("block-wise kernel finished")
	return comp.Accumulator(), nil
}
