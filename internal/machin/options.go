package machin

import (
	"fmt"

	apperrors "github.com/agbru/machin/internal/errors"
)

// Default block geometry. A block is DefaultBlockWidth output limbs; a
// generation runs DefaultBlockHeight long-division steps of every series.
const (
	DefaultBlockWidth  = 64
	DefaultBlockHeight = 64
	// MinBlockWidth leaves room for the two-limb initial numerator.
	MinBlockWidth  = 2
	MaxBlockWidth  = 4096
	MinBlockHeight = 1
	MaxBlockHeight = 4096
)

// Options configures the block geometry used by the block-wise kernel.
// The reference calculators only use BlockWidth, to lay out the integer zone
// the same way.
type Options struct {
	// BlockWidth is the number of output limbs processed per block. It is
	// also the size of the accumulator's integer zone.
	BlockWidth int
	// BlockHeight is the number of consecutive odd divisors consumed by one
	// remainder generation.
	BlockHeight int
}

// DefaultOptions returns the standard 64x64 block geometry.
func DefaultOptions() Options {
	return Options{BlockWidth: DefaultBlockWidth, BlockHeight: DefaultBlockHeight}
}

// normalize fills zero fields with their defaults.
func (o Options) normalize() Options {
	if o.BlockWidth == 0 {
		o.BlockWidth = DefaultBlockWidth
	}
	if o.BlockHeight == 0 {
		o.BlockHeight = DefaultBlockHeight
	}
	return o
}

// Validate checks the block geometry. Zero values are accepted and mean
// "use the default".
func (o Options) Validate() error {
	o = o.normalize()
	if o.BlockWidth < MinBlockWidth || o.BlockWidth > MaxBlockWidth {
		return apperrors.NewValidationError("block-width",
			fmt.Sprintf("must be between %d and %d", MinBlockWidth, MaxBlockWidth), o.BlockWidth)
	}
	if o.BlockHeight < MinBlockHeight || o.BlockHeight > MaxBlockHeight {
		return apperrors.NewValidationError("block-height",
			fmt.Sprintf("must be between %d and %d", MinBlockHeight, MaxBlockHeight), o.BlockHeight)
	}
	return nil
}
