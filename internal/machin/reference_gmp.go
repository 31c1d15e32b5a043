//go:build gmp

// The GMP reference calculator is only built with the "gmp" tag, so the
// default build does not need libgmp:
//
//	go build -tags=gmp ./...
//
// Linux: apt-get install libgmp-dev. macOS: brew install gmp.

package machin

import (
	"context"

	"github.com/agbru/machin/internal/limb"
	"github.com/ncw/gmp"
)

func init() {
	RegisterCalculator("gmp", func() coreCalculator { return &GMPCalculator{} })
}

// GMPCalculator is the reference series evaluation on top of libgmp.
type GMPCalculator struct{}

// Name returns the name of the algorithm.
func (c *GMPCalculator) Name() string {
	return "Reference (GMP)"
}

// CalculateCore mirrors ReferenceCalculator.CalculateCore with gmp.Int
// arithmetic.
func (c *GMPCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, p Params, opts Options) (*Accumulator, error) {
	opts = opts.normalize()
	acc := NewAccumulator(opts.BlockWidth, p.FractionLimbs(opts.BlockWidth))

	unity := gmp.NewInt(1)
	unity.Lsh(unity, uint(acc.FractionLimbs()*limb.Bits+guardBits))
	total := gmp.NewInt(0)
	term := gmp.NewInt(0)
	for i, t := range p.Terms {
		s, err := arccotGMP(ctx, t.Argument, unity)
		if err != nil {
			return nil, err
		}
		term.SetUint64(uint64(t.Multiplier))
		term.Mul(term, s)
		total.Add(total, term)
		if reporter != nil {
			reporter(float64(i+1) / float64(len(p.Terms)+1))
		}
	}
	total.Mul(total, new(gmp.Int).SetUint64(p.Scale))
	total.Rsh(total, guardBits)

	if err := acc.SetBytes(total.Bytes()); err != nil {
		return nil, err
	}
	return acc, nil
}

func arccotGMP(ctx context.Context, x uint32, unity *gmp.Int) (*gmp.Int, error) {
	bx := new(gmp.Int).SetUint64(uint64(x))
	x2 := new(gmp.Int).Mul(bx, bx)
	power := new(gmp.Int).Quo(unity, bx)
	sum := new(gmp.Int).Set(power)
	term := new(gmp.Int)
	divisor := new(gmp.Int)
	for k := uint64(1); power.Sign() != 0; k++ {
		if k%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		power.Quo(power, x2)
		term.Quo(power, divisor.SetUint64(2*k+1))
		if k%2 == 1 {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}
	return sum, nil
}
