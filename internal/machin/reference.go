package machin

import (
	"context"
	"math/big"

	"github.com/agbru/machin/internal/limb"
)

// guardBits are extra low-order bits carried by the reference calculators
// to absorb the truncation of every series term.
const guardBits = 64

// cancelCheckInterval is the number of series steps between context checks.
const cancelCheckInterval = 256

// ReferenceCalculator evaluates the formula with math/big. It is much slower
// than the block-wise kernel for large precisions but shares no code with it,
// which makes it the oracle for cross-checking.
type ReferenceCalculator struct{}

// Name returns the name of the algorithm.
func (c *ReferenceCalculator) Name() string {
	return "Reference (math/big)"
}

// CalculateCore computes floor(d * sum(m_i * arccot(x_i)) * 2^(Bits*F)) and
// loads it into an accumulator laid out like the block-wise one.
func (c *ReferenceCalculator) CalculateCore(ctx context.Context, reporter ProgressReporter, p Params, opts Options) (*Accumulator, error) {
	opts = opts.normalize()
	acc := NewAccumulator(opts.BlockWidth, p.FractionLimbs(opts.BlockWidth))

	unity := new(big.Int).Lsh(big.NewInt(1), uint(acc.FractionLimbs()*limb.Bits+guardBits))
	total := new(big.Int)
	term := new(big.Int)
	for i, t := range p.Terms {
		s, err := arccotBig(ctx, t.Argument, unity)
		if err != nil {
			return nil, err
		}
		term.SetUint64(uint64(t.Multiplier))
		total.Add(total, term.Mul(term, s))
		if reporter != nil {
			reporter(float64(i+1) / float64(len(p.Terms)+1))
		}
	}
	total.Mul(total, new(big.Int).SetUint64(p.Scale))
	total.Rsh(total, guardBits)

	if err := acc.SetBytes(total.Bytes()); err != nil {
		return nil, err
	}
	return acc, nil
}

// arccotBig returns arccot(x) * unity using the alternating series
// 1/x - 1/(3x^3) + 1/(5x^5) - ..., each term truncated.
func arccotBig(ctx context.Context, x uint32, unity *big.Int) (*big.Int, error) {
	bx := new(big.Int).SetUint64(uint64(x))
	x2 := new(big.Int).Mul(bx, bx)
	power := new(big.Int).Quo(unity, bx)
	sum := new(big.Int).Set(power)
	term := new(big.Int)
	divisor := new(big.Int)
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
