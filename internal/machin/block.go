package machin

import (
	"fmt"

	"github.com/agbru/machin/internal/limb"
)

// processBlock produces the next BlockWidth output limbs.
//
// Each generation divides every active series through its BlockHeight steps,
// row by row, and adds the signed sum of the step quotients to the
// accumulator at the row's position. The pass ends once every stored
// generation has been consumed and no series produced a non-zero quotient.
func (c *Computation) processBlock() error {
	next := len(c.terms.terms)
	c.tracker.reset()
	for g := 0; ; {
		gen := c.gens.at(g, next, c.opts.BlockHeight, len(c.terms.terms))
		if err := c.runGeneration(gen, g); err != nil {
			return err
		}
		g++
		next = c.tracker.next(c.terms, c.gens, g)
		if g >= len(c.gens) && next == 0 {
			break
		}
	}
	c.offset += c.opts.BlockWidth
	c.blocks++
	return nil
}

// runGeneration runs the BlockHeight series steps of generation g over every
// row of the quotient buffer.
//
// For step j the odd divisor is 1+2*(H*g+j); the step is added when the global
// step index H*g+j is even and subtracted otherwise. The quotient buffer is
// updated in place with the divided limbs, so the next generation continues
// the series where this one stopped.
func (c *Computation) runGeneration(gen *generation, g int) error {
	height := c.opts.BlockHeight
	first := height * g
	squares := c.terms.squares
	last := len(c.terms.terms)
	for r := 0; r < c.terms.rows; r++ {
		row := c.terms.row(r)
		divisor := limb.Double(2*first + 1)
		add := first%2 == 0
		var delta limb.SignedDouble
		for j := 0; j < height; j++ {
			rem := gen.step(j)
			var sum limb.Double
			for i := 0; i < gen.active; i++ {
				q, m := limb.DivRem(rem[i], row[i], squares[i])
				row[i], rem[i] = q, m
				sum += limb.Double(q)
			}
			sum += limb.Double(rem[last]) << limb.Bits
			rem[last] = limb.Limb(sum % divisor)
			if add {
				delta += limb.SignedDouble(sum / divisor)
			} else {
				delta -= limb.SignedDouble(sum / divisor)
			}
			add = !add
			divisor += 2
		}
		if err := c.acc.Add(delta, c.offset+r); err != nil {
			return fmt.Errorf("block %d, generation %d, row %d: %w", c.blocks, g, r, err)
		}
	}
	return nil
}
