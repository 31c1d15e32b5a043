package machin

import "github.com/agbru/machin/internal/limb"

// generation is one column of the remainder store: the partial long-division
// state of BlockHeight consecutive series steps, carried from block to
// block.
//
// Each step owns a fixed slot of len(terms)+1 limbs: one remainder per
// term by argument², then the remainder of the merged sum by the step's odd
// divisor. The stride never changes when active grows, so remainders of
// terms activated late stay in place.
type generation struct {
	// active is the high-water mark of terms that have been divided in
	// this generation. It never decreases.
	active     int
	remainders []limb.Limb
	stride     int
}

func newGeneration(active, height, terms int) *generation {
	return &generation{
		active:     active,
		remainders: make([]limb.Limb, height*(terms+1)),
		stride:     terms + 1,
	}
}

// step returns the remainder slot of step j.
func (g *generation) step(j int) []limb.Limb {
	return g.remainders[j*g.stride : (j+1)*g.stride]
}

// generations is the grow-only remainder store. Generation g covers odd
// divisors 1+2*H*g up to 1+2*H*(g+1)-2. Generations are appended, never
// reordered or removed; once a series has decayed in some generation it has
// decayed in every later one, so active counts do not increase with the
// index.
type generations []*generation

// at returns generation g, appending a fresh generation with the given active
// count when g is one past the end.
func (gs *generations) at(g, active, height, terms int) *generation {
	if g == len(*gs) {
		*gs = append(*gs, newGeneration(active, height, terms))
	}
	gen := (*gs)[g]
	gen.active = max(gen.active, active)
	return gen
}
