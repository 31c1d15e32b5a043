package machin

import (
	"fmt"
	"slices"

	"github.com/agbru/machin/internal/limb"
)

// termState holds the per-argument series state of one computation.
//
// Terms are kept sorted by ascending argument. Smaller arguments decay more
// slowly, so the set of series still contributing to a block is always a
// prefix of the sorted list and an active count is enough to describe it.
type termState struct {
	terms   []Term
	squares []limb.Limb
	// quotients has one row per digit slot of a block and one column per
	// term; row r, term i lives at r*len(terms)+i.
	quotients []limb.Limb
	rows      int
}

// newTermState sorts the terms and seeds the quotient buffer with the
// initial numerators argument*multiplier*scale, whose low limb sits in the
// last row and high limb in the row before it.
func newTermState(p Params, rows int) (*termState, error) {
	terms := slices.Clone(p.Terms)
	slices.SortStableFunc(terms, func(a, b Term) int {
		return int(a.Argument) - int(b.Argument)
	})

	n := len(terms)
	ts := &termState{
		terms:     terms,
		squares:   make([]limb.Limb, n),
		quotients: make([]limb.Limb, rows*n),
		rows:      rows,
	}
	for i, t := range terms {
		ts.squares[i] = limb.Square(t.Argument)
		num, ok := limb.Product3(uint64(t.Argument), uint64(t.Multiplier), p.Scale)
		if !ok {
			return nil, fmt.Errorf("machin: initial numerator of arccot(%d) overflows", t.Argument)
		}
		hi, lo := limb.Split(num)
		ts.quotients[(rows-1)*n+i] = lo
		ts.quotients[(rows-2)*n+i] = hi
	}
	return ts, nil
}

// row returns the quotient limbs of digit slot r, one per term.
func (ts *termState) row(r int) []limb.Limb {
	n := len(ts.terms)
	return ts.quotients[r*n : r*n+n]
}

// lastNonZero returns one past the highest term index that still has a
// non-zero quotient limb anywhere in the buffer, or 0 when every series has
// decayed.
func (ts *termState) lastNonZero() int {
	n := len(ts.terms)
	count := 0
	for r := 0; r < ts.rows; r++ {
		row := ts.quotients[r*n : r*n+n]
		for i := n - 1; i >= count; i-- {
			if row[i] != 0 {
				count = i + 1
				break
			}
		}
		if count == n {
			break
		}
	}
	return count
}
