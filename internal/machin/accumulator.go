package machin

import (
	"fmt"

	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/limb"
)

// ErrAccumulatorRange reports that a carry or borrow ran past the most
// significant limb. It wraps apperrors.ErrInvariant: it signals an undersized
// integer zone or a numeric-model defect, never bad user input.
var ErrAccumulatorRange = fmt.Errorf("%w: carry propagated past the accumulator", apperrors.ErrInvariant)

// Accumulator is a non-negative fixed-point number stored as limbs, most
// significant first. The first IntegerLimbs limbs hold the integer part, the
// remaining limbs the fraction; limb IntegerLimbs-1 is the units limb.
//
// Rendering digits consumes the accumulator.
type Accumulator struct {
	limbs    []limb.Limb
	intLimbs int
}

// NewAccumulator allocates a zero accumulator with the given zone sizes.
func NewAccumulator(intLimbs, fracLimbs int) *Accumulator {
	return &Accumulator{
		limbs:    make([]limb.Limb, intLimbs+fracLimbs),
		intLimbs: intLimbs,
	}
}

// Len returns the total number of limbs.
func (a *Accumulator) Len() int { return len(a.limbs) }

// IntegerLimbs returns the size of the integer zone.
func (a *Accumulator) IntegerLimbs() int { return a.intLimbs }

// FractionLimbs returns the size of the fractional zone.
func (a *Accumulator) FractionLimbs() int { return len(a.limbs) - a.intLimbs }

// Limbs exposes the underlying storage, most significant limb first.
func (a *Accumulator) Limbs() []limb.Limb { return a.limbs }

// Add adds a signed double-limb delta at position pos, carrying (delta > 0)
// or borrowing (delta < 0) toward more significant limbs until the delta is
// absorbed. Limbs after pos are never read or written. A zero delta leaves
// the accumulator untouched.
//
// An ErrAccumulatorRange error from a carry or borrow is returned after the
// limbs it walked have been modified; the accumulator is unusable from then
// on.
func (a *Accumulator) Add(delta limb.SignedDouble, pos int) error {
	if pos < 0 || pos >= len(a.limbs) {
		return fmt.Errorf("%w: position %d of %d", ErrAccumulatorRange, pos, len(a.limbs))
	}
	if delta < 0 {
		// -delta wraps for the minimum value, but its unsigned
		// reinterpretation is still the correct magnitude.
		return a.borrow(limb.Double(-delta), pos)
	}
	return a.carry(limb.Double(delta), pos)
}

func (a *Accumulator) carry(d limb.Double, pos int) error {
	for d != 0 {
		if pos < 0 {
			return fmt.Errorf("%w: carry overflow", ErrAccumulatorRange)
		}
		d += limb.Double(a.limbs[pos])
		a.limbs[pos] = limb.Limb(d)
		d >>= limb.Bits
		pos--
	}
	return nil
}

func (a *Accumulator) borrow(d limb.Double, pos int) error {
	for d > limb.Double(a.limbs[pos]) {
		hi, lo := limb.Split(d)
		d = limb.Double(hi)
		if lo > a.limbs[pos] {
			a.limbs[pos] = limb.Limb(limb.Base + limb.Double(a.limbs[pos]) - limb.Double(lo))
			d++
		} else {
			a.limbs[pos] -= lo
		}
		pos--
		if pos < 0 {
			return fmt.Errorf("%w: borrow underflow", ErrAccumulatorRange)
		}
	}
	a.limbs[pos] -= limb.Limb(d)
	return nil
}

// SetBytes loads a big-endian magnitude, right aligned, into the
// accumulator. It is used by the reference calculators, whose results are
// already scaled by 2^(Bits*FractionLimbs).
func (a *Accumulator) SetBytes(b []byte) error {
	const limbBytes = limb.Bits / 8
	if len(b) > len(a.limbs)*limbBytes {
		for _, x := range b[:len(b)-len(a.limbs)*limbBytes] {
			if x != 0 {
				return fmt.Errorf("%w: value needs %d bytes", ErrAccumulatorRange, len(b))
			}
		}
		b = b[len(b)-len(a.limbs)*limbBytes:]
	}
	clear(a.limbs)
	i := len(a.limbs) - 1
	for end := len(b); end > 0; end -= limbBytes {
		start := max(end-limbBytes, 0)
		var v limb.Limb
		for _, x := range b[start:end] {
			v = v<<8 | limb.Limb(x)
		}
		a.limbs[i] = v
		i--
	}
	return nil
}
