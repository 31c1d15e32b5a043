// Package limb provides the fixed-width unsigned building blocks shared by the
// arccotangent kernel: a single limb, the double-width intermediate used for
// products, dividends and carries, and its signed counterpart.
//
// All functions are pure value computations and never allocate.
package limb

import "math/bits"

// Limb is one base-2^Bits digit of every big-number representation.
type Limb = uint32

// Double holds two limbs. It is only used as an intermediate value for
// multiplication results, division dividends and carries; it is never stored.
type Double = uint64

// SignedDouble is the signed variant of Double used for carry deltas.
type SignedDouble = int64

const (
	// Bits is the width of a Limb in bits.
	Bits = 32
	// HalfBits is the width of a valid series argument. Arguments are
	// limited to half a limb so that their square fits in one Limb.
	HalfBits = Bits / 2
	// Max is the largest value a Limb can hold.
	Max = Limb(1<<Bits - 1)
	// ArgMax is the largest accepted arccotangent argument.
	ArgMax = Limb(1<<HalfBits - 1)
	// Digits10 is the number of decimal digits a Limb can always represent
	// (floor(Bits * log10(2))).
	Digits10 = Bits * 30103 / 100000
	// Pow10 is 10^Digits10, the decimal base used when extracting digits.
	// The conversion fails to compile if pow10 does not fit a Limb.
	Pow10 = Limb(pow10)
	// Base is 2^Bits as a Double.
	Base = Double(1) << Bits
)

// pow10 must be the largest power of ten below 2^Bits; the declaration
// below fails to compile when a wider Limb leaves it too small.
const pow10 = 1_000_000_000

const _ uint64 = 10*pow10 - 1<<Bits

// Join returns hi*2^Bits + lo.
func Join(hi, lo Limb) Double {
	return Double(hi)<<Bits | Double(lo)
}

// Split returns the high and low limbs of d.
func Split(d Double) (hi, lo Limb) {
	return Limb(d >> Bits), Limb(d)
}

// DivRem divides the two-limb value hi:lo by d. The caller guarantees
// hi < d, which makes the quotient fit in a single limb.
func DivRem(hi, lo, d Limb) (q, r Limb) {
	n := Join(hi, lo)
	return Limb(n / Double(d)), Limb(n % Double(d))
}

// MulAdd returns x*y + c as a (hi, lo) pair. It cannot overflow.
func MulAdd(x, y, c Limb) (hi, lo Limb) {
	return Split(Double(x)*Double(y) + Double(c))
}

// Product3 returns a*b*c as a Double and reports whether the product fits.
func Product3(a, b, c uint64) (Double, bool) {
	hi, ab := bits.Mul64(a, b)
	if hi != 0 {
		return 0, false
	}
	hi, abc := bits.Mul64(ab, c)
	if hi != 0 {
		return 0, false
	}
	return abc, true
}

// Square returns x*x for a valid argument.
func Square(x Limb) Limb {
	return x * x
}
