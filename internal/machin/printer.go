package machin

import (
	"slices"
	"strings"

	"github.com/agbru/machin/internal/limb"
)

// UnreliableDigits is the number of trailing fractional digits that may
// differ between calculators: the kernel truncates every series division, so
// the last couple of emitted digits are not guaranteed.
const UnreliableDigits = 2

// Digits is the decimal rendering of an accumulator.
type Digits struct {
	Integer  string
	Fraction string
}

// String returns "INTEGER" or "INTEGER.FRACTION".
func (d Digits) String() string {
	if d.Fraction == "" {
		return d.Integer
	}
	return d.Integer + "." + d.Fraction
}

// Len returns the number of decimal digits, integer and fraction combined.
func (d Digits) Len() int { return len(d.Integer) + len(d.Fraction) }

// FractionDigitLimit returns how many fractional digits are rendered for a
// fractional zone of fracLimbs limbs.
func FractionDigitLimit(fracLimbs int) int {
	return fracLimbs*limb.Digits10 - 2
}

// Render converts the accumulator to decimal. It consumes the accumulator:
// the integer zone is divided down to zero, then the fraction is multiplied
// out through the units limb.
func (a *Accumulator) Render() Digits {
	integer := a.integerDigits()
	return Digits{
		Integer:  integer,
		Fraction: a.fractionDigits(FractionDigitLimit(a.FractionLimbs())),
	}
}

// integerDigits repeatedly divides the integer zone by 10, collecting the
// remainders least significant digit first.
func (a *Accumulator) integerDigits() string {
	zone := a.limbs[:a.IntegerLimbs()]
	first := 0
	for first < len(zone) && zone[first] == 0 {
		first++
	}
	var buf []byte
	for first < len(zone) {
		var r limb.Double
		for i := first; i < len(zone); i++ {
			n := r<<limb.Bits | limb.Double(zone[i])
			zone[i] = limb.Limb(n / 10)
			r = n % 10
		}
		buf = append(buf, '0'+byte(r))
		for first < len(zone) && zone[first] == 0 {
			first++
		}
	}
	if len(buf) == 0 {
		return "0"
	}
	slices.Reverse(buf)
	return string(buf)
}

// fractionDigits multiplies the fraction by 10^Digits10 until it is zero or
// more than limit digits were produced. Each multiplication pushes one chunk
// of Digits10 decimal digits into the units limb, which is then cleared.
// Only the span up to the last non-zero limb is multiplied.
func (a *Accumulator) fractionDigits(limit int) string {
	units := a.IntegerLimbs() - 1
	a.limbs[units] = 0
	last := len(a.limbs) - 1
	for last > units && a.limbs[last] == 0 {
		last--
	}
	var sb strings.Builder
	for last > units && sb.Len() <= limit {
		var carry limb.Double
		for i := last; i >= units; i-- {
			carry += limb.Double(a.limbs[i]) * limb.Double(limb.Pow10)
			a.limbs[i] = limb.Limb(carry)
			carry >>= limb.Bits
		}
		chunk := a.limbs[units]
		for p := limb.Pow10 / 10; p > 0; p /= 10 {
			sb.WriteByte('0' + byte(chunk/p))
			chunk %= p
		}
		a.limbs[units] = 0
		for last > units && a.limbs[last] == 0 {
			last--
		}
	}
	return sb.String()
}
