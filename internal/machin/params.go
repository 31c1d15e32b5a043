// Package machin evaluates Machin-type formulas
//
//	d * (m1*arccot(x1) + m2*arccot(x2) + ...)
//
// to an arbitrary number of 32-bit limbs. The kernel keeps a fixed-point
// accumulator and runs every arccotangent series as a long division over
// blocks of output limbs, reusing the partial remainders of each series step
// from one block to the next. A math/big reference calculator evaluates the
// same formula for cross-checking.
package machin

import (
	"fmt"
	"strings"

	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/limb"
)

const (
	// MaxPrecision bounds the precision in limbs. It keeps every odd
	// divisor of the series well inside a single limb.
	MaxPrecision = 1 << 24
	// MaxTerms bounds the number of (multiplier, argument) pairs so that the
	// signed delta of one digit row cannot overflow a SignedDouble.
	MaxTerms = 1024
	// MinArgument is the smallest argument whose series decays.
	// arccot(1) = 1 - 1/3 + 1/5 - ... never reaches a zero numerator.
	MinArgument = 2
)

// Term is one multiplier * arccot(argument) summand of a formula.
type Term struct {
	Multiplier limb.Limb
	Argument   limb.Limb
}

// Params is the validated parameter set handed to a calculator.
type Params struct {
	// Precision is the number of fractional limbs requested. It is rounded
	// up to a multiple of the block width by the block-wise kernel.
	Precision int
	// Scale is the integer d multiplying the whole sum.
	Scale uint64
	// Terms is the non-empty ordered list of summands.
	Terms []Term
}

// DefaultParams returns the formula used when no parameters are given:
// pi = 4 * (5*arccot(7) + 4*arccot(68) + 2*arccot(117)) at 17 limbs.
func DefaultParams() Params {
	return Params{
		Precision: 17,
		Scale:     4,
		Terms: []Term{
			{Multiplier: 5, Argument: 7},
			{Multiplier: 4, Argument: 68},
			{Multiplier: 2, Argument: 117},
		},
	}
}

// Validate checks every constraint the kernel relies on. It returns an
// apperrors.ValidationError naming the offending field.
func (p Params) Validate() error {
	if p.Precision < 1 {
		return apperrors.NewValidationError("precision", "must be at least 1 limb", p.Precision)
	}
	if p.Precision > MaxPrecision {
		return apperrors.NewValidationError("precision", fmt.Sprintf("must not exceed %d limbs", MaxPrecision), p.Precision)
	}
	if p.Scale == 0 {
		return apperrors.NewValidationError("scale", "must be a positive integer", p.Scale)
	}
	if len(p.Terms) == 0 {
		return apperrors.NewValidationError("terms", "at least one multiplier/argument pair is required", nil)
	}
	if len(p.Terms) > MaxTerms {
		return apperrors.NewValidationError("terms", fmt.Sprintf("at most %d pairs are supported", MaxTerms), len(p.Terms))
	}
	for i, t := range p.Terms {
		field := fmt.Sprintf("terms[%d].argument", i)
		if t.Argument < MinArgument {
			return apperrors.NewValidationError(field, fmt.Sprintf("must be at least %d", MinArgument), t.Argument)
		}
		if t.Argument > limb.ArgMax {
			return apperrors.NewValidationError(field, fmt.Sprintf("must not exceed %d", limb.ArgMax), t.Argument)
		}
		if _, ok := limb.Product3(uint64(t.Argument), uint64(t.Multiplier), p.Scale); !ok {
			return apperrors.NewValidationError("scale",
				fmt.Sprintf("argument*multiplier*scale of pair %d does not fit in %d bits", i+1, 2*limb.Bits), p.Scale)
		}
	}
	return nil
}

// String renders the formula, e.g. "4 * (5*arccot(7) + 4*arccot(68))".
func (p Params) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d * (", p.Scale)
	for i, t := range p.Terms {
		if i > 0 {
			sb.WriteString(" + ")
		}
		fmt.Fprintf(&sb, "%d*arccot(%d)", t.Multiplier, t.Argument)
	}
	sb.WriteString(")")
	return sb.String()
}

// FractionLimbs returns the fractional zone size for the given block width:
// the precision rounded up to a multiple of width.
func (p Params) FractionLimbs(width int) int {
	if p.Precision%width == 0 {
		return p.Precision
	}
	return (p.Precision/width + 1) * width
}
