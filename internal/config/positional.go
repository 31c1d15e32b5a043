package config

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/limb"
	"github.com/agbru/machin/internal/machin"
)

// ParsePositional reads "precision scale m1 a1 [m2 a2 ...]". With no
// arguments it returns machin.DefaultParams. The result is validated.
func ParsePositional(args []string) (machin.Params, error) {
	if len(args) == 0 {
		return machin.DefaultParams(), nil
	}
	if len(args) < 4 {
		return machin.Params{}, apperrors.NewValidationError("terms",
			"expected: precision scale multiplier argument [multiplier argument ...]", strings.Join(args, " "))
	}
	if len(args)%2 != 0 {
		return machin.Params{}, apperrors.NewValidationError("terms",
			fmt.Sprintf("multiplier %s has no argument", args[len(args)-1]), args[len(args)-1])
	}

	precision, err := strconv.Atoi(args[0])
	if err != nil {
		return machin.Params{}, apperrors.NewValidationError("precision", "must be an integer number of limbs", args[0])
	}
	scale, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return machin.Params{}, apperrors.NewValidationError("scale", "must be a positive integer", args[1])
	}

	p := machin.Params{Precision: precision, Scale: scale}
	for i := 2; i < len(args); i += 2 {
		t, err := parseTerm(args[i], args[i+1], len(p.Terms))
		if err != nil {
			return machin.Params{}, err
		}
		p.Terms = append(p.Terms, t)
	}
	if err := p.Validate(); err != nil {
		return machin.Params{}, err
	}
	return p, nil
}

// ParseTermList reads the compact "m:a,m:a" form used by the HTTP API.
func ParseTermList(s string) ([]machin.Term, error) {
	if strings.TrimSpace(s) == "" {
		return nil, apperrors.NewValidationError("terms", "at least one multiplier:argument pair is required", s)
	}
	parts := strings.Split(s, ",")
	terms := make([]machin.Term, 0, len(parts))
	for _, part := range parts {
		m, a, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, apperrors.NewValidationError("terms",
				fmt.Sprintf("pair %q is not of the form multiplier:argument", part), s)
		}
		t, err := parseTerm(m, a, len(terms))
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, nil
}

func parseTerm(multiplier, argument string, index int) (machin.Term, error) {
	m, err := strconv.ParseUint(multiplier, 10, limb.Bits)
	if err != nil {
		return machin.Term{}, apperrors.NewValidationError(fmt.Sprintf("terms[%d].multiplier", index),
			fmt.Sprintf("must be an integer between 0 and %d", uint64(limb.Max)), multiplier)
	}
	a, err := strconv.ParseUint(argument, 10, limb.Bits)
	if err != nil {
		return machin.Term{}, apperrors.NewValidationError(fmt.Sprintf("terms[%d].argument", index),
			fmt.Sprintf("must be an integer between %d and %d", machin.MinArgument, limb.ArgMax), argument)
	}
	return machin.Term{Multiplier: limb.Limb(m), Argument: limb.Limb(a)}, nil
}
