package machin

import "testing"

func TestParamsString(t *testing.T) {
	t.Parallel()
	want := "4 * (5*arccot(7) + 4*arccot(68) + 2*arccot(117))"
	if got := DefaultParams().String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParamsFractionLimbs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		precision, width, want int
	}{
		{1, 64, 64},
		{17, 64, 64},
		{64, 64, 64},
		{65, 64, 128},
		{3, 2, 4},
		{4, 2, 4},
	}
	for _, tt := range tests {
		p := Params{Precision: tt.precision}
		if got := p.FractionLimbs(tt.width); got != tt.want {
			t.Errorf("FractionLimbs(precision=%d, width=%d) = %d, want %d", tt.precision, tt.width, got, tt.want)
		}
	}
}

func TestDefaultsAreValid(t *testing.T) {
	t.Parallel()
	if err := DefaultParams().Validate(); err != nil {
		t.Errorf("DefaultParams() invalid: %v", err)
	}
	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("DefaultOptions() invalid: %v", err)
	}
	if err := (Options{}).Validate(); err != nil {
		t.Errorf("zero Options should take defaults: %v", err)
	}
	if err := (Params{Precision: MaxPrecision + 1, Scale: 1, Terms: []Term{{1, 2}}}).Validate(); err == nil {
		t.Error("precision above MaxPrecision should be rejected")
	}
	if err := (Params{Precision: 1, Scale: 1, Terms: make([]Term, MaxTerms+1)}).Validate(); err == nil {
		t.Error("too many terms should be rejected")
	}
}
