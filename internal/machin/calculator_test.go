package machin

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/testutil"
)

// stubCore is a coreCalculator returning a fixed accumulator.
type stubCore struct {
	calls int
	err   error
}

func (s *stubCore) Name() string { return "stub" }

func (s *stubCore) CalculateCore(ctx context.Context, reporter ProgressReporter, p Params, opts Options) (*Accumulator, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	reporter(0.5)
	acc := NewAccumulator(opts.BlockWidth, p.FractionLimbs(opts.BlockWidth))
	acc.limbs[opts.BlockWidth-1] = 7
	return acc, nil
}

func TestFormulaCalculatorRendersDigits(t *testing.T) {
	t.Parallel()
	core := &stubCore{}
	calc := NewCalculator(core)
	if calc.Name() != "stub" {
		t.Errorf("Name() = %q, want stub", calc.Name())
	}

	progress := make(chan ProgressUpdate, 10)
	got, err := calc.Calculate(context.Background(), progress, 3, DefaultParams(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	close(progress)
	if got.Integer != "7" || got.Fraction != "" {
		t.Errorf("got %+v, want integer 7 with no fraction", got)
	}

	var updates []ProgressUpdate
	for u := range progress {
		updates = append(updates, u)
	}
	if len(updates) != 2 || updates[1].Value != 1.0 || updates[0].CalculatorIndex != 3 {
		t.Errorf("progress updates = %+v, want 0.5 then 1.0 for calculator 3", updates)
	}
}

func TestFormulaCalculatorValidates(t *testing.T) {
	t.Parallel()
	core := &stubCore{}
	calc := NewCalculator(core)

	tests := []struct {
		name   string
		params Params
		opts   Options
		field  string
	}{
		{"zero precision", Params{Precision: 0, Scale: 4, Terms: DefaultParams().Terms}, Options{}, "precision"},
		{"zero scale", Params{Precision: 1, Scale: 0, Terms: DefaultParams().Terms}, Options{}, "scale"},
		{"no terms", Params{Precision: 1, Scale: 1}, Options{}, "terms"},
		{"argument one", Params{Precision: 1, Scale: 1, Terms: []Term{{1, 1}}}, Options{}, "terms[0].argument"},
		{"argument too large", Params{Precision: 1, Scale: 1, Terms: []Term{{1, 2}, {1, 65536}}}, Options{}, "terms[1].argument"},
		{"numerator overflow", Params{Precision: 1, Scale: 1 << 20, Terms: []Term{{0xffffffff, 65535}}}, Options{}, "scale"},
		{"narrow block", DefaultParams(), Options{BlockWidth: 1}, "block-width"},
		{"tall block", DefaultParams(), Options{BlockHeight: MaxBlockHeight + 1}, "block-height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(context.Background(), nil, 0, tt.params, tt.opts)
			var ve apperrors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
	if core.calls != 0 {
		t.Errorf("core called %d times for invalid input", core.calls)
	}
}

func TestFormulaCalculatorPropagatesErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	calc := NewCalculator(&stubCore{err: boom})
	if _, err := calc.Calculate(context.Background(), nil, 0, DefaultParams(), Options{}); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestNewCalculatorPanicsOnNil(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("NewCalculator(nil) should panic")
		}
	}()
	NewCalculator(nil)
}

func TestReferenceCalculatorPi(t *testing.T) {
	t.Parallel()
	got, err := NewCalculator(&ReferenceCalculator{}).Calculate(context.Background(), nil, 0, DefaultParams(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !testutil.HasPiPrefix(got.String(), UnreliableDigits) {
		t.Errorf("reference pi mismatch: %s", got)
	}
}

func TestReferenceCalculatorCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Params{Precision: 4096, Scale: 4, Terms: []Term{{1, 2}}}
	_, err := (&ReferenceCalculator{}).CalculateCore(ctx, nil, p, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDefaultFactory(t *testing.T) {
	t.Parallel()
	factory := NewDefaultFactory()

	if got := factory.List(); len(got) != 2 || got[0] != "blockwise" || got[1] != "reference" {
		t.Errorf("List() = %v, want [blockwise reference]", got)
	}

	t.Run("RegisterAndHas", func(t *testing.T) {
		if err := factory.Register("stub", func() coreCalculator { return &stubCore{} }); err != nil {
			t.Fatal(err)
		}
		if !factory.Has("stub") || factory.Has("nonexistent") {
			t.Error("Has() reports the wrong registrations")
		}
		if err := factory.Register("", nil); err == nil {
			t.Error("Register should reject an empty registration")
		}
	})

	t.Run("GetCaches", func(t *testing.T) {
		a, err := factory.Get("blockwise")
		if err != nil {
			t.Fatal(err)
		}
		b, _ := factory.Get("blockwise")
		if a != b {
			t.Error("Get should return the cached instance")
		}
		c, _ := factory.Create("blockwise")
		if c == a {
			t.Error("Create should return a fresh instance")
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := factory.Get("nonexistent")
		var unknown *UnknownCalculatorError
		if !errors.As(err, &unknown) || unknown.Name != "nonexistent" {
			t.Errorf("Get(nonexistent) error = %v", err)
		}
		if _, err := factory.Create("nonexistent"); err == nil {
			t.Error("Create should fail for an unknown name")
		}
	})

	t.Run("GetAll", func(t *testing.T) {
		if _, ok := factory.GetAll()["reference"]; !ok {
			t.Error("GetAll should include reference")
		}
	})
}

func TestGlobalFactory(t *testing.T) {
	t.Parallel()
	if !GlobalFactory().Has("blockwise") {
		t.Error("global factory should have blockwise")
	}
}

func TestTestFactory(t *testing.T) {
	t.Parallel()
	mock := &MockCalculator{Label: "m", Result: Digits{Integer: "1"}}
	f := NewTestFactory(map[string]Calculator{"m": mock})
	calc, err := f.Get("m")
	if err != nil || calc.Name() != "m" {
		t.Fatalf("Get(m) = %v, %v", calc, err)
	}
	if _, err := f.Create("x"); err == nil {
		t.Error("Create(x) should fail")
	}
	got, _ := calc.Calculate(context.Background(), nil, 0, Params{}, Options{})
	if got.String() != "1" {
		t.Errorf("mock result = %s", got)
	}
	if len(f.List()) != 1 || len(f.GetAll()) != 1 {
		t.Error("TestFactory should list one calculator")
	}
}
