package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/machin/internal/calibration"
	"github.com/agbru/machin/internal/config"
	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/logging"
	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/testutil"
	"github.com/agbru/machin/pkg/models"
)

var piDigits = machin.Digits{Integer: "3", Fraction: "14159265358979323846"}

func createMockFactory(digits machin.Digits, err error) *machin.TestFactory {
	return machin.NewTestFactory(map[string]machin.Calculator{
		"blockwise": &machin.MockCalculator{Label: "Blockwise", Result: digits, Err: err},
		"reference": &machin.MockCalculator{Label: "Reference", Result: digits, Err: err},
	})
}

func blockingFactory() *machin.TestFactory {
	return machin.NewTestFactory(map[string]machin.Calculator{
		"blockwise": &machin.MockCalculator{Fn: func(ctx context.Context, _ machin.Params) (machin.Digits, error) {
			<-ctx.Done()
			return machin.Digits{}, ctx.Err()
		}},
	})
}

func baseConfig(algo string) config.AppConfig {
	return config.AppConfig{
		Params:      machin.DefaultParams(),
		BlockWidth:  16,
		BlockHeight: 8,
		Algo:        algo,
		Timeout:     time.Minute,
		NoColor:     true,
		LogLevel:    "disabled",
	}
}

func newTestApp(cfg config.AppConfig, factory machin.CalculatorFactory) (*Application, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Application{Config: cfg, Factory: factory, Out: &out, ErrWriter: &errOut}, &out, &errOut
}

func TestNew(t *testing.T) {
	t.Parallel()
	factory := createMockFactory(piDigits, nil)

	t.Run("formula and flags", func(t *testing.T) {
		t.Parallel()
		var out, errOut bytes.Buffer
		app, err := NewWithFactory([]string{"machin", "-block-width", "32", "-algo", "reference", "10", "4", "1", "5"}, factory, &out, &errOut)
		if err != nil {
			t.Fatalf("NewWithFactory() error = %v", err)
		}
		if got := app.Config.Params.String(); got != "4 * (1*arccot(5))" {
			t.Errorf("formula = %q", got)
		}
		if app.Config.Params.Precision != 10 || app.Config.BlockWidth != 32 || app.Config.Algo != "reference" {
			t.Errorf("unexpected config %+v", app.Config)
		}
		if app.Factory != factory || app.Out != &out || app.ErrWriter != &errOut {
			t.Error("application not wired to its factory and writers")
		}
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		t.Parallel()
		var out, errOut bytes.Buffer
		_, err := NewWithFactory([]string{"machin", "-algo", "gmp"}, factory, &out, &errOut)
		if err == nil || IsHelpError(err) {
			t.Fatalf("expected a configuration error, got %v", err)
		}
		if apperrors.ExitCode(err) != apperrors.ExitErrorConfig {
			t.Errorf("exit code = %d, want %d", apperrors.ExitCode(err), apperrors.ExitErrorConfig)
		}
		if out.Len() != 0 {
			t.Errorf("a failing parse must not write to stdout, got %q", out.String())
		}
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()
		var out, errOut bytes.Buffer
		_, err := NewWithFactory([]string{"machin", "-h"}, factory, &out, &errOut)
		if !IsHelpError(err) {
			t.Fatalf("expected a help error, got %v", err)
		}
		if !strings.Contains(out.String(), "-block-width") {
			t.Errorf("help text should go to stdout, got %q", out.String())
		}
	})

	t.Run("empty args use the default formula", func(t *testing.T) {
		t.Parallel()
		app, err := NewWithFactory(nil, factory, &bytes.Buffer{}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("NewWithFactory(nil) error = %v", err)
		}
		if got, want := app.Config.Params.String(), machin.DefaultParams().String(); got != want {
			t.Errorf("formula = %q, want %q", got, want)
		}
	})

	t.Run("cached profile applies unless geometry is explicit", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "profile.json")
		profile := calibration.NewProfile()
		profile.BlockWidth, profile.BlockHeight = 128, 32
		if err := profile.SaveProfile(path); err != nil {
			t.Fatal(err)
		}

		app, err := NewWithFactory([]string{"machin", "-calibration-profile", path}, factory, &bytes.Buffer{}, &bytes.Buffer{})
		if err != nil {
			t.Fatal(err)
		}
		if app.Config.BlockWidth != 128 || app.Config.BlockHeight != 32 {
			t.Errorf("profile not applied: %dx%d", app.Config.BlockWidth, app.Config.BlockHeight)
		}

		app, err = NewWithFactory([]string{"machin", "-calibration-profile", path, "-block-height", "4"}, factory, &bytes.Buffer{}, &bytes.Buffer{})
		if err != nil {
			t.Fatal(err)
		}
		if app.Config.BlockWidth != machin.DefaultBlockWidth || app.Config.BlockHeight != 4 {
			t.Errorf("explicit geometry overridden: %dx%d", app.Config.BlockWidth, app.Config.BlockHeight)
		}
	})
}

// Run configures the global logger, so these tests are not parallel.
func TestApplicationRun(t *testing.T) {
	t.Run("single calculator prints only the digits", func(t *testing.T) {
		app, out, _ := newTestApp(baseConfig("blockwise"), createMockFactory(piDigits, nil))
		if code := app.Run(context.Background()); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		if got, want := out.String(), piDigits.String()+"\n"; got != want {
			t.Errorf("stdout = %q, want %q", got, want)
		}
	})

	t.Run("cross-check reports on stderr", func(t *testing.T) {
		app, out, errOut := newTestApp(baseConfig(config.AllAlgos), createMockFactory(piDigits, nil))
		if code := app.Run(context.Background()); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		if strings.Count(out.String(), "\n") != 1 {
			t.Errorf("stdout should hold one line, got %q", out.String())
		}
		text := testutil.StripAnsiCodes(errOut.String())
		for _, want := range []string{"Comparison Summary", "Global Status: Success"} {
			if !strings.Contains(text, want) {
				t.Errorf("stderr missing %q:\n%s", want, text)
			}
		}
	})

	t.Run("mismatch writes nothing to stdout", func(t *testing.T) {
		wrong := piDigits
		wrong.Fraction = "24159265358979323846"
		factory := machin.NewTestFactory(map[string]machin.Calculator{
			"blockwise": &machin.MockCalculator{Label: "a", Result: piDigits},
			"reference": &machin.MockCalculator{Label: "b", Result: wrong},
		})
		app, out, _ := newTestApp(baseConfig(config.AllAlgos), factory)
		if code := app.Run(context.Background()); code != apperrors.ExitErrorMismatch {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorMismatch)
		}
		if out.Len() != 0 {
			t.Errorf("stdout = %q, want empty", out.String())
		}
	})

	t.Run("timeout", func(t *testing.T) {
		cfg := baseConfig("blockwise")
		cfg.Timeout = time.Millisecond
		app, out, errOut := newTestApp(cfg, blockingFactory())
		if code := app.Run(context.Background()); code != apperrors.ExitErrorTimeout {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorTimeout)
		}
		if out.Len() != 0 {
			t.Errorf("stdout = %q, want empty", out.String())
		}
		if !strings.Contains(errOut.String(), "Timeout") {
			t.Errorf("stderr should mention the timeout:\n%s", errOut.String())
		}
	})

	t.Run("cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		app, _, _ := newTestApp(baseConfig("blockwise"), blockingFactory())
		if code := app.Run(ctx); code != apperrors.ExitErrorCanceled {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
		}
	})

	t.Run("invalid formula", func(t *testing.T) {
		factory := createMockFactory(machin.Digits{}, apperrors.NewValidationError("scale", "must be a positive integer", 0))
		app, out, _ := newTestApp(baseConfig("blockwise"), factory)
		if code := app.Run(context.Background()); code != apperrors.ExitErrorConfig {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
		}
		if out.Len() != 0 {
			t.Errorf("stdout = %q, want empty", out.String())
		}
	})

	t.Run("json output", func(t *testing.T) {
		cfg := baseConfig("blockwise")
		cfg.JSONOutput = true
		app, out, _ := newTestApp(cfg, createMockFactory(piDigits, nil))
		if code := app.Run(context.Background()); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		var resp models.CalculationResponse
		if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON %q: %v", out.String(), err)
		}
		if resp.Result != piDigits.String() || resp.Algorithm != "Blockwise" || resp.Digits != piDigits.Len() {
			t.Errorf("unexpected response %+v", resp)
		}
		if resp.Formula != cfg.Params.String() || len(resp.Terms) != 3 || resp.Terms[1] != (models.TermDTO{Multiplier: 4, Argument: 68}) {
			t.Errorf("formula not echoed: %+v", resp)
		}
	})

	t.Run("details and output file", func(t *testing.T) {
		cfg := baseConfig("blockwise")
		cfg.Details = true
		cfg.OutputFile = filepath.Join(t.TempDir(), "nested", "pi.txt")
		app, out, errOut := newTestApp(cfg, createMockFactory(piDigits, nil))
		if code := app.Run(context.Background()); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d, stderr:\n%s", code, errOut.String())
		}
		if out.String() != piDigits.String()+"\n" {
			t.Errorf("details must not reach stdout, got %q", out.String())
		}
		text := testutil.StripAnsiCodes(errOut.String())
		for _, want := range []string{"Execution Configuration", "Block geometry", "Result saved to"} {
			if !strings.Contains(text, want) {
				t.Errorf("stderr missing %q:\n%s", want, text)
			}
		}
		saved, err := os.ReadFile(cfg.OutputFile)
		if err != nil {
			t.Fatalf("output file not written: %v", err)
		}
		if !strings.Contains(string(saved), "# Formula: "+cfg.Params.String()) || !strings.HasSuffix(string(saved), piDigits.String()+"\n") {
			t.Errorf("unexpected file content:\n%s", saved)
		}
	})

	t.Run("real kernels agree on pi", func(t *testing.T) {
		app, out, errOut := newTestApp(baseConfig(config.AllAlgos), machin.NewDefaultFactory())
		if code := app.Run(context.Background()); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d, stderr:\n%s", code, errOut.String())
		}
		if got := strings.TrimSpace(out.String()); !testutil.HasPiPrefix(got, machin.UnreliableDigits) {
			t.Errorf("result is not pi: %s", got)
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		cfg := baseConfig("blockwise")
		cfg.LogLevel = "loud"
		app, _, errOut := newTestApp(cfg, createMockFactory(piDigits, nil))
		if code := app.Run(context.Background()); code != apperrors.ExitErrorConfig {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
		}
		if !strings.Contains(errOut.String(), "invalid log level") {
			t.Errorf("stderr = %q", errOut.String())
		}
	})
}

func TestRunCompletion(t *testing.T) {
	cfg := baseConfig("blockwise")
	cfg.Completion = "bash"
	app, out, _ := newTestApp(cfg, createMockFactory(piDigits, nil))
	if code := app.Run(context.Background()); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "blockwise reference all") {
		t.Errorf("completion script missing algorithms:\n%s", out.String())
	}

	cfg.Completion = "powershell"
	app, _, errOut := newTestApp(cfg, createMockFactory(piDigits, nil))
	if code := app.Run(context.Background()); code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
	}
	if !strings.Contains(errOut.String(), "Error generating completion") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestRunVersion(t *testing.T) {
	cfg := baseConfig("blockwise")
	cfg.ShowVersion = true
	app, out, _ := newTestApp(cfg, createMockFactory(piDigits, nil))
	if code := app.Run(context.Background()); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out.String(), "machin "+Version) {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestRunServer(t *testing.T) {
	cfg := baseConfig("blockwise")
	cfg.ServerMode = true
	cfg.Port = "0"
	app, _, errOut := newTestApp(cfg, createMockFactory(piDigits, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if code := app.Run(ctx); code != apperrors.ExitSuccess {
		t.Errorf("exit code = %d, stderr:\n%s", code, errOut.String())
	}
}

func TestRunCalibration(t *testing.T) {
	cfg := baseConfig("blockwise")
	cfg.Calibrate = true
	cfg.CalibrationProfile = filepath.Join(t.TempDir(), "profile.json")
	app, out, errOut := newTestApp(cfg, createMockFactory(piDigits, nil))

	if code := app.Run(context.Background()); code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf("calibration must report on stderr, stdout = %q", out.String())
	}
	if !strings.Contains(testutil.StripAnsiCodes(errOut.String()), "Recommendation for this machine") {
		t.Errorf("missing recommendation:\n%s", errOut.String())
	}
	profile, err := calibration.LoadProfile(cfg.CalibrationProfile)
	if err != nil {
		t.Fatalf("profile not saved: %v", err)
	}
	if !profile.IsValid() {
		t.Errorf("saved profile is invalid: %+v", profile)
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		server bool
		level  string
		want   string
	}{
		{false, logging.DefaultLevel, logging.DefaultLevel},
		{true, logging.DefaultLevel, "info"},
		{true, "debug", "debug"},
		{false, "error", "error"},
	}
	for _, tt := range tests {
		app := &Application{Config: config.AppConfig{ServerMode: tt.server, LogLevel: tt.level}}
		if got := app.logLevel(); got != tt.want {
			t.Errorf("logLevel(server=%v, %q) = %q, want %q", tt.server, tt.level, got, tt.want)
		}
	}
}

func TestIsHelpError(t *testing.T) {
	t.Parallel()
	if IsHelpError(errors.New("boom")) || IsHelpError(nil) {
		t.Error("only flag.ErrHelp is a help error")
	}
	if !IsHelpError(apperrors.WrapError(flag.ErrHelp, "parse")) {
		t.Error("a wrapped flag.ErrHelp is a help error")
	}
}

func TestSetupLifecycle(t *testing.T) {
	t.Parallel()
	ctx, cancels := SetupLifecycle(context.Background(), 20*time.Millisecond)
	defer cancels.Cleanup()
	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.Errorf("ctx.Err() = %v, want deadline exceeded", ctx.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("lifecycle context did not expire")
	}

	ctx, cancels = SetupLifecycle(context.Background(), time.Minute)
	cancels.Cleanup()
	if ctx.Err() == nil {
		t.Error("Cleanup should cancel the context")
	}
	(&CancelFuncs{}).Cleanup()
}
