package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/agbru/machin/internal/calibration"
	"github.com/agbru/machin/internal/cli"
	"github.com/agbru/machin/internal/config"
	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/logging"
	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/orchestration"
	"github.com/agbru/machin/internal/server"
	"github.com/agbru/machin/internal/ui"
	"github.com/agbru/machin/pkg/models"
)

// Application is one invocation of machin: a parsed configuration and the
// calculators it can run.
type Application struct {
	// Config holds the parsed configuration, with any cached calibration
	// profile applied.
	Config config.AppConfig
	// Factory provides the calculators.
	Factory machin.CalculatorFactory
	// Out receives the result and nothing else.
	Out io.Writer
	// ErrWriter receives diagnostics, progress, details and logs.
	ErrWriter io.Writer
}

// New parses args (including the program name) and builds an Application
// on the global calculator factory.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - out: The writer for the result and -help output.
//   - errWriter: The writer for diagnostics.
//
// Returns:
//   - *Application: A new application instance.
//   - error: flag.ErrHelp, a ConfigError or a ValidationError.
func New(args []string, out, errWriter io.Writer) (*Application, error) {
	return NewWithFactory(args, machin.GlobalFactory(), out, errWriter)
}

// NewWithFactory is New with an explicit calculator factory.
func NewWithFactory(args []string, factory machin.CalculatorFactory, out, errWriter io.Writer) (*Application, error) {
	programName := "machin"
	var cmdArgs []string
	if len(args) > 0 {
		programName = filepath.Base(args[0])
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, out, errWriter, factory.List())
	if err != nil {
		return nil, err
	}

	// A calibration run measures from the defaults, so it never starts from
	// a previous profile.
	if !cfg.Calibrate {
		if withProfile, loaded := calibration.LoadCachedCalibration(cfg); loaded {
			cfg = withProfile
		}
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		Out:       out,
		ErrWriter: errWriter,
	}, nil
}

// Run executes the configured mode and returns the process exit code.
func (a *Application) Run(ctx context.Context) int {
	if err := logging.Configure(a.logLevel(), a.ErrWriter, ui.ColorDisabled(a.Config.NoColor, a.ErrWriter)); err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	ui.InitTheme(a.Config.NoColor, a.ErrWriter)

	switch {
	case a.Config.Completion != "":
		return a.runCompletion()
	case a.Config.ShowVersion:
		PrintVersion(a.Out)
		return apperrors.ExitSuccess
	case a.Config.ServerMode:
		return a.runServer(ctx)
	case a.Config.Calibrate:
		return a.runCalibration(ctx)
	default:
		return a.runCalculate(ctx)
	}
}

// logLevel raises the default level to info in server mode so the
// listen address and shutdown are reported.
func (a *Application) logLevel() string {
	if a.Config.ServerMode && a.Config.LogLevel == logging.DefaultLevel {
		return "info"
	}
	return a.Config.LogLevel
}

func (a *Application) runCompletion() int {
	if err := cli.GenerateCompletion(a.Out, a.Config.Completion, a.Factory.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) runServer(ctx context.Context) int {
	srv := server.NewServer(a.Factory, a.Config)
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitSuccess
}

func (a *Application) runCalibration(ctx context.Context) int {
	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()
	return calibration.RunCalibration(ctx, a.ErrWriter, a.Factory, calibration.CalibrationOptions{
		ProfilePath: a.Config.CalibrationProfile,
		SaveProfile: true,
		Timeout:     a.Config.Timeout,
	})
}

// runCalculate evaluates the formula with every selected calculator. Only
// the winning result is written to Out; a failed or inconsistent run
// writes nothing there.
func (a *Application) runCalculate(ctx context.Context) int {
	ctx, cancels := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancels.Cleanup()

	calculators := cli.GetCalculatorsToRun(a.Config, a.Factory)
	if len(calculators) == 0 {
		fmt.Fprintf(a.ErrWriter, "Configuration error: no calculator available for '%s'\n", a.Config.Algo)
		return apperrors.ExitErrorConfig
	}

	if a.Config.Details {
		cli.PrintExecutionConfig(a.Config, calculators, a.ErrWriter)
	}

	var progressOut io.Writer
	if a.Config.Progress {
		progressOut = a.ErrWriter
	}
	results := orchestration.ExecuteCalculations(ctx, calculators, a.Config, progressOut)

	best, code := orchestration.AnalyzeComparisonResults(results, a.ErrWriter)
	if best == nil || code != apperrors.ExitSuccess {
		return code
	}

	if err := a.writeResult(best); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	if a.Config.Details {
		cli.DisplayDetails(a.ErrWriter, cli.Summary{
			Algorithm: best.Name,
			Params:    a.Config.Params,
			Options:   a.Config.ToOptions(),
			Digits:    best.Digits,
			Duration:  best.Duration,
		})
	}

	if a.Config.OutputFile != "" {
		if err := cli.WriteResultToFile(a.Config.OutputFile, best.Digits, a.Config.Params, best.Name, best.Duration); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		fmt.Fprintf(a.ErrWriter, "%sResult saved to: %s%s%s\n",
			ui.ColorGreen(), ui.ColorCyan(), a.Config.OutputFile, ui.ColorReset())
	}
	return apperrors.ExitSuccess
}

func (a *Application) writeResult(res *orchestration.CalculationResult) error {
	if !a.Config.JSONOutput {
		return cli.DisplayResult(a.Out, res.Digits)
	}
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(newJSONResult(a.Config.Params, res))
}

func newJSONResult(p machin.Params, res *orchestration.CalculationResult) models.CalculationResponse {
	terms := make([]models.TermDTO, len(p.Terms))
	for i, t := range p.Terms {
		terms[i] = models.TermDTO{Multiplier: uint32(t.Multiplier), Argument: uint32(t.Argument)}
	}
	return models.CalculationResponse{
		Formula:   p.String(),
		Precision: p.Precision,
		Scale:     p.Scale,
		Terms:     terms,
		Algorithm: res.Name,
		Result:    res.Digits.String(),
		Digits:    res.Digits.Len(),
		Duration:  res.Duration.String(),
	}
}

// IsHelpError reports whether err means -h or -help was given, in which
// case the process should exit successfully.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
