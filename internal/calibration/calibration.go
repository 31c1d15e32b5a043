package calibration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agbru/machin/internal/config"
	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/ui"
)

// CalibrationOptions configures the calibration process.
type CalibrationOptions struct {
	// ProfilePath is the path to save the profile. If empty, the default
	// path is used.
	ProfilePath string
	// SaveProfile indicates whether to save the calibration results.
	SaveProfile bool
	// Precision is the formula precision in limbs (CalibrationPrecision if 0).
	Precision int
	// Widths and Heights override the generated candidates.
	Widths  []int
	Heights []int
	// Timeout bounds the whole run; each trial gets a sixth of it, at least
	// two seconds.
	Timeout time.Duration
}

// RunCalibration times the block-wise kernel over candidate block widths
// (at the default height) and then over candidate heights (at the best
// width), prints the results and saves the fastest geometry as a profile.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - out: The io.Writer to which progress and results will be written.
//   - factory: The calculator factory; it must provide the default algorithm.
//   - opts: The calibration options.
//
// Returns:
//   - int: The exit code (0 for success, non-zero for errors).
func RunCalibration(ctx context.Context, out io.Writer, factory machin.CalculatorFactory, opts CalibrationOptions) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Optimal Block Geometry ---\n")

	calc, err := factory.Get(config.DefaultAlgo)
	if err != nil {
		fmt.Fprintf(out, "%sCritical error: the '%s' algorithm is required for calibration: %v%s\n",
			ui.ColorRed(), config.DefaultAlgo, err, ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	params := CalibrationParams(opts.Precision)
	widths := opts.Widths
	if len(widths) == 0 {
		widths = GenerateBlockWidths(params.Precision)
	}
	heights := opts.Heights
	if len(heights) == 0 {
		heights = GenerateBlockHeights()
	}
	widths, heights = sortedUnique(widths), sortedUnique(heights)

	fmt.Fprintf(out, "%sTiming %s at %d limbs: %d widths, %d heights%s\n",
		ui.ColorCyan(), params.String(), params.Precision, len(widths), len(heights), ui.ColorReset())

	start := time.Now()
	runner := newCalibrationRunner(ctx, calc, params, opts.Timeout)

	bestWidth, widthResults := runner.findBestWidth(widths, machin.DefaultBlockHeight)
	if code, stop := checkTrials(ctx, out, widthResults); stop {
		return code
	}
	bestHeight, heightResults := runner.findBestHeight(heights, bestWidth.Width)
	if code, stop := checkTrials(ctx, out, heightResults); stop {
		return code
	}

	best := bestHeight
	if best.Duration == maxDuration {
		best = bestWidth
	}
	if best.Duration == maxDuration {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", ui.ColorRed(), ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, "Block width", widthResults, func(r trialResult) int { return r.Width }, bestWidth.Width)
	printCalibrationResults(out, "Block height", heightResults, func(r trialResult) int { return r.Height }, bestHeight.Height)

	fmt.Fprintf(out, "\n%sRecommendation for this machine: %s-block-width %d -block-height %d%s\n",
		ui.ColorGreen(), ui.ColorYellow(), best.Width, best.Height, ui.ColorReset())

	if opts.SaveProfile {
		profile := NewProfile()
		profile.BlockWidth = best.Width
		profile.BlockHeight = best.Height
		profile.CalibrationPrecision = params.Precision
		profile.CalibrationTime = time.Since(start).String()
		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n", ui.ColorGreen(), resolvePath(opts.ProfilePath), ui.ColorReset())
		}
	}
	return apperrors.ExitSuccess
}

// checkTrials stops the run when the context ended during the trials.
func checkTrials(ctx context.Context, out io.Writer, results []trialResult) (int, bool) {
	if ctx.Err() == nil {
		return apperrors.ExitSuccess, false
	}
	fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
	var last time.Duration
	if len(results) > 0 {
		last = results[len(results)-1].Duration
	}
	return apperrors.HandleCalculationError(ctx.Err(), last, out, ui.Colors{}), true
}

// LoadCachedCalibration applies the block geometry of a valid cached
// profile to cfg, unless cfg.BlockGeometrySet says the user chose one.
//
// Returns:
//   - config.AppConfig: The updated configuration.
//   - bool: true if a profile was applied.
func LoadCachedCalibration(cfg config.AppConfig) (config.AppConfig, bool) {
	if cfg.BlockGeometrySet {
		return cfg, false
	}
	profile, loaded := LoadOrCreateProfile(cfg.CalibrationProfile)
	if !loaded {
		return cfg, false
	}
	cfg.BlockWidth, cfg.BlockHeight = ValidateGeometry(profile.BlockWidth, profile.BlockHeight)
	return cfg, true
}
