package calibration

import (
	"context"
	"time"

	"github.com/agbru/machin/internal/machin"
)

// maxDuration marks a candidate without a successful trial.
const maxDuration = time.Duration(1<<63 - 1)

// trialResult is the timing of one block geometry.
type trialResult struct {
	Width    int
	Height   int
	Duration time.Duration
	Err      error
}

// calibrationRunner encapsulates the trial run logic for calibration.
type calibrationRunner struct {
	ctx      context.Context
	calc     machin.Calculator
	params   machin.Params
	perTrial time.Duration
}

func newCalibrationRunner(ctx context.Context, calc machin.Calculator, params machin.Params, timeout time.Duration) *calibrationRunner {
	perTrial := max(timeout/6, 2*time.Second)
	return &calibrationRunner{ctx: ctx, calc: calc, params: params, perTrial: perTrial}
}

// runTrial times one evaluation of the calibration formula.
func (r *calibrationRunner) runTrial(width, height int) trialResult {
	ctx, cancel := context.WithTimeout(r.ctx, r.perTrial)
	defer cancel()
	start := time.Now()
	_, err := r.calc.Calculate(ctx, nil, 0, r.params, machin.Options{BlockWidth: width, BlockHeight: height})
	return trialResult{Width: width, Height: height, Duration: time.Since(start), Err: err}
}

// findBestWidth times every width at a fixed height.
func (r *calibrationRunner) findBestWidth(widths []int, height int) (best trialResult, all []trialResult) {
	best = trialResult{Width: machin.DefaultBlockWidth, Height: height, Duration: maxDuration}
	for _, w := range widths {
		res := r.runTrial(w, height)
		all = append(all, res)
		if res.Err == nil && res.Duration < best.Duration {
			best = res
		}
		if r.ctx.Err() != nil {
			break
		}
	}
	return best, all
}

// findBestHeight times every height at a fixed width.
func (r *calibrationRunner) findBestHeight(heights []int, width int) (best trialResult, all []trialResult) {
	best = trialResult{Width: width, Height: machin.DefaultBlockHeight, Duration: maxDuration}
	for _, h := range heights {
		res := r.runTrial(width, h)
		all = append(all, res)
		if res.Err == nil && res.Duration < best.Duration {
			best = res
		}
		if r.ctx.Err() != nil {
			break
		}
	}
	return best, all
}
