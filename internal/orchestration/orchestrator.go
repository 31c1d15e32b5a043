// Package orchestration runs one or more calculators on the same formula
// concurrently and reconciles their results.
package orchestration

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/machin/internal/cli"
	"github.com/agbru/machin/internal/config"
	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/ui"
)

// CalculationResult is the outcome of one calculator.
type CalculationResult struct {
	// Name is the display name of the calculator.
	Name string
	// Digits is the rendered result. It is empty if Err is set.
	Digits machin.Digits
	// Duration is the wall time of the calculation.
	Duration time.Duration
	// Err is the calculator's error, if any.
	Err error
}

// ProgressBufferMultiplier sizes the progress channel per calculator so a
// slow display does not stall the kernels.
const ProgressBufferMultiplier = 5

// ExecuteCalculations runs every calculator on cfg.Params in its own
// goroutine and waits for all of them. Errors are collected per result; one
// failing calculator does not cancel the others.
//
// Parameters:
//   - ctx: Cancels every calculation, checked between blocks.
//   - calculators: The calculators to run.
//   - cfg: Supplies the formula and block geometry.
//   - progressOut: Where the spinner is drawn, or nil for no progress display.
//
// Returns:
//   - []CalculationResult: One result per calculator, in input order.
func ExecuteCalculations(ctx context.Context, calculators []machin.Calculator, cfg config.AppConfig, progressOut io.Writer) []CalculationResult {
	var g errgroup.Group
	results := make([]CalculationResult, len(calculators))
	progressChan := make(chan machin.ProgressUpdate, len(calculators)*ProgressBufferMultiplier)

	displayed := len(calculators)
	if progressOut == nil {
		displayed = 0
		progressOut = io.Discard
	}
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, displayed, progressOut)

	opts := cfg.ToOptions()
	for i, calc := range calculators {
		g.Go(func() error {
			start := time.Now()
			digits, err := calc.Calculate(ctx, progressChan, i, cfg.Params, opts)
			if err != nil {
				err = apperrors.CalculationError{Algorithm: calc.Name(), Cause: err}
			}
			results[i] = CalculationResult{Name: calc.Name(), Digits: digits, Duration: time.Since(start), Err: err}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()
	return results
}

// ResultsAgree reports whether a and b are equal once the last
// machin.UnreliableDigits fractional digits are ignored.
func ResultsAgree(a, b machin.Digits) bool {
	if a.Integer != b.Integer || len(a.Fraction) != len(b.Fraction) {
		return false
	}
	n := max(len(a.Fraction)-machin.UnreliableDigits, 0)
	return a.Fraction[:n] == b.Fraction[:n]
}

// AnalyzeComparisonResults sorts the results (successes first, fastest
// first), prints a comparison table to out when more than one calculator ran
// and checks that all successful results agree.
//
// Returns:
//   - *CalculationResult: The fastest successful result, or nil.
//   - int: ExitSuccess, ExitErrorMismatch or the exit code of the first error.
func AnalyzeComparisonResults(results []CalculationResult, out io.Writer) (*CalculationResult, int) {
	slices.SortStableFunc(results, func(a, b CalculationResult) int {
		if (a.Err == nil) != (b.Err == nil) {
			if a.Err == nil {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Duration, b.Duration)
	})

	var best *CalculationResult
	var firstError error
	for i := range results {
		if results[i].Err != nil {
			if firstError == nil {
				firstError = results[i].Err
			}
			continue
		}
		if best == nil {
			best = &results[i]
		}
	}

	if len(results) > 1 {
		printComparisonTable(results, out)
	}

	if best == nil {
		if len(results) > 1 {
			fmt.Fprintf(out, "\nGlobal Status: Failure. No calculator could complete the evaluation.\n")
		}
		return nil, apperrors.HandleCalculationError(firstError, 0, out, ui.Colors{})
	}

	for _, res := range results {
		if res.Err == nil && !ResultsAgree(res.Digits, best.Digits) {
			fmt.Fprintf(out, "\n%sGlobal Status: CRITICAL ERROR! %s and %s disagree beyond the last %d digits.%s\n",
				ui.ColorRed(), best.Name, res.Name, machin.UnreliableDigits, ui.ColorReset())
			return nil, apperrors.ExitErrorMismatch
		}
	}
	if len(results) > 1 {
		fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.\n")
	}
	return best, apperrors.ExitSuccess
}

func printComparisonTable(results []CalculationResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sCalculator%s\t%sDuration%s\t%sDigits%s\t%sStatus%s\n",
		ui.ColorBold(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(),
		ui.ColorBold(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset())
	for _, res := range results {
		status := fmt.Sprintf("%sSuccess%s", ui.ColorGreen(), ui.ColorReset())
		digits := fmt.Sprintf("%d", res.Digits.Len())
		if res.Err != nil {
			status = fmt.Sprintf("%sFailure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
			digits = "-"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\t%s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(),
			ui.ColorYellow(), cli.FormatExecutionDuration(res.Duration), ui.ColorReset(),
			digits, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}
