// Package cli renders everything the command line shows besides the result
// line: block progress, statistics, the comparison table and completion
// scripts. All of it goes to stderr; only the digits are written to stdout.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/ui"
)

const (
	// ProgressRefreshRate is the refresh period of the spinner line.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// FormatExecutionDuration shows microseconds below a millisecond,
// milliseconds below a second and the default form otherwise.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// Spinner abstracts the terminal spinner so DisplayProgress can be tested.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressState holds the latest progress of each concurrent calculator.
type ProgressState struct {
	progresses []float64
}

// NewProgressState tracks numCalculators calculators.
func NewProgressState(numCalculators int) *ProgressState {
	return &ProgressState{progresses: make([]float64, numCalculators)}
}

// Update records value for calculator index. Out-of-range indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage returns the mean progress of all calculators.
func (ps *ProgressState) CalculateAverage() float64 {
	if len(ps.progresses) == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(len(ps.progresses))
}

// progressBar draws progress (clamped to [0, 1]) over length cells.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	return strings.Repeat("█", count) + strings.Repeat("░", length-count)
}

func progressLabel(numCalculators int) string {
	if numCalculators > 1 {
		return "Avg blocks"
	}
	return "Blocks"
}

// DisplayProgress shows a spinner with the average block progress and an
// ETA until progressChan is closed. It is meant to run in its own goroutine
// and calls wg.Done when it returns.
//
// Parameters:
//   - wg: Signaled when the display routine is complete.
//   - progressChan: The channel receiving progress updates.
//   - numCalculators: The number of calculators contributing to the progress.
//   - out: Where the spinner is drawn, normally stderr.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan machin.ProgressUpdate, numCalculators int, out io.Writer) {
	defer wg.Done()
	if numCalculators <= 0 {
		for range progressChan {
		}
		return
	}

	state := NewProgressWithETA(numCalculators)
	label := progressLabel(numCalculators)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	stopped := false
	defer func() {
		if !stopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				stopped = true
				fmt.Fprintf(out, "%s: %s\n", label, FormatProgressBarWithETA(state.CalculateAverage(), 0, ProgressBarWidth))
				return
			}
			state.UpdateWithETA(update.CalculatorIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(fmt.Sprintf(" %s: %s", label,
				FormatProgressBarWithETA(state.CalculateAverage(), state.GetETA(), ProgressBarWidth)))
		}
	}
}

// Summary is what DisplayDetails reports about one finished calculation.
type Summary struct {
	Algorithm string
	Params    machin.Params
	Options   machin.Options
	Digits    machin.Digits
	Duration  time.Duration
}

// DisplayDetails writes the -details report.
func DisplayDetails(out io.Writer, s Summary) {
	width := s.Options.BlockWidth
	if width == 0 {
		width = machin.DefaultBlockWidth
	}
	height := s.Options.BlockHeight
	if height == 0 {
		height = machin.DefaultBlockHeight
	}
	frac := s.Params.FractionLimbs(width)

	fmt.Fprintf(out, "\n%s--- Calculation details ---%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(out, "Formula            : %s%s%s\n", ui.ColorCyan(), s.Params, ui.ColorReset())
	fmt.Fprintf(out, "Algorithm          : %s%s%s\n", ui.ColorBlue(), s.Algorithm, ui.ColorReset())
	fmt.Fprintf(out, "Block geometry     : %d limbs x %d steps\n", width, height)
	fmt.Fprintf(out, "Accumulator limbs  : %d (%d integer, %d fractional)\n", width+frac, width, frac)
	fmt.Fprintf(out, "Blocks             : %d\n", (width+frac)/width)
	fmt.Fprintf(out, "Digits             : %s%d%s (last %d unreliable)\n",
		ui.ColorCyan(), s.Digits.Len(), ui.ColorReset(), machin.UnreliableDigits)
	fmt.Fprintf(out, "Calculation time   : %s%s%s\n", ui.ColorGreen(), FormatExecutionDuration(s.Duration), ui.ColorReset())
}
