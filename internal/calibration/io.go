package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/machin/internal/cli"
	"github.com/agbru/machin/internal/ui"
)

// printCalibrationResults formats one sweep as a table, marking the best
// candidate.
func printCalibrationResults(out io.Writer, label string, results []trialResult, value func(trialResult) int, best int) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(out, "\n--- %s ---\n", label)
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %s%-12s%s │ %sExecution Time%s\n", ui.ColorBold(), label, ui.ColorReset(), ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s\n", strings.Repeat("─", 13), strings.Repeat("─", 25))
	for _, res := range results {
		durationStr := fmt.Sprintf("%sN/A (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		if res.Err == nil {
			durationStr = cli.FormatExecutionDuration(res.Duration)
		}
		highlight := ""
		if value(res) == best && res.Err == nil {
			highlight = fmt.Sprintf(" %s(Optimal)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-12d%s │ %s%s%s%s\n", ui.ColorCyan(), value(res), ui.ColorReset(),
			ui.ColorYellow(), durationStr, ui.ColorReset(), highlight)
	}
	_ = tw.Flush()
}
