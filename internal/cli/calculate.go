package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/machin/internal/config"
	"github.com/agbru/machin/internal/machin"
	"github.com/agbru/machin/internal/ui"
)

// GetCalculatorsToRun resolves -algo to calculators. "all" yields every
// registered calculator in sorted name order.
func GetCalculatorsToRun(cfg config.AppConfig, factory machin.CalculatorFactory) []machin.Calculator {
	if cfg.Algo == config.AllAlgos {
		keys := factory.List()
		calculators := make([]machin.Calculator, 0, len(keys))
		for _, k := range keys {
			if calc, err := factory.Get(k); err == nil {
				calculators = append(calculators, calc)
			}
		}
		return calculators
	}
	if calc, err := factory.Get(cfg.Algo); err == nil {
		return []machin.Calculator{calc}
	}
	return nil
}

// PrintExecutionConfig writes the run header shown with -details.
func PrintExecutionConfig(cfg config.AppConfig, calculators []machin.Calculator, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Evaluating %s%s%s at %s%d%s limbs with a timeout of %s%s%s.\n",
		ui.ColorCyan(), cfg.Params, ui.ColorReset(),
		ui.ColorCyan(), cfg.Params.Precision, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
	if len(calculators) > 1 {
		fmt.Fprintf(out, "Execution mode: cross-check of %d calculators.\n", len(calculators))
	} else if len(calculators) == 1 {
		fmt.Fprintf(out, "Execution mode: single calculation with %s%s%s.\n",
			ui.ColorGreen(), calculators[0].Name(), ui.ColorReset())
	}
}
