package config

import (
	"flag"
	"fmt"

	"github.com/agbru/machin/internal/ui"
)

// setCustomUsage installs a colored usage function on fs.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		out := fs.Output()
		t := ui.GetCurrentTheme()
		if ui.ColorDisabled(false, out) {
			t = ui.NoColorTheme
		}

		fmt.Fprintf(out, "\n%sMachin Formula Calculator%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Evaluates d * (m1*arccot(x1) + m2*arccot(x2) + ...) to a given number of 32-bit limbs.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags] [precision scale multiplier1 argument1 [multiplier2 argument2 ...]]\n\n",
			t.Warning, t.Reset, fs.Name())
		fmt.Fprintf(out, "With no arguments the default formula is used:\n  %s\n\n", machinDefault)
		fmt.Fprintf(out, "%sFlags:%s\n", t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			flagSig := "-" + f.Name
			if len(name) > 0 {
				flagSig += " " + name
			}
			fmt.Fprintf(out, "  %s%-28s%s %s", t.Primary, flagSig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintln(out)
	}
}

const machinDefault = "17 4 5 7 4 68 2 117   (pi = 4 * (5*arccot(7) + 4*arccot(68) + 2*arccot(117)))"
