// Command machin evaluates scale * sum(multiplier * arccot(argument)) to a
// fixed number of 32-bit limbs and prints the decimal digits. By default it
// prints pi from the formula 4 * (5*arccot(7) + 4*arccot(68) + 2*arccot(117)).
//
// Usage:
//
//	machin [flags] [precision scale multiplier argument [multiplier argument ...]]
//
// Run "machin -h" for the list of flags.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agbru/machin/internal/app"
	apperrors "github.com/agbru/machin/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stdout, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		// ParseConfig has already printed the error with the usage text.
		if apperrors.ExitCode(err) == apperrors.ExitErrorGeneric {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(apperrors.ExitCode(err))
	}

	os.Exit(application.Run(context.Background()))
}
