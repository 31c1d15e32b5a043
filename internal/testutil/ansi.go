// Package testutil holds helpers shared by the tests of several packages:
// stripping terminal colors from captured output and checking digit strings
// against a known expansion of pi.
package testutil

import "regexp"

// csiSequence matches the SGR and cursor sequences written by the themes
// and the spinner: ESC '[' parameters and a final letter.
var csiSequence = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// StripAnsiCodes returns s without terminal escape sequences, so assertions
// on command output do not depend on the active theme.
func StripAnsiCodes(s string) string {
	return csiSequence.ReplaceAllLiteralString(s, "")
}
