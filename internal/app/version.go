// Package app wires configuration, calculators and output together and
// dispatches to the command, server, calibration and completion modes.
package app

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/machin/internal/limb"
	"github.com/agbru/machin/internal/machin"
)

// Build-time variables set via -ldflags:
//
//	go build -ldflags="-X github.com/agbru/machin/internal/app.Version=v1.2.3 -X github.com/agbru/machin/internal/app.Commit=abc123 -X github.com/agbru/machin/internal/app.BuildDate=2026-01-01T00:00:00Z" ./cmd/machin
var (
	// Version is the semantic version (e.g., "v1.0.0").
	Version = "dev"
	// Commit is the short Git commit hash.
	Commit = "unknown"
	// BuildDate is the ISO 8601 build timestamp.
	BuildDate = "unknown"
)

// HasVersionFlag reports whether args contain a version flag anywhere, so
// "machin -server -version" prints the version instead of starting a server.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-V" {
			return true
		}
	}
	return false
}

// PrintVersion writes the version, build and kernel information to out.
func PrintVersion(out io.Writer) {
	info := GetVersionInfo()
	fmt.Fprintf(out, "machin %s\n", info.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", info.OS, info.Arch)
	fmt.Fprintf(out, "  Limb:       %d bits, arguments up to %d\n", info.LimbBits, info.MaxArgument)
	fmt.Fprintf(out, "  Default:    %s\n", info.DefaultFormula)
}

// VersionData is the programmatic form of PrintVersion.
type VersionData struct {
	Version        string `json:"version"`
	Commit         string `json:"commit"`
	BuildDate      string `json:"build_date"`
	GoVersion      string `json:"go_version"`
	OS             string `json:"os"`
	Arch           string `json:"arch"`
	LimbBits       int    `json:"limb_bits"`
	MaxArgument    uint32 `json:"max_argument"`
	DefaultFormula string `json:"default_formula"`
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:        Version,
		Commit:         Commit,
		BuildDate:      BuildDate,
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		LimbBits:       limb.Bits,
		MaxArgument:    uint32(limb.ArgMax),
		DefaultFormula: machin.DefaultParams().String(),
	}
}
