// Package config turns the command line and the environment into an
// AppConfig. Flags come first, followed by the positional formula:
//
//	machin [flags] precision scale multiplier1 argument1 [multiplier2 argument2 ...]
//
// Values are resolved as CLI flag > MACHIN_* environment variable > default.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	apperrors "github.com/agbru/machin/internal/errors"
	"github.com/agbru/machin/internal/logging"
	"github.com/agbru/machin/internal/machin"
)

// EnvPrefix is the prefix of every environment variable read by machin.
const EnvPrefix = "MACHIN_"

// Default configuration values.
const (
	// DefaultTimeout is the default limit for one calculation.
	DefaultTimeout = 5 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultAlgo is the block-wise kernel.
	DefaultAlgo = "blockwise"
	// AllAlgos runs every registered calculator and compares the results.
	AllAlgos = "all"
)

// AppConfig holds everything parsed from the command line and environment.
type AppConfig struct {
	// Params is the formula and precision, from the positional arguments.
	Params machin.Params
	// BlockWidth is the number of output limbs per block.
	BlockWidth int
	// BlockHeight is the number of series steps per remainder generation.
	BlockHeight int
	// BlockGeometrySet records that -block-width or -block-height was given
	// explicitly (flag or environment), so a calibration profile must not
	// override it.
	BlockGeometrySet bool
	// Algo is a registered calculator name or "all".
	Algo string
	// Timeout is the maximum duration of the calculation.
	Timeout time.Duration
	// JSONOutput prints a JSON document instead of the bare digits.
	JSONOutput bool
	// OutputFile, if set, also saves the result to this path.
	OutputFile string
	// Progress shows a spinner with the block progress on stderr.
	Progress bool
	// Details prints limb, block and timing statistics on stderr.
	Details bool
	// NoColor disables colors on stderr. NO_COLOR is honored too.
	NoColor bool
	// LogLevel is a zerolog level name.
	LogLevel string
	// ServerMode starts the HTTP server instead of computing once.
	ServerMode bool
	// Port is the listen port in server mode.
	Port string
	// Calibrate measures candidate block geometries and saves a profile.
	Calibrate bool
	// CalibrationProfile overrides ~/.machin_calibration.json.
	CalibrationProfile string
	// Completion names a shell to print a completion script for.
	Completion string
	// ShowVersion prints version information and exits.
	ShowVersion bool
}

// ToOptions returns the block geometry as machin.Options.
func (c AppConfig) ToOptions() machin.Options {
	return machin.Options{BlockWidth: c.BlockWidth, BlockHeight: c.BlockHeight}
}

// Validate checks the flag values. The formula itself is checked by
// ParsePositional.
//
// Parameters:
//   - availableAlgos: The registered calculator names.
//
// Returns:
//   - error: A ConfigError or ValidationError, or nil.
func (c AppConfig) Validate(availableAlgos []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if err := c.ToOptions().Validate(); err != nil {
		return err
	}
	if c.Algo != AllAlgos && !slices.Contains(availableAlgos, c.Algo) {
		return apperrors.NewConfigError("unrecognized algorithm: '%s'. Valid algorithms are: '%s' or [%s]",
			c.Algo, AllAlgos, strings.Join(availableAlgos, ", "))
	}
	return nil
}

// ParseConfig parses the flags and positional arguments.
//
// Usage text goes to stdout when -h or -help is given and to stderr on any
// error, so a failing run never writes to stdout.
//
// Parameters:
//   - programName: The name shown in the usage text.
//   - args: The arguments without the program name.
//   - stdout: The writer for -help output.
//   - stderr: The writer for errors and usage on errors.
//   - availableAlgos: The registered calculator names.
//
// Returns:
//   - AppConfig: The parsed configuration.
//   - error: flag.ErrHelp, a ConfigError or a ValidationError.
func ParseConfig(programName string, args []string, stdout, stderr io.Writer, availableAlgos []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	var flagOut bytes.Buffer
	fs.SetOutput(&flagOut)

	algoHelp := fmt.Sprintf("Calculator to use: '%s' or one of [%s].", AllAlgos, strings.Join(availableAlgos, ", "))

	config := AppConfig{}
	fs.StringVar(&config.Algo, "algo", DefaultAlgo, algoHelp)
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the calculation.")
	fs.IntVar(&config.BlockWidth, "block-width", machin.DefaultBlockWidth, "Output limbs per block.")
	fs.IntVar(&config.BlockHeight, "block-height", machin.DefaultBlockHeight, "Series steps per remainder generation.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output the result as JSON.")
	fs.StringVar(&config.OutputFile, "output", "", "Also save the result to this file.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.Progress, "progress", false, "Show block progress on stderr.")
	fs.BoolVar(&config.Details, "d", false, "Print calculation statistics on stderr.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", logging.DefaultLevel, "Log level: debug, info, warn, error or disabled.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Measure block geometries and save the fastest one.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to the calibration profile (default: ~/.machin_calibration.json).")
	fs.StringVar(&config.Completion, "completion", "", "Print a shell completion script (bash, zsh, fish).")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print version information and exit.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			_, _ = io.Copy(stdout, &flagOut)
			return AppConfig{}, err
		}
		_, _ = io.Copy(stderr, &flagOut)
		return AppConfig{}, apperrors.NewConfigError("%v", err)
	}

	applyEnvOverrides(&config, fs)
	config.BlockGeometrySet = isFlagSet(fs, "block-width") || isFlagSet(fs, "block-height") ||
		hasEnv("BLOCK_WIDTH") || hasEnv("BLOCK_HEIGHT")
	config.Algo = strings.ToLower(config.Algo)

	// Modes that do not compute a formula ignore the positional arguments.
	needsFormula := !config.ServerMode && !config.Calibrate && config.Completion == "" && !config.ShowVersion

	if err := config.Validate(availableAlgos); err != nil {
		return AppConfig{}, usageError(fs, stderr, err)
	}
	if needsFormula {
		params, err := ParsePositional(fs.Args())
		if err != nil {
			return AppConfig{}, usageError(fs, stderr, err)
		}
		config.Params = params
	}
	return config, nil
}

// usageError prints err followed by the usage text to stderr.
func usageError(fs *flag.FlagSet, stderr io.Writer, err error) error {
	fs.SetOutput(stderr)
	fmt.Fprintln(stderr, "Configuration error:", err)
	fs.Usage()
	return err
}
