package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// getEnvString returns $MACHIN_<key>, or defaultVal if it is unset or empty.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns $MACHIN_<key> parsed as an int, or defaultVal if it is
// unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns $MACHIN_<key> as a bool. "true", "1" and "yes" are true,
// "false", "0" and "no" are false; anything else keeps defaultVal.
func getEnvBool(key string, defaultVal bool) bool {
	switch strings.ToLower(os.Getenv(EnvPrefix + key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// getEnvDuration returns $MACHIN_<key> parsed with time.ParseDuration, or
// defaultVal if it is unset or invalid.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func hasEnv(key string) bool {
	return os.Getenv(EnvPrefix+key) != ""
}

// isFlagSet reports whether the named flag was given on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides fills every flag that was not given on the command line
// from its environment variable:
//
//	MACHIN_ALGO, MACHIN_TIMEOUT, MACHIN_BLOCK_WIDTH, MACHIN_BLOCK_HEIGHT,
//	MACHIN_JSON, MACHIN_OUTPUT, MACHIN_PROGRESS, MACHIN_DETAILS,
//	MACHIN_NO_COLOR, MACHIN_LOG_LEVEL, MACHIN_SERVER, MACHIN_PORT,
//	MACHIN_CALIBRATE, MACHIN_CALIBRATION_PROFILE
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "block-width") {
		config.BlockWidth = getEnvInt("BLOCK_WIDTH", config.BlockWidth)
	}
	if !isFlagSet(fs, "block-height") {
		config.BlockHeight = getEnvInt("BLOCK_HEIGHT", config.BlockHeight)
	}
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "algo") {
		config.Algo = getEnvString("ALGO", config.Algo)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "output") && !isFlagSet(fs, "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
	if !isFlagSet(fs, "calibration-profile") {
		config.CalibrationProfile = getEnvString("CALIBRATION_PROFILE", config.CalibrationProfile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "progress") {
		config.Progress = getEnvBool("PROGRESS", config.Progress)
	}
	if !isFlagSet(fs, "d") && !isFlagSet(fs, "details") {
		config.Details = getEnvBool("DETAILS", config.Details)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "calibrate") {
		config.Calibrate = getEnvBool("CALIBRATE", config.Calibrate)
	}
}
