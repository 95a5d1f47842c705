// Package config holds the fail-open environment loaders shared by every
// binary. A value that is missing keeps its default silently; a value that is
// present but unparseable or invalid also keeps its default, and the result
// carries a warning describing what was rejected.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigLoadResult is the outcome of loading one setting.
type ConfigLoadResult struct {
	Value           any
	Warnings        []string
	FallbackApplied bool
}

// load reads envKey, parses it and validates it. Every failure falls back to def.
func load[T any](envKey string, def T, parse func(string) (T, error), validate func(T) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return ConfigLoadResult{
			Value: def,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, def)},
			FallbackApplied: true,
		}
	}
	return ConfigLoadResult{Value: v}
}

// LoadEnvString returns the variable or def when unset. No validation.
func LoadEnvString(envKey, def string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

// LoadEnvWithFallback loads a validated string.
func LoadEnvWithFallback(envKey, def string, validator func(string) error) ConfigLoadResult {
	return load(envKey, def, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a time.ParseDuration value ("30s", "1h30m").
func LoadEnvDuration(envKey string, def time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return load(envKey, def, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer. Surrounding whitespace and decimals are rejected.
func LoadEnvInt(envKey string, def int, validator func(int) error) ConfigLoadResult {
	return load(envKey, def, strconv.Atoi, validator)
}

// LoadEnvFloat loads a floating point value.
func LoadEnvFloat(envKey string, def float64, validator func(float64) error) ConfigLoadResult {
	return load(envKey, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }, validator)
}

// LoadEnvBool loads a strconv.ParseBool value ("1", "true", "F", ...).
func LoadEnvBool(envKey string, def bool) ConfigLoadResult {
	return load(envKey, def, strconv.ParseBool, nil)
}

// LoadEnvList loads a comma-separated list, trimming entries and dropping empty ones.
// A variable holding only separators keeps def.
func LoadEnvList(envKey string, def []string) []string {
	raw := os.Getenv(envKey)
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
