// Package config provides lenient environment readers for small tools that do
// not need the fallback bookkeeping of internal/pkg/config. Unparseable values
// are logged and replaced by the default.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvString returns the variable or defaultValue when unset or empty.
//
//	apiURL := GetEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1")
func GetEnvString(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the variable parsed as a base-10 integer.
func GetEnvInt(key string, defaultValue int) int {
	return parse(key, defaultValue, strconv.Atoi)
}

// GetEnvFloat returns the variable parsed as a float64.
func GetEnvFloat(key string, defaultValue float64) float64 {
	return parse(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetEnvBool returns the variable parsed with strconv.ParseBool
// ("1", "t", "true", "0", "f", "false" in any of their usual cases).
func GetEnvBool(key string, defaultValue bool) bool {
	return parse(key, defaultValue, strconv.ParseBool)
}

// GetEnvDuration returns the variable parsed with time.ParseDuration ("30s", "1m").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return parse(key, defaultValue, time.ParseDuration)
}

// GetEnvStringList splits a comma-separated variable, trimming whitespace and
// dropping empty entries. An unset variable, or one with no entries, yields
// defaultValue.
func GetEnvStringList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func parse[T any](key string, defaultValue T, fn func(string) (T, error)) T {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := fn(strings.TrimSpace(valueStr))
	if err != nil {
		slog.Warn("invalid value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", valueStr),
			slog.Any("default", defaultValue),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return value
}
