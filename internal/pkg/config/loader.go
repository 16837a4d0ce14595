// Package config holds fail-open environment loaders and the validators
// shared by the worker and digest configuration.
//
// A loader never fails: an unset variable yields the default silently, and
// an unparsable or invalid one yields the default plus a warning. Callers
// that must fail instead treat any warning as an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading one variable.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func fallback[T any](envKey, raw string, reason interface{}, defaultValue T) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           defaultValue,
		Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, reason, defaultValue)},
		FallbackApplied: true,
	}
}

// loadParsed reads envKey, parses it and validates the result.
func loadParsed[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := parse(raw)
	if err != nil {
		return fallback(envKey, raw, err, defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvString returns the variable or defaultValue, without validation.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and checks it with validator.
//
//	result := LoadEnvWithFallback("CRON_SCHEDULE", "0 7 * * *", ValidateCronSchedule)
//	schedule := result.Value.(string)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "90s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvFloat loads a decimal number.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, func(s string) (float64, error) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number format")
		}
		return v, nil
	}, validator)
}

// LoadEnvBool accepts the spellings of strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, func(s string) (bool, error) {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return v, nil
	}, nil)
}
