package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvString reads a non-empty string environment variable.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable. The third return value is
// non-nil when the variable is set but not a valid integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s=%q is not an integer", key, value)
	}
	return parsed, true, nil
}
