package environment

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/datatrails/go-datatrails-kvstore/logger"
)

const (
	LogLevelVar     = "LOGLEVEL"
	defaultLogLevel = logger.InfoLevel
)

// GetLogLevel returns the log level, INFO if unset. This is called before
// any logger is available. i.e. don't use a logger here.
func GetLogLevel() string {
	value, ok := os.LookupEnv(LogLevelVar)
	if !ok || value == "" {
		return defaultLogLevel
	}
	return strings.ToUpper(value)
}

// GetWithDefault returns value of environment variable.
// If the environment variable does not exist, then the default value is
// returned.
func GetWithDefault(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		value = fallback
	}
	return value
}

// GetInt returns value of environment variable that is expected to be an
// int. If the environment variable does not exist the fallback is returned.
// A value that cannot be parsed is an error.
func GetInt(key string, fallback int) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(val)
	if err != nil {
		return fallback, fmt.Errorf("environment variable '%s' is not an integer: %w", key, err)
	}
	return value, nil
}

// GetTruthy returns true if key is set to a value that is truthy. Returns
// false otherwise.
func GetTruthy(key string) bool {
	b, _ := GetBool(key, false)
	return b
}

// GetBool returns the boolean value of key, or fallback if it is unset. A
// value that strconv.ParseBool does not understand is an error.
func GetBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	// t,true,True,1 are all examples of 'truthy' values understood by ParseBool
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, fmt.Errorf("environment variable '%s' is not a valid boolean: %w", key, err)
	}
	return b, nil
}
