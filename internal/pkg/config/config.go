package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
type TimeConfig interface {
	// GetSecond retrieves the value associated with key as a number of seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value associated with key as a number of minutes.
	GetMinute(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
//
// Values are read on every call, so a reloaded file or a changed environment
// variable is picked up without restarting the process.
type Config interface {
	io.Closer
	TimeConfig

	// IsSet reports whether key has a value in any source (file, env, default).
	IsSet(key string) bool

	// GetBool retrieves the configuration value associated with the given key as a bool.
	GetBool(key string) bool

	// GetString retrieves the configuration value associated with the given key as a string.
	GetString(key string) string

	// GetInt retrieves the configuration value associated with the given key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the configuration value associated with the given key as an int32.
	GetInt32(key string) int32

	// GetFloat64 retrieves the configuration value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetArray retrieves the configuration value associated with the given key as a slice of strings.
	// Configuration value is stored with format <element1>,<element2>,...
	// Elements are trimmed and empty elements are dropped.
	GetArray(key string) []string
}
