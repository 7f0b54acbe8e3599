package config

import (
	"os"
	"strconv"
)

// returns the variable's value, or fallback when it is unset or empty
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}

// integer variant of GetEnv, an unparsable value falls back as well
func GetEnvInt(key string, fallback int) int {
	value := GetEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
