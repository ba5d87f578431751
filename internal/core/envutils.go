package core

import "os"

// GetEnv retrieves an environment variable, checking both the standard name
// and a CADENZA-prefixed version. Returns the first non-empty value found.
// This allows environment variables to be set with or without the CADENZA_ prefix.
func GetEnv(key string) string {
	// Check standard environment variable first
	if val := os.Getenv(key); val != "" {
		return val
	}
	// Check CADENZA-prefixed version
	return os.Getenv("CADENZA_" + key)
}
