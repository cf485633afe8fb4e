package utils

import (
	"net/url"
	"strconv"
)

// ParseInt parses a string to int with a fallback default value
func ParseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// ParsePositiveInt is ParseInt that also falls back for zero and negatives
func ParsePositiveInt(s string, defaultVal int) int {
	if val := ParseInt(s, defaultVal); val > 0 {
		return val
	}
	return defaultVal
}

// FirstValues flattens a query string, keeping the first value of each key
func FirstValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
