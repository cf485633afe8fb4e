package config

import (
	"log"
	"os"
	"strconv"
)

func getInt32Env(key string, fallback int32) int32 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
		log.Printf("Invalid int32 for %s, using fallback", key)
	}
	return fallback
}

func getUint64Env(key string, fallback uint64) uint64 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseUint(value, 10, 64); err == nil {
			return i
		}
		log.Printf("Invalid uint64 for %s, using fallback", key)
	}
	return fallback
}

func getFloat64Env(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Invalid bool for %s, using fallback", key)
	}
	return fallback
}
