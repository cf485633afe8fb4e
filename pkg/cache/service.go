package cache

import "time"

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get retrieves a value from the cache
	// Returns value, true if found
	// Returns nil, false if not found
	Get(key string) (interface{}, bool)

	// Set adds a value to the cache with a duration
	Set(key string, value interface{}, duration time.Duration)

	// Delete removes a value from the cache
	Delete(key string)

	// Flush removes all items
	Flush()
}

// ProductKey is the cache key of a product read by id.
func ProductKey(id string) string {
	return "product:id:" + id
}

// Nop is a CacheService that stores nothing. Used when caching is disabled.
type Nop struct{}

func (Nop) Get(string) (interface{}, bool) { return nil, false }
func (Nop) Set(string, interface{}, time.Duration) {}
func (Nop) Delete(string) {}
func (Nop) Flush() {}
