// Package cache is a small TTL-keyed store shared by the scheduled
// monitor loop and the on-demand bot command path. Entries are few and
// named, so age is the only eviction policy.
package cache

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is a cached payload plus the time it was stored.
type Entry struct {
	Payload   interface{}
	Timestamp time.Time
}

func (e Entry) Age() time.Duration {
	return time.Since(e.Timestamp)
}

func (e Entry) Expired(maxAge time.Duration) bool {
	return e.Age() > maxAge
}

// Stats describes the currently held entries. All fields are zero when
// the cache is empty.
type Stats struct {
	Entries    int
	OldestAge  time.Duration
	NewestAge  time.Duration
	AverageAge time.Duration
}

type Cache struct {
	ttl     time.Duration
	logger  *logrus.Logger
	mu      sync.Mutex
	entries map[string]Entry
}

func New(ttl time.Duration, logger *logrus.Logger) *Cache {
	return &Cache{
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]Entry),
	}
}

// Get returns the stored payload if its age is within maxAge. A maxAge
// of zero or less means the cache's default TTL. An expired entry is
// evicted on the way out.
func (c *Cache) Get(key string, maxAge time.Duration) (interface{}, bool) {
	if maxAge <= 0 {
		maxAge = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.logger.WithField("key", key).Debug("Cache miss")
		return nil, false
	}

	if entry.Expired(maxAge) {
		c.logger.WithFields(logrus.Fields{
			"key": key,
			"age": entry.Age().Round(time.Millisecond),
		}).Debug("Cache entry expired")
		delete(c.entries, key)
		return nil, false
	}

	c.logger.WithFields(logrus.Fields{
		"key": key,
		"age": entry.Age().Round(time.Millisecond),
	}).Debug("Cache hit")
	return entry.Payload, true
}

// Set stores the payload unconditionally, stamped with the current time.
func (c *Cache) Set(key string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{Payload: payload, Timestamp: time.Now()}
	c.logger.WithField("key", key).Debug("Cached payload")
}

func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// CleanupExpired sweeps every key and evicts entries older than maxAge
// (default TTL when maxAge is zero or less). Returns how many entries
// were removed.
func (c *Cache) CleanupExpired(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.Expired(maxAge) {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.WithField("count", removed).Info("Cleaned up expired cache entries")
	}
	return removed
}

// Clear drops everything and returns the number of entries removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	c.entries = make(map[string]Entry)
	return count
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return Stats{}
	}

	var oldest, newest, total time.Duration
	first := true
	for _, entry := range c.entries {
		age := entry.Age()
		total += age
		if first {
			oldest, newest = age, age
			first = false
			continue
		}
		if age > oldest {
			oldest = age
		}
		if age < newest {
			newest = age
		}
	}

	return Stats{
		Entries:    len(c.entries),
		OldestAge:  oldest,
		NewestAge:  newest,
		AverageAge: total / time.Duration(len(c.entries)),
	}
}

func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
