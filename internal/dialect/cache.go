package dialect

import "sync"

// PartitionCache records partitions already known to exist. A present key is
// a guarantee; an absent key only means "unknown". Reads never lock.
type PartitionCache struct {
	verified sync.Map // partition key -> true
}

// NewPartitionCache returns an empty cache.
func NewPartitionCache() *PartitionCache {
	return &PartitionCache{}
}

// IsVerified reports whether key was marked verified since the last Reset.
func (c *PartitionCache) IsVerified(key string) bool {
	v, ok := c.verified.Load(key)
	return ok && v.(bool)
}

// MarkVerified records key as existing. It returns true if this call
// inserted the key and false if another caller got there first.
func (c *PartitionCache) MarkVerified(key string) bool {
	_, loaded := c.verified.LoadOrStore(key, true)
	return !loaded
}

// Reset returns every key to unknown.
func (c *PartitionCache) Reset() {
	c.verified.Clear()
}

// Len returns the number of verified keys.
func (c *PartitionCache) Len() int {
	n := 0
	c.verified.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
