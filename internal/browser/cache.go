package browser

// CacheEntry is the last-known-good result for one (index, view) slot.
// Loaded=false with non-nil Data means stale-but-displayable: the entry
// was invalidated but its old rows may still be rendered until the
// refetch lands.
type CacheEntry struct {
	Loaded    bool
	Data      ViewData
	FetchedAt uint64 // logical tick of the accepting Put
}

type slotKey struct {
	resource string
	view     ViewID
}

// ViewCache stores one CacheEntry per (index, view) pair. Entries are
// replaced whole on write, so a reader sees the state before or after a
// Put, never a partially applied one. The cache is owned by a single
// Session and is not safe for concurrent use.
type ViewCache struct {
	entries map[slotKey]CacheEntry
	tick    uint64
}

// NewViewCache returns an empty cache.
func NewViewCache() *ViewCache {
	return &ViewCache{entries: make(map[slotKey]CacheEntry)}
}

// Get returns the entry for (resource, view), or false if the slot has
// never been written.
func (c *ViewCache) Get(resource string, view ViewID) (CacheEntry, bool) {
	e, ok := c.entries[slotKey{resource, view}]
	return e, ok
}

// Put replaces the slot's entry with a loaded one. The previous value,
// loaded or stale, is discarded entirely.
func (c *ViewCache) Put(resource string, view ViewID, data ViewData) {
	c.tick++
	c.entries[slotKey{resource, view}] = CacheEntry{
		Loaded:    true,
		Data:      data,
		FetchedAt: c.tick,
	}
}

// Invalidate marks the slot stale without clearing its data, so the
// old result stays displayable until a refetch replaces it. A slot that
// was never written stays absent.
func (c *ViewCache) Invalidate(resource string, view ViewID) {
	key := slotKey{resource, view}
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.Loaded = false
	c.entries[key] = e
}

// DropResource removes every view slot for the given index. Called when
// the index itself is deleted.
func (c *ViewCache) DropResource(resource string) {
	for _, v := range Views {
		delete(c.entries, slotKey{resource, v})
	}
}

// Len reports the number of populated slots. Test helper more than API.
func (c *ViewCache) Len() int {
	return len(c.entries)
}
