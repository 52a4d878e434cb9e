package browser

import "testing"

func TestViewCache_GetAbsent(t *testing.T) {
	c := NewViewCache()

	if _, ok := c.Get("logs", ViewDocuments); ok {
		t.Error("Get on an empty cache should report absent")
	}
}

func TestViewCache_PutThenGet(t *testing.T) {
	c := NewViewCache()

	c.Put("logs", ViewDocuments, DocsData{TotalHits: 3})

	e, ok := c.Get("logs", ViewDocuments)
	if !ok {
		t.Fatal("entry should exist after Put")
	}
	if !e.Loaded {
		t.Error("entry should be loaded after Put")
	}
	if d := e.Data.(DocsData); d.TotalHits != 3 {
		t.Errorf("TotalHits = %d, want 3", d.TotalHits)
	}
}

func TestViewCache_PutReplacesWhole(t *testing.T) {
	// Given: a populated documents slot
	c := NewViewCache()
	c.Put("logs", ViewDocuments, DocsData{Rows: []Row{{ID: "a"}}, TotalHits: 1})

	// When: the slot is written again
	c.Put("logs", ViewDocuments, DocsData{Rows: []Row{{ID: "b"}, {ID: "c"}}, TotalHits: 2})

	// Then: only the new value is visible, nothing merged
	e, _ := c.Get("logs", ViewDocuments)
	d := e.Data.(DocsData)
	if len(d.Rows) != 2 || d.Rows[0].ID != "b" {
		t.Errorf("rows = %v, want the replacement rows only", d.Rows)
	}
}

func TestViewCache_FetchedAtIsMonotonic(t *testing.T) {
	c := NewViewCache()

	c.Put("logs", ViewDocuments, DocsData{})
	c.Put("logs", ViewSearch, SearchData{})

	docs, _ := c.Get("logs", ViewDocuments)
	search, _ := c.Get("logs", ViewSearch)
	if search.FetchedAt <= docs.FetchedAt {
		t.Errorf("later Put tick %d should exceed earlier %d", search.FetchedAt, docs.FetchedAt)
	}
}

func TestViewCache_InvalidateKeepsData(t *testing.T) {
	// Given: a loaded documents slot
	c := NewViewCache()
	c.Put("logs", ViewDocuments, DocsData{Rows: []Row{{ID: "a"}}, TotalHits: 1})

	// When: the slot is invalidated
	c.Invalidate("logs", ViewDocuments)

	// Then: the entry is stale but its data is still displayable
	e, ok := c.Get("logs", ViewDocuments)
	if !ok {
		t.Fatal("invalidated entry should still exist")
	}
	if e.Loaded {
		t.Error("invalidated entry should not be loaded")
	}
	if d := e.Data.(DocsData); len(d.Rows) != 1 {
		t.Errorf("stale data should survive invalidation, got %v", d.Rows)
	}
}

func TestViewCache_InvalidateAbsentIsNoop(t *testing.T) {
	c := NewViewCache()

	c.Invalidate("logs", ViewDocuments)

	if _, ok := c.Get("logs", ViewDocuments); ok {
		t.Error("invalidating an absent slot must not create it")
	}
}

func TestViewCache_DropResource(t *testing.T) {
	// Given: slots for two indices
	c := NewViewCache()
	c.Put("logs", ViewDocuments, DocsData{})
	c.Put("logs", ViewMappings, SchemaData{})
	c.Put("metrics", ViewDocuments, DocsData{})

	// When: one index is dropped
	c.DropResource("logs")

	// Then: only its slots are gone
	if _, ok := c.Get("logs", ViewDocuments); ok {
		t.Error("logs documents slot should be gone")
	}
	if _, ok := c.Get("logs", ViewMappings); ok {
		t.Error("logs mappings slot should be gone")
	}
	if _, ok := c.Get("metrics", ViewDocuments); !ok {
		t.Error("metrics slot should survive")
	}
}
