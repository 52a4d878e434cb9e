// Package browser implements the view-consistency core of escope: a
// per-index cache of lazily fetched views, a state machine that decides
// when a view must be (re)fetched, a selection model for listing views,
// and a coordinator that fans out cache invalidation after mutations.
//
// The package is synchronous and does no I/O. Callers feed it discrete
// events (activate view, change page, mutation completed) and execute
// the FetchRequest / MutationRequest directives it hands back, then
// report completions via ApplyFetch / ApplyMutation. This keeps all
// ordering rules testable without a live backend.
package browser

import "encoding/json"

// ViewID identifies one of the dependent read surfaces of an index.
type ViewID string

const (
	ViewOverview  ViewID = "overview"
	ViewDocuments ViewID = "documents"
	ViewSearch    ViewID = "search"
	ViewMappings  ViewID = "mappings"
	ViewSettings  ViewID = "settings"
)

// Views lists all view IDs in display order.
var Views = []ViewID{ViewOverview, ViewDocuments, ViewSearch, ViewMappings, ViewSettings}

// IsListing reports whether the view shows a paginated row listing.
func (v ViewID) IsListing() bool {
	return v == ViewDocuments || v == ViewSearch
}

// Resource is an immutable snapshot of one index, as reported by the
// directory. It is refreshed wholesale and never patched field-by-field.
type Resource struct {
	Name          string
	Health        string // green | yellow | red
	Status        string // open | close
	DocsCount     int
	DocsDeleted   int
	PrimaryShards int
	ReplicaShards int
	StorageSize   string
}

// Row is a single document hit. ID is assigned by the backend and never
// regenerated client-side.
type Row struct {
	ID     string
	Fields map[string]any
}

// Hits is the result of executing a paginated query.
type Hits struct {
	Rows      []Row
	TotalHits int
}

// ViewData is the closed set of payload types a cache entry can hold.
type ViewData interface {
	viewData()
}

// DocsData is the documents view payload.
type DocsData struct {
	Rows      []Row
	TotalHits int
}

// SearchData is the search view payload, remembering the query text
// that produced it.
type SearchData struct {
	Rows      []Row
	TotalHits int
	QueryText string
}

// SchemaData is the mappings or settings view payload: raw JSON the
// core treats as opaque.
type SchemaData struct {
	Raw json.RawMessage
}

// OverviewData is the overview view payload: the directory snapshot of
// the index at fetch time.
type OverviewData struct {
	Resource Resource
}

func (DocsData) viewData()     {}
func (SearchData) viewData()   {}
func (SchemaData) viewData()   {}
func (OverviewData) viewData() {}

// FetchRequest directs the caller to fetch one view of one index. Seq
// orders requests per (Resource, View) slot; a completion is applied
// only while its request is still the newest for that slot.
type FetchRequest struct {
	Seq      uint64
	Resource string
	View     ViewID
	Page     PageState      // listing views only
	Query    map[string]any // built query body, listing views only
	Text     string         // raw search text, search view only
}

// FetchResult carries the payload of a completed fetch. Exactly one
// field is set, matching the request's view.
type FetchResult struct {
	Hits     *Hits           // documents, search
	Raw      json.RawMessage // mappings, settings
	Resource *Resource       // overview
}
