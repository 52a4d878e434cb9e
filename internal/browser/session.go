package browser

import "fmt"

// FetchOutcome classifies what ApplyFetch did with a completion.
type FetchOutcome int

const (
	// FetchApplied means the result was written to the cache.
	FetchApplied FetchOutcome = iota
	// FetchDiscarded means a newer fetch superseded this one; the
	// completion was silently dropped. Not an error.
	FetchDiscarded
	// FetchFailed means the fetch errored; the cache was left at its
	// last-known-good state and the tab moved to Error.
	FetchFailed
)

// listingState holds the per-index parameters of the two listing views:
// their page/sort state, the search text being edited, and the last
// query text that was actually searched.
type listingState struct {
	pages     map[ViewID]PageState
	draft     string // search box contents, not yet validated
	committed string // last successfully searched query text
}

func newListingState() *listingState {
	return &listingState{
		pages: map[ViewID]PageState{
			ViewDocuments: DefaultPageState(),
			ViewSearch:    DefaultPageState(),
		},
	}
}

// Session owns the browsing state for one connection: the index
// directory snapshot, the view cache, per-view tab state, the
// selection, and per-index listing parameters. All methods are
// synchronous; fetch and mutation directives they return are executed
// by the caller and reported back through ApplyFetch / ApplyMutation.
type Session struct {
	cache *ViewCache
	tabs  *TabController
	sel   *Selection
	mut   *mutationCoordinator

	resources  []Resource
	active     string
	activeView ViewID
	listing    map[string]*listingState

	seq uint64
}

// NewSession returns a Session with no resources and no active index.
func NewSession() *Session {
	return &Session{
		cache:      NewViewCache(),
		tabs:       NewTabController(),
		sel:        NewSelection(),
		mut:        newMutationCoordinator(),
		activeView: ViewOverview,
		listing:    make(map[string]*listingState),
	}
}

// --- directory ---

// ResourcesRefreshed replaces the directory snapshot. Cached overview
// entries of listed indices are refreshed wholesale from the new
// snapshot so the overview tab never shows older counts than the
// directory pane.
func (s *Session) ResourcesRefreshed(list []Resource) {
	s.resources = append([]Resource(nil), list...)
	for _, r := range list {
		if e, ok := s.cache.Get(r.Name, ViewOverview); ok && e.Loaded {
			s.cache.Put(r.Name, ViewOverview, OverviewData{Resource: r})
		}
	}
}

// Resources returns the current directory snapshot.
func (s *Session) Resources() []Resource {
	return s.resources
}

// Resource looks up one index by name in the directory snapshot.
func (s *Session) Resource(name string) (Resource, bool) {
	for _, r := range s.resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// ActiveResource returns the selected index name, or "" if none.
func (s *Session) ActiveResource() string {
	return s.active
}

// ActiveView returns the view currently shown for the active index.
func (s *Session) ActiveView() ViewID {
	return s.activeView
}

// --- navigation events ---

// listingFor returns the listing parameters of an index, creating
// defaults on first sight.
func (s *Session) listingFor(resource string) *listingState {
	ls, ok := s.listing[resource]
	if !ok {
		ls = newListingState()
		s.listing[resource] = ls
	}
	return ls
}

// SelectResource makes name the active index. The selection is always
// cleared; page, sort, and query state survive a switch-away-and-back,
// as do cached view entries. Returns a fetch directive when the
// currently active view has no loaded cache entry for the new index.
func (s *Session) SelectResource(name string) (FetchRequest, bool) {
	if name == s.active {
		return FetchRequest{}, false
	}
	s.active = name
	s.sel.rescope(name, s.activeView)
	s.sel.Clear()
	if name == "" {
		return FetchRequest{}, false
	}
	s.listingFor(name)
	return s.activate(name, s.activeView)
}

// ActivateView switches the visible view for the active index. A
// loaded cache entry satisfies the activation without a fetch; anything
// else issues one.
func (s *Session) ActivateView(view ViewID) (FetchRequest, bool) {
	s.activeView = view
	if view.IsListing() {
		// Selection belongs to exactly one listing view at a time.
		s.sel.rescope(s.active, view)
	}
	if s.active == "" {
		return FetchRequest{}, false
	}
	return s.activate(s.active, view)
}

// activate consults the cache and either marks the tab Ready or issues
// a fetch. This is the Unloaded→Loading / cached→Ready transition.
func (s *Session) activate(resource string, view ViewID) (FetchRequest, bool) {
	if e, ok := s.cache.Get(resource, view); ok && e.Loaded {
		s.tabs.markReady(resource, view)
		return FetchRequest{}, false
	}
	return s.issueFetch(resource, view), true
}

// SetPage moves the active listing view to the given page and issues a
// fetch. Out-of-range or unchanged pages are ignored. The loaded flag
// never covers a different page, so this fetches even when Ready.
func (s *Session) SetPage(page int) (FetchRequest, bool) {
	if s.active == "" || !s.activeView.IsListing() || page < 1 {
		return FetchRequest{}, false
	}
	ls := s.listingFor(s.active)
	ps := ls.pages[s.activeView]
	if ps.Page == page {
		return FetchRequest{}, false
	}
	ps.Page = page
	ls.pages[s.activeView] = ps
	// The cached entry belongs to the old page; mark it stale so a
	// later activation cannot reuse it as if it matched.
	s.cache.Invalidate(s.active, s.activeView)
	return s.issueFetch(s.active, s.activeView), true
}

// SetSort changes the active listing view's sort and issues a fetch.
// An empty field clears sorting. Unchanged sort parameters are ignored.
func (s *Session) SetSort(field string, order SortOrder) (FetchRequest, bool) {
	if s.active == "" || !s.activeView.IsListing() {
		return FetchRequest{}, false
	}
	ls := s.listingFor(s.active)
	ps := ls.pages[s.activeView]
	if ps.SortField == field && ps.SortOrder == order {
		return FetchRequest{}, false
	}
	ps.SortField = field
	ps.SortOrder = order
	ls.pages[s.activeView] = ps
	s.cache.Invalidate(s.active, s.activeView)
	return s.issueFetch(s.active, s.activeView), true
}

// Refresh re-fetches the given view of the active index regardless of
// cache state.
func (s *Session) Refresh(view ViewID) (FetchRequest, bool) {
	if s.active == "" {
		return FetchRequest{}, false
	}
	return s.issueFetch(s.active, view), true
}

// PageStateFor returns the page/sort parameters of a listing view of
// the active index.
func (s *Session) PageStateFor(view ViewID) PageState {
	if s.active == "" || !view.IsListing() {
		return DefaultPageState()
	}
	return s.listingFor(s.active).pages[view]
}

// --- search ---

// SetQueryText stores the search box contents without validating or
// fetching anything.
func (s *Session) SetQueryText(text string) {
	if s.active == "" {
		return
	}
	s.listingFor(s.active).draft = text
}

// QueryText returns the search box contents for the active index.
func (s *Session) QueryText() string {
	if s.active == "" {
		return ""
	}
	return s.listingFor(s.active).draft
}

// Search validates the search box contents and, on success, commits
// them as the active query, resets the search view to page 1, and
// issues a fetch. On invalid JSON it returns ErrInvalidQuery and leaves
// the committed query, the cache, and the draft untouched.
func (s *Session) Search() (FetchRequest, error) {
	if s.active == "" {
		return FetchRequest{}, ErrNoResource
	}
	ls := s.listingFor(s.active)
	if _, err := ParseQueryBody(ls.draft); err != nil {
		return FetchRequest{}, err
	}
	ls.committed = ls.draft
	ps := ls.pages[ViewSearch]
	ps.Page = 1
	ls.pages[ViewSearch] = ps
	s.cache.Invalidate(s.active, ViewSearch)
	return s.issueFetch(s.active, ViewSearch), nil
}

// issueFetch builds the next fetch directive for a slot and moves its
// tab to Loading. The new sequence number supersedes any fetch still in
// flight for the same slot.
func (s *Session) issueFetch(resource string, view ViewID) FetchRequest {
	s.seq++
	req := FetchRequest{
		Seq:      s.seq,
		Resource: resource,
		View:     view,
	}
	if view.IsListing() {
		ls := s.listingFor(resource)
		req.Page = ls.pages[view]
		var body map[string]any
		if view == ViewSearch {
			req.Text = ls.committed
			// The committed text already passed validation at search
			// time; a parse failure here would be a programming error.
			body, _ = ParseQueryBody(ls.committed)
		}
		q, err := BuildQuery(req.Page, body)
		if err != nil {
			// PageState is controlled by this session and always valid.
			panic(fmt.Sprintf("browser: building query: %v", err))
		}
		req.Query = q
	}
	s.tabs.beginFetch(resource, view, req.Seq)
	return req
}

// --- fetch completion ---

// ApplyFetch reports a fetch completion. Superseded completions are
// discarded without touching the cache; failures record the error on
// the tab and keep the last-known-good entry; successes replace the
// slot's entry whole and prune the selection to the new row set.
func (s *Session) ApplyFetch(req FetchRequest, res FetchResult, err error) FetchOutcome {
	if !s.tabs.current(req.Resource, req.View, req.Seq) {
		return FetchDiscarded
	}
	if err != nil {
		s.tabs.complete(req.Resource, req.View, err.Error())
		return FetchFailed
	}

	var data ViewData
	switch req.View {
	case ViewDocuments:
		data = DocsData{Rows: res.Hits.Rows, TotalHits: res.Hits.TotalHits}
		s.sel.Prune(req.Resource, req.View, res.Hits.Rows)
	case ViewSearch:
		data = SearchData{Rows: res.Hits.Rows, TotalHits: res.Hits.TotalHits, QueryText: req.Text}
		s.sel.Prune(req.Resource, req.View, res.Hits.Rows)
	case ViewMappings, ViewSettings:
		data = SchemaData{Raw: res.Raw}
	case ViewOverview:
		data = OverviewData{Resource: *res.Resource}
	}
	s.cache.Put(req.Resource, req.View, data)
	s.tabs.complete(req.Resource, req.View, "")
	return FetchApplied
}

// --- read accessors for the presentation layer ---

// Entry returns the cache entry for one view of the active index.
func (s *Session) Entry(view ViewID) (CacheEntry, bool) {
	if s.active == "" {
		return CacheEntry{}, false
	}
	return s.cache.Get(s.active, view)
}

// EntryFor returns the cache entry for any (index, view) slot.
func (s *Session) EntryFor(resource string, view ViewID) (CacheEntry, bool) {
	return s.cache.Get(resource, view)
}

// State returns the tab state for one view of the active index.
func (s *Session) State(view ViewID) TabState {
	if s.active == "" {
		return TabUnloaded
	}
	return s.tabs.State(s.active, view)
}

// ErrMsg returns the last fetch error for one view of the active index.
func (s *Session) ErrMsg(view ViewID) string {
	if s.active == "" {
		return ""
	}
	return s.tabs.ErrMsg(s.active, view)
}

// --- selection ---

// rows returns the row set currently cached for one listing view of the
// active index, loaded or stale.
func (s *Session) rows(view ViewID) []Row {
	e, ok := s.Entry(view)
	if !ok {
		return nil
	}
	switch d := e.Data.(type) {
	case DocsData:
		return d.Rows
	case SearchData:
		return d.Rows
	default:
		return nil
	}
}

// ToggleRow flips the selection of one row in the active listing view.
// Ids not present in the cached row set are ignored, preserving the
// selection-subset invariant.
func (s *Session) ToggleRow(id string) {
	if s.active == "" || !s.activeView.IsListing() {
		return
	}
	for _, r := range s.rows(s.activeView) {
		if r.ID == id {
			s.sel.Toggle(s.active, s.activeView, id)
			return
		}
	}
}

// ToggleAllRows selects every row currently cached for the active
// listing view, or deselects them all if they are all selected. Only
// fetched rows are affected, never the full match set.
func (s *Session) ToggleAllRows() {
	if s.active == "" || !s.activeView.IsListing() {
		return
	}
	s.sel.ToggleAll(s.active, s.activeView, s.rows(s.activeView))
}

// SelectedIDs returns the selected row ids in sorted order.
func (s *Session) SelectedIDs() []string {
	return s.sel.IDs()
}

// IsSelected reports whether a row id is selected.
func (s *Session) IsSelected(id string) bool {
	return s.sel.Has(id)
}

// SelectionLen returns the number of selected rows.
func (s *Session) SelectionLen() int {
	return s.sel.Len()
}
