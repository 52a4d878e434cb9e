package browser

import "sort"

// Selection tracks the set of selected row ids within one listing view
// of one index. It is scoped: any operation for a different scope first
// resets it.
type Selection struct {
	resource string
	view     ViewID
	ids      map[string]struct{}
}

// NewSelection returns an empty, unscoped selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// rescope clears the selection if it belongs to a different
// (resource, view) than the one being operated on.
func (s *Selection) rescope(resource string, view ViewID) {
	if s.resource != resource || s.view != view {
		s.resource = resource
		s.view = view
		s.ids = make(map[string]struct{})
	}
}

// Toggle flips the selected state of id within the given scope.
func (s *Selection) Toggle(resource string, view ViewID, id string) {
	s.rescope(resource, view)
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
}

// ToggleAll selects every given row id, unless all of them are already
// selected, in which case it deselects them. Calling it twice on an
// unchanged row set returns to an empty selection.
func (s *Selection) ToggleAll(resource string, view ViewID, rows []Row) {
	s.rescope(resource, view)
	all := len(rows) > 0
	for _, r := range rows {
		if _, ok := s.ids[r.ID]; !ok {
			all = false
			break
		}
	}
	if all {
		for _, r := range rows {
			delete(s.ids, r.ID)
		}
		return
	}
	for _, r := range rows {
		s.ids[r.ID] = struct{}{}
	}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Clear empties the selection without changing its scope.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Remove deselects the given ids if present.
func (s *Selection) Remove(ids []string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Prune drops every selected id not present in rows, restoring the
// invariant that the selection is a subset of the displayed row set.
// Only applies when the scope matches; other scopes are untouched.
func (s *Selection) Prune(resource string, view ViewID, rows []Row) {
	if s.resource != resource || s.view != view {
		return
	}
	keep := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		keep[r.ID] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}
