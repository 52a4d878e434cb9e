package browser

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PageSize is the fixed number of rows per page. It is a constant of
// the client, not a user setting.
const PageSize = 20

// SortOrder is the direction of a sorted listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PageState holds the pagination and sort parameters of one listing
// view. The zero SortField means unsorted (index order).
type PageState struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder SortOrder
}

// DefaultPageState returns page 1 with the fixed page size and no sort.
func DefaultPageState() PageState {
	return PageState{Page: 1, PageSize: PageSize}
}

// From returns the zero-based offset of the first row on the page.
func (p PageState) From() int {
	return (p.Page - 1) * p.PageSize
}

// MaxPage returns the highest valid page number for total rows. It is
// never below 1: an empty result set still has a page 1.
func (p PageState) MaxPage(total int) int {
	if total <= 0 || p.PageSize <= 0 {
		return 1
	}
	max := (total + p.PageSize - 1) / p.PageSize
	if max < 1 {
		max = 1
	}
	return max
}

// matchAll is the query body used when the user has not supplied one.
func matchAll() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

// BuildQuery turns a PageState and a query body into the backend's
// search request. A nil body means match-all. Pure function: it never
// mutates its inputs and fails only on an out-of-range PageState.
func BuildQuery(p PageState, body map[string]any) (map[string]any, error) {
	if p.Page < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPage, p.Page)
	}
	if p.PageSize < 1 {
		return nil, fmt.Errorf("browser: page size must be positive, got %d", p.PageSize)
	}

	q := map[string]any{
		"from": p.From(),
		"size": p.PageSize,
	}
	if body == nil {
		q["query"] = matchAll()
	} else {
		q["query"] = body
	}
	if p.SortField != "" {
		order := p.SortOrder
		if order == "" {
			order = SortAsc
		}
		q["sort"] = []any{
			map[string]any{p.SortField: map[string]any{"order": string(order)}},
		}
	} else {
		q["sort"] = []any{}
	}
	return q, nil
}

// ParseQueryBody validates user-supplied search text and returns the
// decoded query body. Empty or whitespace-only text yields match-all.
// Malformed JSON or a non-object body returns ErrInvalidQuery; callers
// must leave their prior query state untouched in that case.
func ParseQueryBody(text string) (map[string]any, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return matchAll(), nil
	}

	var body map[string]any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	// Trailing garbage after the object is an error too.
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected trailing content", ErrInvalidQuery)
	}
	return body, nil
}
