package browser

import (
	"errors"
	"testing"
)

func TestBuildQuery_Pagination(t *testing.T) {
	// Given: page 3 of a 20-row page size
	ps := PageState{Page: 3, PageSize: 20}

	// When: the query is built with no user body
	q, err := BuildQuery(ps, nil)
	if err != nil {
		t.Fatalf("BuildQuery returned error: %v", err)
	}

	// Then: from/size reflect the page window and the body is match-all
	if got := q["from"]; got != 40 {
		t.Errorf("from = %v, want 40", got)
	}
	if got := q["size"]; got != 20 {
		t.Errorf("size = %v, want 20", got)
	}
	if _, ok := q["query"].(map[string]any)["match_all"]; !ok {
		t.Errorf("query = %v, want match_all", q["query"])
	}
}

func TestBuildQuery_SortClause(t *testing.T) {
	ps := PageState{Page: 1, PageSize: 20, SortField: "timestamp", SortOrder: SortDesc}

	q, err := BuildQuery(ps, nil)
	if err != nil {
		t.Fatalf("BuildQuery returned error: %v", err)
	}

	sorts, ok := q["sort"].([]any)
	if !ok || len(sorts) != 1 {
		t.Fatalf("sort = %v, want one clause", q["sort"])
	}
	clause := sorts[0].(map[string]any)["timestamp"].(map[string]any)
	if clause["order"] != "desc" {
		t.Errorf("order = %v, want desc", clause["order"])
	}
}

func TestBuildQuery_NoSortFieldMeansEmptySort(t *testing.T) {
	q, err := BuildQuery(DefaultPageState(), nil)
	if err != nil {
		t.Fatalf("BuildQuery returned error: %v", err)
	}
	if sorts := q["sort"].([]any); len(sorts) != 0 {
		t.Errorf("sort = %v, want empty", sorts)
	}
}

func TestBuildQuery_DefaultsMissingSortOrderToAsc(t *testing.T) {
	ps := PageState{Page: 1, PageSize: 20, SortField: "name"}

	q, err := BuildQuery(ps, nil)
	if err != nil {
		t.Fatalf("BuildQuery returned error: %v", err)
	}
	clause := q["sort"].([]any)[0].(map[string]any)["name"].(map[string]any)
	if clause["order"] != "asc" {
		t.Errorf("order = %v, want asc", clause["order"])
	}
}

func TestBuildQuery_RejectsBadPageState(t *testing.T) {
	cases := []struct {
		name string
		ps   PageState
	}{
		{"zero page", PageState{Page: 0, PageSize: 20}},
		{"negative page", PageState{Page: -2, PageSize: 20}},
		{"zero page size", PageState{Page: 1, PageSize: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := BuildQuery(tc.ps, nil); err == nil {
				t.Errorf("BuildQuery(%+v) succeeded, want error", tc.ps)
			}
		})
	}
}

func TestBuildQuery_UserBodyPassedThrough(t *testing.T) {
	body := map[string]any{"term": map[string]any{"level": "error"}}

	q, err := BuildQuery(DefaultPageState(), body)
	if err != nil {
		t.Fatalf("BuildQuery returned error: %v", err)
	}
	if _, ok := q["query"].(map[string]any)["term"]; !ok {
		t.Errorf("query = %v, want the user's term clause", q["query"])
	}
}

func TestParseQueryBody_EmptyIsMatchAll(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		body, err := ParseQueryBody(text)
		if err != nil {
			t.Fatalf("ParseQueryBody(%q) error: %v", text, err)
		}
		if _, ok := body["match_all"]; !ok {
			t.Errorf("ParseQueryBody(%q) = %v, want match_all", text, body)
		}
	}
}

func TestParseQueryBody_InvalidJSON(t *testing.T) {
	cases := []string{
		`{"match_all": }`,
		`not json at all`,
		`[1, 2, 3]`,
		`{"a": 1} trailing`,
	}
	for _, text := range cases {
		_, err := ParseQueryBody(text)
		if !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("ParseQueryBody(%q) err = %v, want ErrInvalidQuery", text, err)
		}
		if !IsValidation(err) {
			t.Errorf("ParseQueryBody(%q) err should classify as validation", text)
		}
	}
}

func TestPageState_MaxPage(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{0, 1},
		{1, 1},
		{20, 1},
		{21, 2},
		{44, 3},
		{45, 3},
	}
	ps := DefaultPageState()
	for _, tc := range cases {
		if got := ps.MaxPage(tc.total); got != tc.want {
			t.Errorf("MaxPage(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}
