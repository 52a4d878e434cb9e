package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/escope/internal/browser"
	"github.com/smileynet/escope/internal/config"
	"github.com/smileynet/escope/internal/es"
)

// --- stubs ---

type stubLister struct {
	resources []browser.Resource
	err       error
}

func (s *stubLister) ListResources(context.Context) ([]browser.Resource, error) {
	return s.resources, s.err
}

type stubHealth struct {
	health es.ClusterHealth
	err    error
}

func (s *stubHealth) Health(context.Context) (es.ClusterHealth, error) {
	return s.health, s.err
}

type stubQuerier struct {
	hits    browser.Hits
	err     error
	queries []map[string]any
}

func (s *stubQuerier) ExecuteQuery(_ context.Context, _ string, query map[string]any) (browser.Hits, error) {
	s.queries = append(s.queries, query)
	return s.hits, s.err
}

type stubTea struct {
	err error
	ran bool
}

func (s *stubTea) Run() (tea.Model, error) {
	s.ran = true
	return nil, s.err
}

// --- indices ---

func TestIndicesCmd_PrintsTable(t *testing.T) {
	lister := &stubLister{resources: []browser.Resource{
		{Name: "logs", Health: "green", Status: "open", DocsCount: 3, PrimaryShards: 1, ReplicaShards: 1, StorageSize: "1.2kb"},
		{Name: "metrics", Health: "yellow", Status: "open", DocsCount: 10, StorageSize: "4kb"},
	}}
	var buf bytes.Buffer

	cmd := &IndicesCmd{}
	if err := cmd.run(context.Background(), &buf, lister); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"HEALTH", "logs", "metrics", "green", "1.2kb"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestIndicesCmd_PropagatesError(t *testing.T) {
	lister := &stubLister{err: errors.New("connection refused")}
	var buf bytes.Buffer

	err := (&IndicesCmd{}).run(context.Background(), &buf, lister)

	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("err = %v, want the backend error wrapped", err)
	}
}

// --- health ---

func TestHealthCmd_PrintsSummary(t *testing.T) {
	checker := &stubHealth{health: es.ClusterHealth{
		ClusterName:       "test-cluster",
		Status:            "yellow",
		NumberOfNodes:     3,
		NumberOfDataNodes: 2,
		ActiveShards:      10,
		UnassignedShards:  2,
		PendingTasks:      1,
	}}
	var buf bytes.Buffer

	if err := (&HealthCmd{}).run(context.Background(), &buf, checker); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"test-cluster", "yellow", "3 (2 data)", "2 unassigned", "pending: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// --- search ---

func TestSearchCmd_RunsQueryAndPrintsHits(t *testing.T) {
	q := &stubQuerier{hits: browser.Hits{
		Rows: []browser.Row{
			{ID: "a1", Fields: map[string]any{"level": "info"}},
			{ID: "a2", Fields: map[string]any{"level": "warn"}},
		},
		TotalHits: 42,
	}}
	var buf bytes.Buffer

	cmd := &SearchCmd{Index: "logs", Query: `{"term": {"level": "info"}}`, Page: 2, Sort: "ts", Desc: true}
	if err := cmd.run(context.Background(), &buf, q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "42 hits (page 2/3)") {
		t.Errorf("output missing hit summary:\n%s", out)
	}
	if !strings.Contains(out, "a1") || !strings.Contains(out, "a2") {
		t.Errorf("output missing row ids:\n%s", out)
	}

	if len(q.queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(q.queries))
	}
	query := q.queries[0]
	if query["from"] != 20 {
		t.Errorf("from = %v, want 20", query["from"])
	}
	sorts, ok := query["sort"].([]any)
	if !ok || len(sorts) != 1 {
		t.Fatalf("sort = %v, want one clause", query["sort"])
	}
}

func TestSearchCmd_RejectsInvalidQuery(t *testing.T) {
	q := &stubQuerier{}
	var buf bytes.Buffer

	cmd := &SearchCmd{Index: "logs", Query: `{"broken`, Page: 1}
	err := cmd.run(context.Background(), &buf, q)

	if !errors.Is(err, browser.ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery", err)
	}
	if len(q.queries) != 0 {
		t.Errorf("no query should have run, got %d", len(q.queries))
	}
}

func TestSearchCmd_EmptyQueryMeansMatchAll(t *testing.T) {
	q := &stubQuerier{}
	var buf bytes.Buffer

	cmd := &SearchCmd{Index: "logs", Page: 1}
	if err := cmd.run(context.Background(), &buf, q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query := q.queries[0]["query"].(map[string]any)
	if _, ok := query["match_all"]; !ok {
		t.Errorf("query = %v, want match_all", query)
	}
}

// --- browse ---

func TestBrowseCmd_RunWrapsError(t *testing.T) {
	p := &stubTea{err: errors.New("terminal lost")}

	err := (&BrowseCmd{}).run(p)

	if !p.ran {
		t.Error("program should have been run")
	}
	if err == nil || !strings.Contains(err.Error(), "terminal lost") {
		t.Errorf("err = %v, want the program error wrapped", err)
	}
}

func TestBrowseCmd_RunSuccess(t *testing.T) {
	p := &stubTea{}
	if err := (&BrowseCmd{}).run(p); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- config wiring ---

func TestClientOptions_URLOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ESCOPE_CONNECTION", "")
	t.Setenv("ESCOPE_TIMEOUT", "")

	cli := &CLI{URL: "https://example.com:9200", Insecure: true, Timeout: 5 * time.Second}
	opts, err := clientOptions(cli)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if opts.BaseURL != "https://example.com:9200" {
		t.Errorf("BaseURL = %q", opts.BaseURL)
	}
	if !opts.Insecure {
		t.Error("Insecure should carry through")
	}
	if opts.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", opts.Timeout)
	}
}

func TestClientOptions_DefaultConnection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ESCOPE_CONNECTION", "")
	t.Setenv("ESCOPE_TIMEOUT", "")

	// With no config files present, the built-in local connection is used.
	opts, err := clientOptions(&CLI{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if opts.BaseURL != "http://localhost:9200" {
		t.Errorf("BaseURL = %q, want the local default", opts.BaseURL)
	}
	if opts.Auth != es.AuthNone {
		t.Errorf("Auth = %q, want none", opts.Auth)
	}
}

func TestLoadConfig_PersistsProfilesOnFirstRun(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ESCOPE_CONNECTION", "")
	t.Setenv("ESCOPE_TIMEOUT", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mem, err := cfg.Connection("local")
	if err != nil {
		t.Fatalf("local connection: %v", err)
	}
	if mem.ID == "" {
		t.Error("local connection should have been assigned an ID")
	}

	// The defaults were written to the user path with the same ID, so
	// a later run reads them back instead of regenerating.
	path := filepath.Join(os.Getenv("HOME"), ".config", "escope", "config.yaml")
	saved, err := config.Load(path)
	if err != nil {
		t.Fatalf("reading persisted config: %v", err)
	}
	got, err := saved.Connection("local")
	if err != nil {
		t.Fatalf("persisted local connection: %v", err)
	}
	if got.ID != mem.ID {
		t.Errorf("persisted ID = %q, want %q", got.ID, mem.ID)
	}

	again, err := loadConfig()
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	conn, err := again.Connection("local")
	if err != nil {
		t.Fatalf("second local connection: %v", err)
	}
	if conn.ID != mem.ID {
		t.Errorf("second load ID = %q, want %q", conn.ID, mem.ID)
	}
}

func TestClientOptions_UnknownConnection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ESCOPE_CONNECTION", "")
	t.Setenv("ESCOPE_TIMEOUT", "")

	_, err := clientOptions(&CLI{Connection: "nope"})
	if err == nil {
		t.Error("expected an error for an unknown connection name")
	}
}

func TestCompactFields(t *testing.T) {
	if got := compactFields(nil); got != "{}" {
		t.Errorf("empty fields = %q, want {}", got)
	}
	got := compactFields(map[string]any{"a": 1})
	if got != `{"a":1}` {
		t.Errorf("fields = %q, want compact JSON", got)
	}
}
