package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/escope/internal/browser"
	"github.com/smileynet/escope/internal/es"
)

// stubBackend is a canned Collaborator for model tests. It records the
// calls the dashboard makes so tests can assert on them.
type stubBackend struct {
	resources []browser.Resource
	hits      browser.Hits
	schema    json.RawMessage
	config    json.RawMessage
	health    es.ClusterHealth
	err       error

	queries    []map[string]any
	deletedIDs []string
	created    []string
	dropped    []string
}

func (s *stubBackend) Health(context.Context) (es.ClusterHealth, error) {
	return s.health, s.err
}

func (s *stubBackend) ListResources(context.Context) ([]browser.Resource, error) {
	return s.resources, s.err
}

func (s *stubBackend) ExecuteQuery(_ context.Context, _ string, query map[string]any) (browser.Hits, error) {
	s.queries = append(s.queries, query)
	return s.hits, s.err
}

func (s *stubBackend) CreateDocument(_ context.Context, resource, id string, _ json.RawMessage) error {
	s.created = append(s.created, resource+"/"+id)
	return s.err
}

func (s *stubBackend) DeleteDocuments(_ context.Context, _ string, ids []string) (int, error) {
	s.deletedIDs = append(s.deletedIDs, ids...)
	return len(ids), s.err
}

func (s *stubBackend) ClearAllDocuments(_ context.Context, _ string) (int, error) {
	return s.hits.TotalHits, s.err
}

func (s *stubBackend) CreateResource(_ context.Context, resource string, _, _ int) error {
	s.created = append(s.created, resource)
	return s.err
}

func (s *stubBackend) DeleteResource(_ context.Context, resource string) error {
	s.dropped = append(s.dropped, resource)
	return s.err
}

func (s *stubBackend) GetSchema(context.Context, string) (json.RawMessage, error) {
	return s.schema, s.err
}

func (s *stubBackend) GetConfig(context.Context, string) (json.RawMessage, error) {
	return s.config, s.err
}

// newStubBackend returns a backend with two indices and a small
// documents result.
func newStubBackend() *stubBackend {
	rows := make([]browser.Row, 3)
	for i := range rows {
		rows[i] = browser.Row{
			ID:     fmt.Sprintf("id%d", i),
			Fields: map[string]any{"level": "info", "n": float64(i)},
		}
	}
	return &stubBackend{
		health: es.ClusterHealth{ClusterName: "test-cluster", Status: "green", NumberOfNodes: 1},
		resources: []browser.Resource{
			{Name: "logs", Health: "green", Status: "open", DocsCount: 3, PrimaryShards: 1, ReplicaShards: 1, StorageSize: "1.2kb"},
			{Name: "metrics", Health: "yellow", Status: "open", DocsCount: 10, PrimaryShards: 1, StorageSize: "4kb"},
		},
		hits:   browser.Hits{Rows: rows, TotalHits: 3},
		schema: json.RawMessage(`{"properties":{"level":{"type":"keyword"}}}`),
		config: json.RawMessage(`{"index":{"number_of_shards":"1"}}`),
	}
}

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks are skipped
// to avoid infinite recursion.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				result := c()
				if _, isTick := result.(spinner.TickMsg); !isTick {
					msgs = append(msgs, result)
				}
			}
		}
		return msgs
	}
	if _, isTick := msg.(spinner.TickMsg); isTick {
		return nil
	}
	return []tea.Msg{msg}
}

// pump feeds every message a command produced back into the model,
// returning the advanced model and any follow-up commands' messages.
func pump(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range execBatch(t, cmd) {
		updated, next := m.Update(msg)
		m = updated.(Model)
		m = pump(t, m, next)
	}
	return m
}

// keyRune builds a KeyMsg for a single printable key.
func keyRune(r rune) tea.KeyMsg {
	if r == ' ' {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}
