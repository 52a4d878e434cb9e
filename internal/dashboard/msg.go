// Package dashboard implements the two-pane TUI for browsing an
// Elasticsearch cluster: an index list on the left, the active index's
// tabbed views on the right. All caching and consistency decisions live
// in internal/browser; this package turns its fetch and mutation
// directives into tea.Cmds and feeds completions back.
package dashboard

import (
	"context"
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/escope/internal/browser"
	"github.com/smileynet/escope/internal/es"
)

// --- Consumer-side interface ---

// Collaborator is the backend surface the dashboard drives. Implemented
// by es.Client.
type Collaborator interface {
	Health(ctx context.Context) (es.ClusterHealth, error)
	ListResources(ctx context.Context) ([]browser.Resource, error)
	ExecuteQuery(ctx context.Context, resource string, query map[string]any) (browser.Hits, error)
	CreateDocument(ctx context.Context, resource, id string, doc json.RawMessage) error
	DeleteDocuments(ctx context.Context, resource string, ids []string) (int, error)
	ClearAllDocuments(ctx context.Context, resource string) (int, error)
	CreateResource(ctx context.Context, resource string, shards, replicas int) error
	DeleteResource(ctx context.Context, resource string) error
	GetSchema(ctx context.Context, resource string) (json.RawMessage, error)
	GetConfig(ctx context.Context, resource string) (json.RawMessage, error)
}

// --- tea.Msg types ---

// IndicesMsg carries the result of a ListResources call.
type IndicesMsg struct {
	Resources []browser.Resource
	Err       error
}

// HealthMsg carries the result of a cluster health check.
type HealthMsg struct {
	Health es.ClusterHealth
	Err    error
}

// FetchDoneMsg carries a fetch completion for Session.ApplyFetch.
type FetchDoneMsg struct {
	Req browser.FetchRequest
	Res browser.FetchResult
	Err error
}

// MutationDoneMsg carries a mutation completion for Session.ApplyMutation.
type MutationDoneMsg struct {
	Req     browser.MutationRequest
	Deleted int
	Err     error
}

// --- Cmd constructors ---

// listIndices fetches the index catalog asynchronously.
func listIndices(c Collaborator) tea.Cmd {
	return func() tea.Msg {
		resources, err := c.ListResources(context.Background())
		return IndicesMsg{Resources: resources, Err: err}
	}
}

// checkHealth pings the cluster for the status line.
func checkHealth(c Collaborator) tea.Cmd {
	return func() tea.Msg {
		health, err := c.Health(context.Background())
		return HealthMsg{Health: health, Err: err}
	}
}

// runFetch executes one fetch directive against the collaborator.
// Overview directives are satisfied by the caller from the directory
// snapshot and never reach here.
func runFetch(c Collaborator, req browser.FetchRequest) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var res browser.FetchResult
		var err error
		switch req.View {
		case browser.ViewDocuments, browser.ViewSearch:
			var hits browser.Hits
			hits, err = c.ExecuteQuery(ctx, req.Resource, req.Query)
			if err == nil {
				res.Hits = &hits
			}
		case browser.ViewMappings:
			res.Raw, err = c.GetSchema(ctx, req.Resource)
		case browser.ViewSettings:
			res.Raw, err = c.GetConfig(ctx, req.Resource)
		}
		return FetchDoneMsg{Req: req, Res: res, Err: err}
	}
}

// resolveOverview satisfies an overview directive from the directory
// snapshot without a network call. When the index is not in the
// snapshot (e.g. just created), the catalog is re-listed.
func resolveOverview(c Collaborator, req browser.FetchRequest, snapshot *browser.Resource) tea.Cmd {
	if snapshot != nil {
		r := *snapshot
		return func() tea.Msg {
			return FetchDoneMsg{Req: req, Res: browser.FetchResult{Resource: &r}}
		}
	}
	return func() tea.Msg {
		resources, err := c.ListResources(context.Background())
		if err != nil {
			return FetchDoneMsg{Req: req, Err: err}
		}
		for _, r := range resources {
			if r.Name == req.Resource {
				r := r
				return FetchDoneMsg{Req: req, Res: browser.FetchResult{Resource: &r}}
			}
		}
		return FetchDoneMsg{Req: req, Err: errIndexGone(req.Resource)}
	}
}

// runMutation executes one mutation directive against the collaborator.
func runMutation(c Collaborator, req browser.MutationRequest) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var deleted int
		var err error
		switch req.Kind {
		case browser.MutCreateDocument:
			err = c.CreateDocument(ctx, req.Resource, req.DocID, req.Doc)
		case browser.MutDeleteDocuments:
			deleted, err = c.DeleteDocuments(ctx, req.Resource, req.IDs)
		case browser.MutClearAll:
			deleted, err = c.ClearAllDocuments(ctx, req.Resource)
		case browser.MutCreateResource:
			err = c.CreateResource(ctx, req.Resource, req.Shards, req.Replicas)
		case browser.MutDeleteResource:
			err = c.DeleteResource(ctx, req.Resource)
		}
		return MutationDoneMsg{Req: req, Deleted: deleted, Err: err}
	}
}

type errIndexGone string

func (e errIndexGone) Error() string {
	return "index " + string(e) + " is not in the catalog"
}
