package dashboard

import (
	"testing"

	"github.com/smileynet/escope/internal/browser"
)

func TestRunFetch_DocumentsExecutesQuery(t *testing.T) {
	backend := newStubBackend()
	req := browser.FetchRequest{
		Seq:      1,
		Resource: "logs",
		View:     browser.ViewDocuments,
		Query:    map[string]any{"from": 0, "size": 20},
	}

	msg := runFetch(backend, req)().(FetchDoneMsg)

	if msg.Err != nil {
		t.Fatalf("unexpected error: %v", msg.Err)
	}
	if msg.Res.Hits == nil || len(msg.Res.Hits.Rows) != 3 {
		t.Fatalf("hits = %+v, want 3 rows", msg.Res.Hits)
	}
	if len(backend.queries) != 1 {
		t.Errorf("queries executed = %d, want 1", len(backend.queries))
	}
	if msg.Req.Seq != req.Seq {
		t.Errorf("request seq = %d, want %d", msg.Req.Seq, req.Seq)
	}
}

func TestRunFetch_SchemaViews(t *testing.T) {
	backend := newStubBackend()

	mappings := runFetch(backend, browser.FetchRequest{Resource: "logs", View: browser.ViewMappings})().(FetchDoneMsg)
	if mappings.Err != nil || mappings.Res.Raw == nil {
		t.Errorf("mappings fetch = %+v, want raw JSON", mappings)
	}

	settings := runFetch(backend, browser.FetchRequest{Resource: "logs", View: browser.ViewSettings})().(FetchDoneMsg)
	if settings.Err != nil || settings.Res.Raw == nil {
		t.Errorf("settings fetch = %+v, want raw JSON", settings)
	}
}

func TestResolveOverview_UsesSnapshotWithoutBackend(t *testing.T) {
	req := browser.FetchRequest{Resource: "logs", View: browser.ViewOverview}
	snapshot := &browser.Resource{Name: "logs", DocsCount: 7}

	// A nil backend proves the snapshot path makes no calls.
	msg := resolveOverview(nil, req, snapshot)().(FetchDoneMsg)

	if msg.Err != nil {
		t.Fatalf("unexpected error: %v", msg.Err)
	}
	if msg.Res.Resource.DocsCount != 7 {
		t.Errorf("resource = %+v, want the snapshot", msg.Res.Resource)
	}
}

func TestResolveOverview_FallsBackToCatalog(t *testing.T) {
	backend := newStubBackend()
	req := browser.FetchRequest{Resource: "metrics", View: browser.ViewOverview}

	msg := resolveOverview(backend, req, nil)().(FetchDoneMsg)

	if msg.Err != nil {
		t.Fatalf("unexpected error: %v", msg.Err)
	}
	if msg.Res.Resource == nil || msg.Res.Resource.Name != "metrics" {
		t.Errorf("resource = %+v, want metrics from the catalog", msg.Res.Resource)
	}
}

func TestResolveOverview_MissingIndexErrors(t *testing.T) {
	backend := newStubBackend()
	req := browser.FetchRequest{Resource: "gone", View: browser.ViewOverview}

	msg := resolveOverview(backend, req, nil)().(FetchDoneMsg)

	if msg.Err == nil {
		t.Fatal("expected an error for an index missing from the catalog")
	}
}

func TestRunMutation_Dispatch(t *testing.T) {
	backend := newStubBackend()

	del := runMutation(backend, browser.MutationRequest{
		Kind: browser.MutDeleteDocuments, Resource: "logs", IDs: []string{"a", "b"},
	})().(MutationDoneMsg)
	if del.Err != nil || del.Deleted != 2 {
		t.Errorf("delete documents = %+v, want 2 deleted", del)
	}

	create := runMutation(backend, browser.MutationRequest{
		Kind: browser.MutCreateResource, Resource: "events", Shards: 1,
	})().(MutationDoneMsg)
	if create.Err != nil {
		t.Errorf("create index error: %v", create.Err)
	}
	if len(backend.created) != 1 || backend.created[0] != "events" {
		t.Errorf("created = %v, want [events]", backend.created)
	}

	drop := runMutation(backend, browser.MutationRequest{
		Kind: browser.MutDeleteResource, Resource: "logs",
	})().(MutationDoneMsg)
	if drop.Err != nil {
		t.Errorf("delete index error: %v", drop.Err)
	}
	if len(backend.dropped) != 1 || backend.dropped[0] != "logs" {
		t.Errorf("dropped = %v, want [logs]", backend.dropped)
	}
}
