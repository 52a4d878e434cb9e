package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MutationKind enumerates the write operations the client can issue.
type MutationKind int

const (
	MutCreateDocument MutationKind = iota
	MutDeleteDocuments
	MutClearAll
	MutCreateResource
	MutDeleteResource
)

// String returns the kind name for status messages.
func (k MutationKind) String() string {
	switch k {
	case MutCreateDocument:
		return "create document"
	case MutDeleteDocuments:
		return "delete documents"
	case MutClearAll:
		return "clear all documents"
	case MutCreateResource:
		return "create index"
	case MutDeleteResource:
		return "delete index"
	default:
		return "unknown"
	}
}

// MutationRequest directs the caller to execute one write operation.
// Requests for the same Resource are handed out one at a time; the next
// queued one is released by ApplyMutation.
type MutationRequest struct {
	Seq      uint64
	Kind     MutationKind
	Resource string
	DocID    string          // create document, optional
	Doc      json.RawMessage // create document body
	IDs      []string        // delete documents
	Shards   int             // create index
	Replicas int             // create index
}

// MutationOutcome is the result of applying a completed mutation: the
// refetch directives for views the mutation made stale, plus follow-up
// signals for the presentation layer.
type MutationOutcome struct {
	Request      MutationRequest
	Err          error            // collaborator error, nil on success
	Deleted      int              // items removed, bulk operations
	Shortfall    int              // requested minus deleted, bulk delete
	Refetch      []FetchRequest   // issued for the active invalidated view
	RefreshDir   bool             // directory metadata should be re-listed
	DroppedRes   string           // non-empty when an index was deleted
	Deselect     bool             // the active index is gone; deselect it
	Next         *MutationRequest // next queued mutation now clear to run
}

// mutationCoordinator serializes mutations per index. A second mutation
// on an index that already has one in flight is queued and released
// when the first one's invalidate/refetch sequence has been applied.
type mutationCoordinator struct {
	busy  map[string]uint64            // resource -> in-flight seq
	queue map[string][]MutationRequest // resource -> waiting requests
}

func newMutationCoordinator() *mutationCoordinator {
	return &mutationCoordinator{
		busy:  make(map[string]uint64),
		queue: make(map[string][]MutationRequest),
	}
}

// admit either marks req in flight (true) or queues it behind the
// index's current mutation (false).
func (m *mutationCoordinator) admit(req MutationRequest) bool {
	if _, inFlight := m.busy[req.Resource]; inFlight {
		m.queue[req.Resource] = append(m.queue[req.Resource], req)
		return false
	}
	m.busy[req.Resource] = req.Seq
	return true
}

// settle clears the in-flight mark for req and releases the next queued
// request for the same index, if any. Release happens in the same
// completion that issues the invalidation refetch, before that refetch
// resolves; the next mutation's own invalidate and refetch carry newer
// sequence numbers, so the earlier refetch is superseded rather than
// waited on.
func (m *mutationCoordinator) settle(req MutationRequest) *MutationRequest {
	if m.busy[req.Resource] != req.Seq {
		return nil
	}
	delete(m.busy, req.Resource)
	waiting := m.queue[req.Resource]
	if len(waiting) == 0 {
		return nil
	}
	next := waiting[0]
	if len(waiting) == 1 {
		delete(m.queue, req.Resource)
	} else {
		m.queue[req.Resource] = waiting[1:]
	}
	m.busy[next.Resource] = next.Seq
	return &next
}

// dropResource discards queued mutations for a deleted index.
func (m *mutationCoordinator) dropResource(resource string) {
	delete(m.queue, resource)
}

// resourceNameForbidden holds the characters Elasticsearch rejects in
// index names.
const resourceNameForbidden = ` \/*?"<>|,#:`

// ValidateResourceName checks an index name against the backend's
// naming rules so bad names fail before a request is issued.
func ValidateResourceName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidResourceName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidResourceName, name)
	case len(name) > 255:
		return fmt.Errorf("%w: longer than 255 bytes", ErrInvalidResourceName)
	case strings.ContainsAny(name, resourceNameForbidden):
		return fmt.Errorf("%w: %q contains a forbidden character", ErrInvalidResourceName, name)
	case strings.HasPrefix(name, "-") || strings.HasPrefix(name, "_") || strings.HasPrefix(name, "+"):
		return fmt.Errorf("%w: %q starts with %q", ErrInvalidResourceName, name, name[0])
	case strings.ToLower(name) != name:
		return fmt.Errorf("%w: %q is not lowercase", ErrInvalidResourceName, name)
	}
	return nil
}

// validateDocumentBody checks that text parses as a JSON object and
// returns its compacted raw form.
func validateDocumentBody(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w", ErrInvalidDocument)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return json.RawMessage(trimmed), nil
}

// --- Session mutation surface ---
//
// Each method validates locally, then returns a MutationRequest for the
// caller to execute. started=false means another mutation on the same
// index is still settling; the request was queued and will be released
// as Outcome.Next by a later ApplyMutation. Validation failures return
// an error and no request; the collaborator is never called for them.

// CreateDocument requests indexing a new document into the active
// index. id may be empty to let the backend assign one. body must be a
// JSON object.
func (s *Session) CreateDocument(id, body string) (MutationRequest, bool, error) {
	if s.active == "" {
		return MutationRequest{}, false, ErrNoResource
	}
	doc, err := validateDocumentBody(body)
	if err != nil {
		return MutationRequest{}, false, err
	}
	req := s.newMutation(MutCreateDocument, s.active)
	req.DocID = id
	req.Doc = doc
	return req, s.mut.admit(req), nil
}

// DeleteDocuments requests deletion of the given document ids from the
// active index.
func (s *Session) DeleteDocuments(ids []string) (MutationRequest, bool, error) {
	if s.active == "" {
		return MutationRequest{}, false, ErrNoResource
	}
	if len(ids) == 0 {
		return MutationRequest{}, false, ErrNoIDs
	}
	req := s.newMutation(MutDeleteDocuments, s.active)
	req.IDs = append([]string(nil), ids...)
	return req, s.mut.admit(req), nil
}

// ClearAllDocuments requests deletion of every document in the active
// index.
func (s *Session) ClearAllDocuments() (MutationRequest, bool, error) {
	if s.active == "" {
		return MutationRequest{}, false, ErrNoResource
	}
	req := s.newMutation(MutClearAll, s.active)
	return req, s.mut.admit(req), nil
}

// CreateResource requests creation of a new index.
func (s *Session) CreateResource(name string, shards, replicas int) (MutationRequest, bool, error) {
	if err := ValidateResourceName(name); err != nil {
		return MutationRequest{}, false, err
	}
	if shards < 1 || replicas < 0 {
		return MutationRequest{}, false, fmt.Errorf("%w: shards=%d replicas=%d", ErrInvalidShards, shards, replicas)
	}
	req := s.newMutation(MutCreateResource, name)
	req.Shards = shards
	req.Replicas = replicas
	return req, s.mut.admit(req), nil
}

// DeleteResource requests deletion of the active index.
func (s *Session) DeleteResource() (MutationRequest, bool, error) {
	if s.active == "" {
		return MutationRequest{}, false, ErrNoResource
	}
	req := s.newMutation(MutDeleteResource, s.active)
	return req, s.mut.admit(req), nil
}

func (s *Session) newMutation(kind MutationKind, resource string) MutationRequest {
	s.seq++
	return MutationRequest{Seq: s.seq, Kind: kind, Resource: resource}
}

// ApplyMutation reports a mutation completion and fans out its
// consequences: selection cleanup, cache invalidation of the listing
// views, an immediate refetch directive when the active view is one of
// the invalidated ones, and a directory refresh signal. On error the
// cache is untouched. In both cases the next queued mutation for the
// index, if any, is released via the outcome.
func (s *Session) ApplyMutation(req MutationRequest, deleted int, err error) MutationOutcome {
	out := MutationOutcome{Request: req, Deleted: deleted}
	out.Next = s.mut.settle(req)
	if err != nil {
		out.Err = err
		return out
	}

	switch req.Kind {
	case MutCreateDocument:
		s.invalidateListings(req.Resource, &out)
		out.RefreshDir = true

	case MutDeleteDocuments:
		if s.sel.resource == req.Resource {
			s.sel.Remove(req.IDs)
		}
		s.invalidateListings(req.Resource, &out)
		out.RefreshDir = true
		if deleted < len(req.IDs) {
			out.Shortfall = len(req.IDs) - deleted
		}

	case MutClearAll:
		if s.sel.resource == req.Resource {
			s.sel.Clear()
		}
		s.invalidateListings(req.Resource, &out)
		out.RefreshDir = true

	case MutCreateResource:
		out.RefreshDir = true

	case MutDeleteResource:
		s.cache.DropResource(req.Resource)
		s.tabs.dropResource(req.Resource)
		s.mut.dropResource(req.Resource)
		delete(s.listing, req.Resource)
		if s.sel.resource == req.Resource {
			s.sel.Clear()
		}
		if s.active == req.Resource {
			s.active = ""
			out.Deselect = true
		}
		out.DroppedRes = req.Resource
		out.RefreshDir = true
	}
	return out
}

// invalidateListings marks the documents and search slots of an index
// stale and, when one of them is the view the user is looking at,
// issues the immediate refetch that restores it to Ready without a
// manual refresh.
func (s *Session) invalidateListings(resource string, out *MutationOutcome) {
	s.cache.Invalidate(resource, ViewDocuments)
	s.cache.Invalidate(resource, ViewSearch)
	if s.active == resource && s.activeView.IsListing() {
		out.Refetch = append(out.Refetch, s.issueFetch(resource, s.activeView))
	}
}
