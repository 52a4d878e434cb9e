// Package es is the Elasticsearch collaborator client. It speaks the
// small REST surface the browser core consumes: the index catalog,
// paginated search, document create/delete, index create/delete, and
// the mapping/settings/health lookups. Responses are converted into the
// closed browser types at this boundary; nothing duck-typed escapes.
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smileynet/escope/internal/browser"
)

// AuthType selects how requests are authenticated.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "apiKey"
)

// Options configure a Client.
type Options struct {
	BaseURL  string // e.g. http://localhost:9200
	Auth     AuthType
	Username string
	Password string
	APIKey   string
	Insecure bool          // skip TLS certificate verification
	Timeout  time.Duration // default 30s
}

// Client talks to one Elasticsearch endpoint.
type Client struct {
	baseURL    string
	auth       AuthType
	username   string
	password   string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client from Options.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{}
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		auth:     opts.Auth,
		username: opts.Username,
		password: opts.Password,
		apiKey:   opts.APIKey,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// do performs one request with auth applied and returns the body. Non-2xx
// statuses are errors carrying a truncated response excerpt.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("es: encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("es: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	switch c.auth {
	case AuthBasic:
		req.SetBasicAuth(c.username, c.password)
	case AuthAPIKey:
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("es: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("es: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("es: %s %s: HTTP %d: %s", method, path, resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

// getJSON performs a GET and unmarshals the response into dest.
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("es: parsing response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ClusterHealth is the subset of _cluster/health the client surfaces.
type ClusterHealth struct {
	ClusterName         string `json:"cluster_name"`
	Status              string `json:"status"`
	NumberOfNodes       int    `json:"number_of_nodes"`
	NumberOfDataNodes   int    `json:"number_of_data_nodes"`
	ActivePrimaryShards int    `json:"active_primary_shards"`
	ActiveShards        int    `json:"active_shards"`
	RelocatingShards    int    `json:"relocating_shards"`
	InitializingShards  int    `json:"initializing_shards"`
	UnassignedShards    int    `json:"unassigned_shards"`
	PendingTasks        int    `json:"number_of_pending_tasks"`
}

// Health pings the cluster and returns its health summary. Used both as
// the connection check and for the status line.
func (c *Client) Health(ctx context.Context) (ClusterHealth, error) {
	var h ClusterHealth
	if err := c.getJSON(ctx, "/_cluster/health", &h); err != nil {
		return ClusterHealth{}, err
	}
	return h, nil
}

// catIndex is one row of _cat/indices?format=json. All values arrive as
// strings.
type catIndex struct {
	Index       string `json:"index"`
	Health      string `json:"health"`
	Status      string `json:"status"`
	DocsCount   string `json:"docs.count"`
	DocsDeleted string `json:"docs.deleted"`
	Pri         string `json:"pri"`
	Rep         string `json:"rep"`
	StoreSize   string `json:"store.size"`
}

// ListResources returns the index catalog.
func (c *Client) ListResources(ctx context.Context) ([]browser.Resource, error) {
	var rows []catIndex
	if err := c.getJSON(ctx, "/_cat/indices?format=json", &rows); err != nil {
		return nil, err
	}
	out := make([]browser.Resource, 0, len(rows))
	for _, r := range rows {
		out = append(out, browser.Resource{
			Name:          r.Index,
			Health:        r.Health,
			Status:        r.Status,
			DocsCount:     atoi(r.DocsCount),
			DocsDeleted:   atoi(r.DocsDeleted),
			PrimaryShards: atoi(r.Pri),
			ReplicaShards: atoi(r.Rep),
			StorageSize:   r.StoreSize,
		})
	}
	return out, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// searchResponse is the subset of a _search response the client reads.
// hits.total is an object since ES 7 but a bare number before that;
// both forms are accepted.
type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID     string         `json:"_id"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeTotal(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Value > 0 {
		return obj.Value
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return obj.Value
}

// ExecuteQuery runs a search against one index and returns its hits.
func (c *Client) ExecuteQuery(ctx context.Context, resource string, query map[string]any) (browser.Hits, error) {
	var resp searchResponse
	data, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(resource)+"/_search", query)
	if err != nil {
		return browser.Hits{}, err
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return browser.Hits{}, fmt.Errorf("es: parsing search response: %w", err)
	}
	rows := make([]browser.Row, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		rows = append(rows, browser.Row{ID: h.ID, Fields: h.Source})
	}
	return browser.Hits{Rows: rows, TotalHits: decodeTotal(resp.Hits.Total)}, nil
}

// CreateDocument indexes a document. An empty id lets the backend
// assign one. The write is refreshed so the immediate refetch sees it.
func (c *Client) CreateDocument(ctx context.Context, resource, id string, doc json.RawMessage) error {
	var body any
	if err := json.Unmarshal(doc, &body); err != nil {
		return fmt.Errorf("es: document body: %w", err)
	}
	base := "/" + url.PathEscape(resource) + "/_doc"
	if id == "" {
		_, err := c.do(ctx, http.MethodPost, base+"?refresh=true", body)
		return err
	}
	_, err := c.do(ctx, http.MethodPut, base+"/"+url.PathEscape(id)+"?refresh=true", body)
	return err
}

// bulkResponse is the subset of a _bulk response the client reads.
type bulkResponse struct {
	Items []map[string]struct {
		Result string `json:"result"`
	} `json:"items"`
}

// DeleteDocuments bulk-deletes the given ids and returns how many were
// actually removed. A count below len(ids) is not an error; the caller
// decides how to surface the shortfall.
func (c *Client) DeleteDocuments(ctx context.Context, resource string, ids []string) (int, error) {
	var buf bytes.Buffer
	for _, id := range ids {
		action := map[string]any{
			"delete": map[string]any{"_index": resource, "_id": id},
		}
		line, err := json.Marshal(action)
		if err != nil {
			return 0, fmt.Errorf("es: encoding bulk action: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/_bulk?refresh=true", &buf)
	if err != nil {
		return 0, fmt.Errorf("es: creating request: %w", err)
	}
	// The bulk endpoint requires newline-delimited JSON.
	req.Header.Set("Content-Type", "application/x-ndjson")
	switch c.auth {
	case AuthBasic:
		req.SetBasicAuth(c.username, c.password)
	case AuthAPIKey:
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("es: POST /_bulk: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("es: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("es: POST /_bulk: HTTP %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed bulkResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("es: parsing bulk response: %w", err)
	}
	deleted := 0
	for _, item := range parsed.Items {
		if d, ok := item["delete"]; ok && d.Result == "deleted" {
			deleted++
		}
	}
	return deleted, nil
}

// ClearAllDocuments deletes every document in the index and returns the
// count removed.
func (c *Client) ClearAllDocuments(ctx context.Context, resource string) (int, error) {
	body := map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
	data, err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(resource)+"/_delete_by_query?refresh=true", body)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("es: parsing delete-by-query response: %w", err)
	}
	return resp.Deleted, nil
}

// CreateResource creates an index with the given shard layout.
func (c *Client) CreateResource(ctx context.Context, resource string, shards, replicas int) error {
	body := map[string]any{
		"settings": map[string]any{
			"number_of_shards":   shards,
			"number_of_replicas": replicas,
		},
	}
	_, err := c.do(ctx, http.MethodPut, "/"+url.PathEscape(resource), body)
	return err
}

// DeleteResource deletes an index.
func (c *Client) DeleteResource(ctx context.Context, resource string) error {
	_, err := c.do(ctx, http.MethodDelete, "/"+url.PathEscape(resource), nil)
	return err
}

// GetSchema fetches the index mapping as opaque JSON.
func (c *Client) GetSchema(ctx context.Context, resource string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/"+url.PathEscape(resource)+"/_mapping", nil)
}

// GetConfig fetches the index settings as opaque JSON.
func (c *Client) GetConfig(ctx context.Context, resource string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/"+url.PathEscape(resource)+"/_settings", nil)
}
