package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/escope/internal/browser"
	"github.com/smileynet/escope/internal/config"
	"github.com/smileynet/escope/internal/dashboard"
	"github.com/smileynet/escope/internal/es"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for escope.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`

	Connection string        `help:"Named connection from the config file." short:"c"`
	URL        string        `help:"Elasticsearch URL, overriding the config file." placeholder:"http://host:9200"`
	Insecure   bool          `help:"Skip TLS certificate verification."`
	Timeout    time.Duration `help:"Request timeout." default:"0s"`

	Browse  BrowseCmd  `cmd:"" default:"1" help:"Open the interactive index browser."`
	Indices IndicesCmd `cmd:"" help:"List the cluster's indices."`
	Health  HealthCmd  `cmd:"" help:"Show cluster health."`
	Search  SearchCmd  `cmd:"" help:"Run a search query against an index."`
}

// loadConfig loads layered config from user and project paths with env
// overrides.
func loadConfig() (*config.Config, error) {
	userPath := os.ExpandEnv("$HOME/.config/escope/config.yaml")
	cfg, err := config.LoadLayered(userPath, ".escope/config.yaml")
	if err != nil {
		return nil, err
	}
	cfg.EnsureIDs()
	// First run: persist the profiles, IDs included, so later edits
	// and layers start from a file on disk. Env overrides below are
	// per-invocation and stay out of it.
	if _, statErr := os.Stat(userPath); os.IsNotExist(statErr) {
		if err := cfg.Save(userPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// clientOptions resolves the connection the CLI flags name into client
// options. --url wins over the config file.
func clientOptions(cli *CLI) (es.Options, error) {
	cfg, err := loadConfig()
	if err != nil {
		return es.Options{}, err
	}

	timeout := cfg.Client.Timeout
	if cli.Timeout > 0 {
		timeout = cli.Timeout
	}

	if cli.URL != "" {
		return es.Options{
			BaseURL:  cli.URL,
			Auth:     es.AuthNone,
			Insecure: cli.Insecure,
			Timeout:  timeout,
		}, nil
	}

	name := cli.Connection
	if name == "" {
		name = cfg.Default
	}
	conn, err := cfg.Connection(name)
	if err != nil {
		return es.Options{}, err
	}
	return es.Options{
		BaseURL:  conn.BaseURL(),
		Auth:     es.AuthType(conn.AuthType),
		Username: conn.Username,
		Password: conn.Password,
		APIKey:   conn.APIKey,
		Insecure: conn.Insecure || cli.Insecure,
		Timeout:  timeout,
	}, nil
}

func newClient(cli *CLI) (*es.Client, error) {
	opts, err := clientOptions(cli)
	if err != nil {
		return nil, err
	}
	return es.NewClient(opts), nil
}

// --- browse ---

// BrowseCmd opens the interactive dashboard TUI.
type BrowseCmd struct{}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run opens the dashboard against the configured cluster.
func (b *BrowseCmd) Run(cli *CLI) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("browse: stdout is not a terminal (use 'escope indices' for plain output)")
	}

	client, err := newClient(cli)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	m := dashboard.NewModel(client)
	p := tea.NewProgram(m, tea.WithAltScreen())
	return b.run(p)
}

// run executes the program, enabling testable wiring.
func (b *BrowseCmd) run(p teaRunner) error {
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

// --- indices ---

// IndicesCmd lists the cluster's indices in plain text.
type IndicesCmd struct{}

// catalogLister abstracts the catalog call for testing.
type catalogLister interface {
	ListResources(ctx context.Context) ([]browser.Resource, error)
}

// Run lists the indices.
func (i *IndicesCmd) Run(cli *CLI) error {
	client, err := newClient(cli)
	if err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return i.run(ctx, os.Stdout, client)
}

func (i *IndicesCmd) run(ctx context.Context, w io.Writer, lister catalogLister) error {
	resources, err := lister.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("indices: %w", err)
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HEALTH\tSTATUS\tNAME\tDOCS\tDELETED\tPRI\tREP\tSIZE")
	for _, r := range resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Health, r.Status, r.Name, r.DocsCount, r.DocsDeleted,
			r.PrimaryShards, r.ReplicaShards, r.StorageSize)
	}
	return tw.Flush()
}

// --- health ---

// HealthCmd shows cluster health in plain text.
type HealthCmd struct{}

// healthChecker abstracts the health call for testing.
type healthChecker interface {
	Health(ctx context.Context) (es.ClusterHealth, error)
}

// Run shows the health summary.
func (h *HealthCmd) Run(cli *CLI) error {
	client, err := newClient(cli)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return h.run(ctx, os.Stdout, client)
}

func (h *HealthCmd) run(ctx context.Context, w io.Writer, checker healthChecker) error {
	health, err := checker.Health(ctx)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}

	fmt.Fprintf(w, "cluster: %s\n", health.ClusterName)
	fmt.Fprintf(w, "status:  %s\n", health.Status)
	fmt.Fprintf(w, "nodes:   %d (%d data)\n", health.NumberOfNodes, health.NumberOfDataNodes)
	fmt.Fprintf(w, "shards:  %d active, %d primary, %d relocating, %d initializing, %d unassigned\n",
		health.ActiveShards, health.ActivePrimaryShards,
		health.RelocatingShards, health.InitializingShards, health.UnassignedShards)
	if health.PendingTasks > 0 {
		fmt.Fprintf(w, "pending: %d tasks\n", health.PendingTasks)
	}
	return nil
}

// --- search ---

// SearchCmd runs one search query and prints the hits in plain text.
type SearchCmd struct {
	Index string `arg:"" help:"Index to search."`
	Query string `help:"JSON query body. Empty means match-all." short:"q"`
	Page  int    `help:"Result page." default:"1"`
	Sort  string `help:"Field to sort by."`
	Desc  bool   `help:"Sort descending."`
}

// querier abstracts query execution for testing.
type querier interface {
	ExecuteQuery(ctx context.Context, resource string, query map[string]any) (browser.Hits, error)
}

// Run executes the search.
func (s *SearchCmd) Run(cli *CLI) error {
	client, err := newClient(cli)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return s.run(ctx, os.Stdout, client)
}

func (s *SearchCmd) run(ctx context.Context, w io.Writer, q querier) error {
	body, err := browser.ParseQueryBody(s.Query)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	ps := browser.DefaultPageState()
	ps.Page = s.Page
	ps.SortField = s.Sort
	if s.Desc {
		ps.SortOrder = browser.SortDesc
	}
	query, err := browser.BuildQuery(ps, body)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	hits, err := q.ExecuteQuery(ctx, s.Index, query)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	fmt.Fprintf(w, "%d hits (page %d/%d)\n", hits.TotalHits, ps.Page, ps.MaxPage(hits.TotalHits))
	for _, row := range hits.Rows {
		fmt.Fprintf(w, "%s\t%s\n", row.ID, compactFields(row.Fields))
	}
	return nil
}

// compactFields renders a row's fields as one-line JSON for plain output.
func compactFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf("%v", fields)
	}
	return string(data)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, kong.Vars{"version": version + " " + commit + " " + date})
	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
