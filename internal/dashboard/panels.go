package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smileynet/escope/internal/browser"
)

// tabLabels maps view IDs to the labels shown in the tab bar.
var tabLabels = map[browser.ViewID]string{
	browser.ViewOverview:  "Overview",
	browser.ViewDocuments: "Documents",
	browser.ViewSearch:    "Search",
	browser.ViewMappings:  "Mappings",
	browser.ViewSettings:  "Settings",
}

// viewTabBar renders the view tabs for the active index. The loading
// view gets the spinner frame, errored views get a "!" marker.
func viewTabBar(s *browser.Session, spinnerView string) string {
	parts := make([]string, 0, len(browser.Views))
	for _, v := range browser.Views {
		label := tabLabels[v]
		switch s.State(v) {
		case browser.TabLoading:
			label += " " + spinnerView
		case browser.TabError:
			label += " " + errorText.Render("!")
		}
		if v == s.ActiveView() {
			parts = append(parts, activeTab.Render("["+label+"]"))
		} else {
			parts = append(parts, dimTab.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, " ")
}

// overviewPanel renders the overview view from its cached snapshot.
func overviewPanel(data browser.OverviewData) string {
	r := data.Resource
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", HealthBadge(r.Health), r.Name)
	fmt.Fprintf(&b, "  Status     %s\n", r.Status)
	fmt.Fprintf(&b, "  Documents  %d", r.DocsCount)
	if r.DocsDeleted > 0 {
		fmt.Fprintf(&b, " (%d deleted)", r.DocsDeleted)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  Shards     %d primary / %d replica\n", r.PrimaryShards, r.ReplicaShards)
	fmt.Fprintf(&b, "  Size       %s", r.StorageSize)
	return b.String()
}

// schemaPanel pretty-prints the raw mappings or settings JSON for the
// viewport.
func schemaPanel(data browser.SchemaData) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data.Raw, "", "  "); err != nil {
		return string(data.Raw)
	}
	return buf.String()
}

// stalenessLine returns a marker line for a view whose cache entry is
// present but no longer current, or "" when the entry is fresh.
func stalenessLine(e browser.CacheEntry, ok bool) string {
	if !ok || e.Loaded {
		return ""
	}
	return staleText.Render("refreshing...")
}
