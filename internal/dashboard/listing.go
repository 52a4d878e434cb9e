package dashboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"github.com/smileynet/escope/internal/browser"
)

// maxFieldColumns caps how many document fields the listing shows;
// anything beyond that is elided rather than squeezed unreadably.
const maxFieldColumns = 4

// selMarker marks a selected row in the table's first column.
const selMarker = "✓"

// fieldColumns returns the field names shown for a row set: the union
// of keys across rows, sorted, capped at maxFieldColumns.
func fieldColumns(rows []browser.Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r.Fields {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	if len(cols) > maxFieldColumns {
		cols = cols[:maxFieldColumns]
	}
	return cols
}

// formatFieldValue renders one field value for a table cell.
func formatFieldValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// buildTable constructs the listing table for a row set: a selection
// marker column, the document id, then the field columns, sized to fit
// the given width.
func buildTable(rows []browser.Row, fields []string, isSelected func(string) bool, width, height int) table.Model {
	idWidth := 18
	markWidth := 2
	fieldWidth := 12
	if n := len(fields); n > 0 {
		fieldWidth = (width - idWidth - markWidth - 2) / n
		if fieldWidth < 6 {
			fieldWidth = 6
		}
	}

	columns := []table.Column{
		{Title: " ", Width: markWidth},
		{Title: "_id", Width: idWidth},
	}
	for _, f := range fields {
		columns = append(columns, table.Column{Title: f, Width: fieldWidth})
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		mark := " "
		if isSelected(r.ID) {
			mark = selMarker
		}
		cells := []string{mark, r.ID}
		for _, f := range fields {
			cells = append(cells, formatFieldValue(r.Fields[f]))
		}
		tableRows = append(tableRows, table.Row(cells))
	}

	if height < 3 {
		height = 3
	}
	return table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
}

// nextSortField cycles the sort field through the listing's columns:
// none -> first field -> ... -> last field -> none.
func nextSortField(current string, fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	if current == "" {
		return fields[0]
	}
	for i, f := range fields {
		if f == current {
			if i+1 < len(fields) {
				return fields[i+1]
			}
			return ""
		}
	}
	return fields[0]
}

// listingFooter summarizes pagination, hit counts, selection, and sort
// for the documents/search footer line.
func listingFooter(ps browser.PageState, total, selected int, sortField string, order browser.SortOrder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "page %d/%d · %d hits", ps.Page, ps.MaxPage(total), total)
	if selected > 0 {
		fmt.Fprintf(&b, " · %d selected", selected)
	}
	if sortField != "" {
		arrow := "↑"
		if order == browser.SortDesc {
			arrow = "↓"
		}
		fmt.Fprintf(&b, " · sort %s%s", sortField, arrow)
	}
	return mutedText.Render(b.String())
}
