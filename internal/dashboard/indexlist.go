package dashboard

import (
	"fmt"
	"strings"

	"github.com/smileynet/escope/internal/browser"
)

// CursorMarker is the prefix shown on the row under the cursor.
const CursorMarker = "▸ "

// indexListState manages the index catalog, cursor, and loading/error
// states for the left pane.
type indexListState struct {
	indices []browser.Resource
	cursor  int
	loading bool
	err     error
}

// newIndexListState returns an indexListState in the loading state.
func newIndexListState() indexListState {
	return indexListState{loading: true}
}

// applyList applies a fetched catalog (or error), clearing the loading
// indicator. The cursor is clamped, not reset, so a directory refresh
// does not jump the user back to the top.
func (il indexListState) applyList(indices []browser.Resource, err error) indexListState {
	il.loading = false
	if err != nil {
		il.err = err
		il.indices = nil
		il.cursor = 0
		return il
	}
	il.err = nil
	il.indices = append([]browser.Resource(nil), indices...)
	if il.cursor >= len(il.indices) {
		il.cursor = len(il.indices) - 1
	}
	if il.cursor < 0 {
		il.cursor = 0
	}
	return il
}

// moveCursor moves the cursor by delta with wraparound.
func (il indexListState) moveCursor(delta int) indexListState {
	if len(il.indices) == 0 {
		return il
	}
	il.cursor = (il.cursor + delta + len(il.indices)) % len(il.indices)
	return il
}

// SelectedName returns the index name at the cursor, or "" if the list
// is empty or still loading.
func (il indexListState) SelectedName() string {
	if len(il.indices) == 0 || il.cursor < 0 || il.cursor >= len(il.indices) {
		return ""
	}
	return il.indices[il.cursor].Name
}

// View renders the index list for the given dimensions. spinnerView is
// the current spinner frame (empty when the spinner is inactive).
// active is the name of the currently opened index.
func (il indexListState) View(width int, spinnerView, active string) string {
	if il.loading {
		return fmt.Sprintf("%s Loading indices...", spinnerView)
	}

	if il.err != nil {
		return fmt.Sprintf("Error: %s\n\nPress r to retry", il.err)
	}

	if len(il.indices) == 0 {
		return "No indices. Press N to create one"
	}

	var b strings.Builder
	for i, idx := range il.indices {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i == il.cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}

		line := fmt.Sprintf("%s %s", HealthBadge(idx.Health), idx.Name)
		meta := fmt.Sprintf(" %d docs · %s", idx.DocsCount, idx.StorageSize)
		if idx.Status == "close" {
			meta = " closed"
		}
		line += mutedText.Render(meta)
		if idx.Name == active {
			line += activeTab.Render(" •")
		}
		b.WriteString(line)
	}
	return b.String()
}
