package dashboard

import (
	"fmt"
	"strings"

	"github.com/smileynet/escope/internal/browser"
)

// confirmState holds the data for the destructive-action confirmation
// screen. kind selects the prompt; ids is set for document deletion.
type confirmState struct {
	kind     browser.MutationKind
	resource string
	ids      []string
	docCount int // document count of the index, clear-all and delete
}

// View renders the confirmation screen.
func (cs confirmState) View() string {
	var b strings.Builder

	switch cs.kind {
	case browser.MutDeleteDocuments:
		noun := "documents"
		if len(cs.ids) == 1 {
			noun = "document"
		}
		fmt.Fprintf(&b, "Delete %d %s from %s?\n", len(cs.ids), noun, cs.resource)
		shown := cs.ids
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, id := range shown {
			fmt.Fprintf(&b, "\n  %s", id)
		}
		if extra := len(cs.ids) - len(shown); extra > 0 {
			fmt.Fprintf(&b, "\n  ...and %d more", extra)
		}

	case browser.MutClearAll:
		fmt.Fprintf(&b, "Delete ALL documents in %s?\n", cs.resource)
		if cs.docCount > 0 {
			fmt.Fprintf(&b, "\n  %d documents will be removed.", cs.docCount)
		}
		b.WriteString("\n  This cannot be undone.")

	case browser.MutDeleteResource:
		fmt.Fprintf(&b, "Delete index %s?\n", cs.resource)
		if cs.docCount > 0 {
			fmt.Fprintf(&b, "\n  The index and its %d documents will be gone.", cs.docCount)
		} else {
			b.WriteString("\n  The index and all its data will be gone.")
		}
		b.WriteString("\n  This cannot be undone.")

	default:
		fmt.Fprintf(&b, "Proceed with %s on %s?", cs.kind, cs.resource)
	}

	b.WriteString("\n\n  [Enter] Confirm   [Esc] Cancel")
	return b.String()
}
