package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Editor overlays capture all key input while open. Each one's Update
// returns the advanced state plus a done flag; the model reads the
// entered values off the state when done is editorSubmit.

// editorDone signals how an editor overlay was closed.
type editorDone int

const (
	editorOpen editorDone = iota
	editorSubmit
	editorCancel
)

// --- search query editor ---

// queryEditorState edits the search view's query body.
type queryEditorState struct {
	body textarea.Model
	err  string // last validation error, shown inline
}

func newQueryEditor(text string, width int) queryEditorState {
	ta := textarea.New()
	ta.Placeholder = `{"match": {"field": "value"}}`
	ta.SetValue(text)
	ta.SetWidth(width)
	ta.SetHeight(8)
	ta.Focus()
	return queryEditorState{body: ta}
}

func (qe queryEditorState) Update(msg tea.Msg) (queryEditorState, editorDone, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s":
			return qe, editorSubmit, nil
		case "esc":
			return qe, editorCancel, nil
		}
	}
	var cmd tea.Cmd
	qe.body, cmd = qe.body.Update(msg)
	return qe, editorOpen, cmd
}

func (qe queryEditorState) Value() string {
	return qe.body.Value()
}

func (qe queryEditorState) View() string {
	var b strings.Builder
	b.WriteString("Search query (JSON body, empty for match-all)\n\n")
	b.WriteString(qe.body.View())
	if qe.err != "" {
		b.WriteString("\n\n" + errorText.Render(qe.err))
	}
	b.WriteString("\n\n  [Ctrl+S] Search   [Esc] Cancel")
	return b.String()
}

// --- new document editor ---

// docEditorState edits a new document: an optional id and a JSON body.
type docEditorState struct {
	id    textinput.Model
	body  textarea.Model
	focus int // 0 = id, 1 = body
	err   string
}

func newDocEditor(width int) docEditorState {
	id := textinput.New()
	id.Placeholder = "auto-generated"
	id.CharLimit = 512
	id.Width = 40

	body := textarea.New()
	body.Placeholder = `{"field": "value"}`
	body.SetWidth(width)
	body.SetHeight(10)

	id.Focus()
	return docEditorState{id: id, body: body}
}

func (de docEditorState) Update(msg tea.Msg) (docEditorState, editorDone, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s":
			return de, editorSubmit, nil
		case "esc":
			return de, editorCancel, nil
		case "tab":
			de.focus = (de.focus + 1) % 2
			if de.focus == 0 {
				de.body.Blur()
				return de, editorOpen, de.id.Focus()
			}
			de.id.Blur()
			return de, editorOpen, de.body.Focus()
		}
	}
	var cmd tea.Cmd
	if de.focus == 0 {
		de.id, cmd = de.id.Update(msg)
	} else {
		de.body, cmd = de.body.Update(msg)
	}
	return de, editorOpen, cmd
}

func (de docEditorState) View() string {
	var b strings.Builder
	b.WriteString("New document\n\n")
	fmt.Fprintf(&b, "ID\n%s\n\n", de.id.View())
	fmt.Fprintf(&b, "Body\n%s", de.body.View())
	if de.err != "" {
		b.WriteString("\n\n" + errorText.Render(de.err))
	}
	b.WriteString("\n\n  [Ctrl+S] Create   [Tab] Next field   [Esc] Cancel")
	return b.String()
}

// --- new index editor ---

// indexEditorState edits the parameters of a new index.
type indexEditorState struct {
	name     textinput.Model
	shards   textinput.Model
	replicas textinput.Model
	focus    int // 0 = name, 1 = shards, 2 = replicas
	err      string
}

func newIndexEditor() indexEditorState {
	name := textinput.New()
	name.Placeholder = "index name"
	name.CharLimit = 255
	name.Width = 40

	shards := textinput.New()
	shards.SetValue("1")
	shards.CharLimit = 4
	shards.Width = 6

	replicas := textinput.New()
	replicas.SetValue("1")
	replicas.CharLimit = 4
	replicas.Width = 6

	name.Focus()
	return indexEditorState{name: name, shards: shards, replicas: replicas}
}

func (ie indexEditorState) Update(msg tea.Msg) (indexEditorState, editorDone, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s", "enter":
			return ie, editorSubmit, nil
		case "esc":
			return ie, editorCancel, nil
		case "tab":
			ie.focus = (ie.focus + 1) % 3
			ie.name.Blur()
			ie.shards.Blur()
			ie.replicas.Blur()
			switch ie.focus {
			case 0:
				return ie, editorOpen, ie.name.Focus()
			case 1:
				return ie, editorOpen, ie.shards.Focus()
			default:
				return ie, editorOpen, ie.replicas.Focus()
			}
		}
	}
	var cmd tea.Cmd
	switch ie.focus {
	case 0:
		ie.name, cmd = ie.name.Update(msg)
	case 1:
		ie.shards, cmd = ie.shards.Update(msg)
	default:
		ie.replicas, cmd = ie.replicas.Update(msg)
	}
	return ie, editorOpen, cmd
}

// Values parses the editor fields. Non-numeric shard counts come back
// as -1 so validation downstream rejects them.
func (ie indexEditorState) Values() (name string, shards, replicas int) {
	name = strings.TrimSpace(ie.name.Value())
	shards = atoiOr(ie.shards.Value(), -1)
	replicas = atoiOr(ie.replicas.Value(), -1)
	return name, shards, replicas
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func (ie indexEditorState) View() string {
	var b strings.Builder
	b.WriteString("New index\n\n")
	fmt.Fprintf(&b, "Name\n%s\n\n", ie.name.View())
	fmt.Fprintf(&b, "Shards\n%s\n\n", ie.shards.View())
	fmt.Fprintf(&b, "Replicas\n%s", ie.replicas.View())
	if ie.err != "" {
		b.WriteString("\n\n" + errorText.Render(ie.err))
	}
	b.WriteString("\n\n  [Enter] Create   [Tab] Next field   [Esc] Cancel")
	return b.String()
}
