package dashboard

import "github.com/charmbracelet/bubbles/key"

// browseKeys holds key bindings for browse mode.
type browseKeys struct {
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Tab       key.Binding
	NextView  key.Binding
	PrevView  key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Sort      key.Binding
	Order     key.Binding
	Select    key.Binding
	SelectAll key.Binding
	AddDoc    key.Binding
	Delete    key.Binding
	ClearAll  key.Binding
	NewIndex  key.Binding
	DropIndex key.Binding
	EditQuery key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

// ShortHelp returns the browse mode bindings for the help bar.
func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Tab, k.NextView, k.Select, k.Delete, k.Refresh, k.Quit}
}

// FullHelp returns the browse mode bindings grouped for expanded help.
func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Tab},
		{k.NextView, k.PrevView, k.NextPage, k.PrevPage},
		{k.Sort, k.Order, k.Select, k.SelectAll},
		{k.AddDoc, k.Delete, k.ClearAll, k.EditQuery},
		{k.NewIndex, k.DropIndex, k.Refresh, k.Quit},
	}
}

// editorKeys holds key bindings shown while an editor overlay is open.
type editorKeys struct {
	Submit key.Binding
	Cancel key.Binding
	Field  key.Binding
}

// ShortHelp returns the editor bindings for the help bar.
func (k editorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Field, k.Cancel}
}

// FullHelp returns the editor bindings grouped for expanded help.
func (k editorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.Field, k.Cancel}}
}

// confirmKeys holds key bindings for the confirmation overlay.
type confirmKeys struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns the confirm bindings for the help bar.
func (k confirmKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns the confirm bindings grouped for expanded help.
func (k confirmKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// BrowseKeyMap returns the key bindings for browse mode.
func BrowseKeyMap() browseKeys {
	return browseKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open index"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		NextView: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next tab"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev tab"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p", "prev page"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle sort field"),
		),
		Order: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "flip sort order"),
		),
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select row"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "select page"),
		),
		AddDoc: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add document"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear all docs"),
		),
		NewIndex: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new index"),
		),
		DropIndex: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete index"),
		),
		EditQuery: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit query"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// EditorKeyMap returns the key bindings for editor overlays.
func EditorKeyMap() editorKeys {
	return editorKeys{
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		Field: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ConfirmKeyMap returns the key bindings for the confirmation overlay.
func ConfirmKeyMap() confirmKeys {
	return confirmKeys{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}
