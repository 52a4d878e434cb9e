package dashboard

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/escope/internal/browser"
	"github.com/smileynet/escope/internal/es"
)

// Mode represents the current dashboard input mode.
type Mode int

const (
	ModeBrowse    Mode = iota // Two-pane browsing, keys go to the panes.
	ModeConfirm               // Destructive action pending confirmation.
	ModeQueryEdit             // Search query editor overlay open.
	ModeDocEdit               // New document editor overlay open.
	ModeIndexEdit             // New index editor overlay open.
)

// Focus represents which pane has keyboard focus.
type Focus int

const (
	PaneLeft  Focus = iota // Index list has focus.
	PaneRight              // View tabs and content have focus.
)

// helpBarHeight is the number of lines reserved for the help bar.
const helpBarHeight = 1

// statusBarHeight is the number of lines reserved for the status line.
const statusBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// Model is the root Bubble Tea model for the escope dashboard. It owns
// the browser.Session and is the only place its directives are turned
// into backend calls.
type Model struct {
	session *browser.Session
	backend Collaborator

	mode   Mode
	focus  Focus
	width  int
	height int

	keys    browseKeys
	help    help.Model
	spinner spinner.Model

	list indexListState

	tbl    table.Model
	fields []string

	viewport viewport.Model

	confirm confirmState
	queryEd queryEditorState
	docEd   docEditorState
	indexEd indexEditorState

	health    es.ClusterHealth
	healthErr error
	status    string
}

// NewModel creates a dashboard Model in browse mode with left-pane
// focus, ready to list the cluster's indices.
func NewModel(backend Collaborator) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		session:  browser.NewSession(),
		backend:  backend,
		mode:     ModeBrowse,
		focus:    PaneLeft,
		keys:     BrowseKeyMap(),
		help:     help.New(),
		spinner:  sp,
		list:     newIndexListState(),
		viewport: viewport.New(0, 0),
	}
}

// Init starts the spinner, the initial catalog fetch, and the cluster
// health check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, listIndices(m.backend), checkHealth(m.backend))
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		_, rightWidth := PaneWidths(msg.Width)
		vpWidth := rightWidth - borderChrome
		if vpWidth < 0 {
			vpWidth = 0
		}
		m.viewport.Width = vpWidth
		m.viewport.Height = m.contentHeight() - 2
		m = m.rebuildTable()
		m = m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case IndicesMsg:
		m.list = m.list.applyList(msg.Resources, msg.Err)
		if msg.Err == nil {
			m.session.ResourcesRefreshed(msg.Resources)
		}
		return m, nil

	case HealthMsg:
		m.health = msg.Health
		m.healthErr = msg.Err
		return m, nil

	case FetchDoneMsg:
		return m.applyFetch(msg)

	case MutationDoneMsg:
		return m.applyMutation(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyFetch feeds a fetch completion to the session and refreshes
// whatever the result made visible. Superseded completions change
// nothing.
func (m Model) applyFetch(msg FetchDoneMsg) (tea.Model, tea.Cmd) {
	outcome := m.session.ApplyFetch(msg.Req, msg.Res, msg.Err)
	if outcome != browser.FetchApplied {
		return m, nil
	}
	if msg.Req.Resource != m.session.ActiveResource() {
		return m, nil
	}
	switch {
	case msg.Req.View.IsListing():
		m = m.rebuildTable()
	case msg.Req.View == browser.ViewMappings || msg.Req.View == browser.ViewSettings:
		m = m.refreshViewport()
	}
	return m, nil
}

// applyMutation feeds a mutation completion to the session and executes
// the follow-up directives it returns.
func (m Model) applyMutation(msg MutationDoneMsg) (tea.Model, tea.Cmd) {
	out := m.session.ApplyMutation(msg.Req, msg.Deleted, msg.Err)

	var cmds []tea.Cmd
	if out.Next != nil {
		cmds = append(cmds, runMutation(m.backend, *out.Next))
	}
	if out.Err != nil {
		m.status = errorText.Render(fmt.Sprintf("%s failed: %v", msg.Req.Kind, out.Err))
		return m, tea.Batch(cmds...)
	}

	for _, req := range out.Refetch {
		cmds = append(cmds, m.dispatchFetch(req))
	}
	if out.RefreshDir {
		cmds = append(cmds, listIndices(m.backend))
	}
	if out.Deselect {
		m.focus = PaneLeft
	}

	switch msg.Req.Kind {
	case browser.MutCreateDocument:
		m.status = "document created"
	case browser.MutDeleteDocuments:
		if out.Shortfall > 0 {
			m.status = fmt.Sprintf("deleted %d documents (%d already gone)", out.Deleted, out.Shortfall)
		} else {
			m.status = fmt.Sprintf("deleted %d documents", out.Deleted)
		}
	case browser.MutClearAll:
		m.status = fmt.Sprintf("cleared %d documents", out.Deleted)
	case browser.MutCreateResource:
		m.status = fmt.Sprintf("index %s created", msg.Req.Resource)
	case browser.MutDeleteResource:
		m.status = fmt.Sprintf("index %s deleted", msg.Req.Resource)
	}

	m = m.rebuildTable()
	return m, tea.Batch(cmds...)
}

// handleKey routes key messages by mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	case ModeQueryEdit:
		return m.handleQueryEditKey(msg)
	case ModeDocEdit:
		return m.handleDocEditKey(msg)
	case ModeIndexEdit:
		return m.handleIndexEditKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		if m.focus == PaneLeft {
			m.focus = PaneRight
		} else {
			m.focus = PaneLeft
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		cmds := []tea.Cmd{listIndices(m.backend), checkHealth(m.backend)}
		if req, ok := m.session.Refresh(m.session.ActiveView()); ok {
			cmds = append(cmds, m.dispatchFetch(req))
		}
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.NewIndex):
		m.mode = ModeIndexEdit
		m.indexEd = newIndexEditor()
		return m, nil
	}

	if m.focus == PaneLeft {
		return m.handleListKey(msg)
	}
	return m.handleContentKey(msg)
}

// handleListKey processes keys while the index list has focus.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.list = m.list.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.list = m.list.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		name := m.list.SelectedName()
		if name == "" {
			return m, nil
		}
		var cmd tea.Cmd
		if req, ok := m.session.SelectResource(name); ok {
			cmd = m.dispatchFetch(req)
		}
		m.focus = PaneRight
		m = m.rebuildTable()
		m = m.refreshViewport()
		return m, cmd

	case key.Matches(msg, m.keys.DropIndex):
		name := m.list.SelectedName()
		if name == "" {
			return m, nil
		}
		var cmd tea.Cmd
		if req, ok := m.session.SelectResource(name); ok {
			cmd = m.dispatchFetch(req)
		}
		m.mode = ModeConfirm
		m.confirm = m.confirmFor(browser.MutDeleteResource, nil)
		return m, cmd
	}
	return m, nil
}

// handleContentKey processes keys while the right pane has focus.
func (m Model) handleContentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := m.session.ActiveResource()
	if active == "" {
		return m, nil
	}
	view := m.session.ActiveView()

	switch {
	case key.Matches(msg, m.keys.NextView):
		return m.cycleView(1)

	case key.Matches(msg, m.keys.PrevView):
		return m.cycleView(-1)

	case key.Matches(msg, m.keys.NextPage):
		return m.changePage(1)

	case key.Matches(msg, m.keys.PrevPage):
		return m.changePage(-1)

	case key.Matches(msg, m.keys.Sort):
		if !view.IsListing() {
			return m, nil
		}
		ps := m.session.PageStateFor(view)
		field := nextSortField(ps.SortField, m.fields)
		// A fresh field always starts ascending.
		order := browser.SortAsc
		if field == "" {
			order = ""
		}
		if req, ok := m.session.SetSort(field, order); ok {
			return m, m.dispatchFetch(req)
		}
		return m, nil

	case key.Matches(msg, m.keys.Order):
		if !view.IsListing() {
			return m, nil
		}
		ps := m.session.PageStateFor(view)
		if ps.SortField == "" {
			return m, nil
		}
		order := browser.SortAsc
		if ps.SortOrder != browser.SortDesc {
			order = browser.SortDesc
		}
		if req, ok := m.session.SetSort(ps.SortField, order); ok {
			return m, m.dispatchFetch(req)
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if !view.IsListing() {
			return m, nil
		}
		row := m.tbl.SelectedRow()
		if len(row) > 1 {
			m.session.ToggleRow(row[1])
			m = m.rebuildTable()
		}
		return m, nil

	case key.Matches(msg, m.keys.SelectAll):
		if !view.IsListing() {
			return m, nil
		}
		m.session.ToggleAllRows()
		m = m.rebuildTable()
		return m, nil

	case key.Matches(msg, m.keys.AddDoc):
		m.mode = ModeDocEdit
		m.docEd = newDocEditor(m.overlayWidth())
		return m, nil

	case key.Matches(msg, m.keys.EditQuery):
		m.mode = ModeQueryEdit
		m.queryEd = newQueryEditor(m.session.QueryText(), m.overlayWidth())
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if !view.IsListing() || m.session.SelectionLen() == 0 {
			return m, nil
		}
		m.mode = ModeConfirm
		m.confirm = m.confirmFor(browser.MutDeleteDocuments, m.session.SelectedIDs())
		return m, nil

	case key.Matches(msg, m.keys.ClearAll):
		m.mode = ModeConfirm
		m.confirm = m.confirmFor(browser.MutClearAll, nil)
		return m, nil

	case key.Matches(msg, m.keys.DropIndex):
		m.mode = ModeConfirm
		m.confirm = m.confirmFor(browser.MutDeleteResource, nil)
		return m, nil
	}

	// Remaining keys scroll the table or the schema viewport.
	var cmd tea.Cmd
	if view.IsListing() {
		m.tbl, cmd = m.tbl.Update(msg)
	} else if view == browser.ViewMappings || view == browser.ViewSettings {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// confirmFor builds the confirmation state for a destructive mutation
// on the active index.
func (m Model) confirmFor(kind browser.MutationKind, ids []string) confirmState {
	active := m.session.ActiveResource()
	cs := confirmState{kind: kind, resource: active, ids: ids}
	if r, ok := m.session.Resource(active); ok {
		cs.docCount = r.DocsCount
	}
	return cs
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeBrowse
		return m, nil
	case "enter":
		m.mode = ModeBrowse
		var req browser.MutationRequest
		var started bool
		var err error
		switch m.confirm.kind {
		case browser.MutDeleteDocuments:
			req, started, err = m.session.DeleteDocuments(m.confirm.ids)
		case browser.MutClearAll:
			req, started, err = m.session.ClearAllDocuments()
		case browser.MutDeleteResource:
			req, started, err = m.session.DeleteResource()
		}
		if err != nil {
			m.status = errorText.Render(err.Error())
			return m, nil
		}
		if !started {
			m.status = "change queued behind another one"
			return m, nil
		}
		return m, runMutation(m.backend, req)
	}
	return m, nil
}

func (m Model) handleQueryEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	qe, done, cmd := m.queryEd.Update(msg)
	m.queryEd = qe
	switch done {
	case editorCancel:
		m.mode = ModeBrowse
		return m, nil
	case editorSubmit:
		m.session.SetQueryText(m.queryEd.Value())
		// Validate before touching the visible view: a rejected query
		// must leave the session exactly as it was.
		if _, err := m.session.Search(); err != nil {
			m.queryEd.err = err.Error()
			return m, nil
		}
		// Search invalidated the slot, so the activation reissues the
		// fetch with a newer sequence; dispatch that one.
		req, fetch := m.session.ActivateView(browser.ViewSearch)
		m.mode = ModeBrowse
		m.focus = PaneRight
		if !fetch {
			return m, nil
		}
		return m, m.dispatchFetch(req)
	}
	return m, cmd
}

func (m Model) handleDocEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	de, done, cmd := m.docEd.Update(msg)
	m.docEd = de
	switch done {
	case editorCancel:
		m.mode = ModeBrowse
		return m, nil
	case editorSubmit:
		req, started, err := m.session.CreateDocument(m.docEd.id.Value(), m.docEd.body.Value())
		if err != nil {
			m.docEd.err = err.Error()
			return m, nil
		}
		m.mode = ModeBrowse
		if !started {
			m.status = "change queued behind another one"
			return m, nil
		}
		return m, runMutation(m.backend, req)
	}
	return m, cmd
}

func (m Model) handleIndexEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ie, done, cmd := m.indexEd.Update(msg)
	m.indexEd = ie
	switch done {
	case editorCancel:
		m.mode = ModeBrowse
		return m, nil
	case editorSubmit:
		name, shards, replicas := m.indexEd.Values()
		req, started, err := m.session.CreateResource(name, shards, replicas)
		if err != nil {
			m.indexEd.err = err.Error()
			return m, nil
		}
		m.mode = ModeBrowse
		if !started {
			m.status = "change queued behind another one"
			return m, nil
		}
		return m, runMutation(m.backend, req)
	}
	return m, cmd
}

// cycleView moves to the next or previous view tab.
func (m Model) cycleView(delta int) (tea.Model, tea.Cmd) {
	cur := m.session.ActiveView()
	idx := 0
	for i, v := range browser.Views {
		if v == cur {
			idx = i
			break
		}
	}
	next := browser.Views[(idx+delta+len(browser.Views))%len(browser.Views)]

	var cmd tea.Cmd
	if req, ok := m.session.ActivateView(next); ok {
		cmd = m.dispatchFetch(req)
	}
	m = m.rebuildTable()
	m = m.refreshViewport()
	return m, cmd
}

// changePage moves the active listing view one page in either
// direction, staying within the known result range.
func (m Model) changePage(delta int) (tea.Model, tea.Cmd) {
	view := m.session.ActiveView()
	if !view.IsListing() {
		return m, nil
	}
	ps := m.session.PageStateFor(view)
	target := ps.Page + delta
	if target < 1 || target > ps.MaxPage(m.totalHits(view)) {
		return m, nil
	}
	if req, ok := m.session.SetPage(target); ok {
		return m, m.dispatchFetch(req)
	}
	return m, nil
}

// dispatchFetch turns a fetch directive into the tea.Cmd that executes
// it. Overview directives resolve from the directory snapshot.
func (m Model) dispatchFetch(req browser.FetchRequest) tea.Cmd {
	if req.View == browser.ViewOverview {
		var snapshot *browser.Resource
		if r, ok := m.session.Resource(req.Resource); ok {
			snapshot = &r
		}
		return resolveOverview(m.backend, req, snapshot)
	}
	return runFetch(m.backend, req)
}

// --- derived display state ---

// rowsFor returns the cached rows of a listing view of the active
// index, loaded or stale.
func (m Model) rowsFor(view browser.ViewID) []browser.Row {
	e, ok := m.session.Entry(view)
	if !ok {
		return nil
	}
	switch d := e.Data.(type) {
	case browser.DocsData:
		return d.Rows
	case browser.SearchData:
		return d.Rows
	default:
		return nil
	}
}

// totalHits returns the cached hit total of a listing view.
func (m Model) totalHits(view browser.ViewID) int {
	e, ok := m.session.Entry(view)
	if !ok {
		return 0
	}
	switch d := e.Data.(type) {
	case browser.DocsData:
		return d.TotalHits
	case browser.SearchData:
		return d.TotalHits
	default:
		return 0
	}
}

// rebuildTable regenerates the listing table from the cached rows of
// the active listing view, preserving the cursor position.
func (m Model) rebuildTable() Model {
	view := m.session.ActiveView()
	if !view.IsListing() {
		return m
	}
	rows := m.rowsFor(view)
	m.fields = fieldColumns(rows)
	cursor := m.tbl.Cursor()

	_, rightWidth := PaneWidths(m.width)
	height := m.contentHeight() - 4
	m.tbl = buildTable(rows, m.fields, m.session.IsSelected, rightWidth-borderChrome, height)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor > 0 {
		m.tbl.SetCursor(cursor)
	}
	return m
}

// refreshViewport loads the active schema view's JSON into the
// viewport.
func (m Model) refreshViewport() Model {
	view := m.session.ActiveView()
	if view != browser.ViewMappings && view != browser.ViewSettings {
		return m
	}
	e, ok := m.session.Entry(view)
	if !ok {
		return m
	}
	if data, isSchema := e.Data.(browser.SchemaData); isSchema {
		m.viewport.SetContent(schemaPanel(data))
	}
	return m
}

// overlayWidth is the text width available to editor overlays.
func (m Model) overlayWidth() int {
	_, rightWidth := PaneWidths(m.width)
	w := rightWidth - borderChrome - 2
	if w < 20 {
		w = 20
	}
	return w
}

// contentHeight returns the usable height for pane content.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - helpBarHeight - statusBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// --- rendering ---

// View renders the two-pane layout with the status and help bars.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	leftWidth, rightWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()

	var leftStyle, rightStyle lipgloss.Style
	if m.focus == PaneLeft && m.mode == ModeBrowse {
		leftStyle = FocusedBorder()
		rightStyle = UnfocusedBorder()
	} else {
		leftStyle = UnfocusedBorder()
		rightStyle = FocusedBorder()
	}

	leftStyle = leftStyle.
		Width(leftWidth - borderChrome).
		Height(contentHeight)
	rightStyle = rightStyle.
		Width(rightWidth - borderChrome).
		Height(contentHeight)

	spinnerView := ""
	if m.list.loading {
		spinnerView = m.spinner.View()
	}
	leftPane := leftStyle.Render(m.list.View(leftWidth-borderChrome, spinnerView, m.session.ActiveResource()))
	rightPane := rightStyle.Render(m.viewRight())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	helpView := m.help.View(m.helpBindings())
	return lipgloss.JoinVertical(lipgloss.Left, panes, m.statusLine(), helpView)
}

// statusLine renders the cluster health summary and the last action
// message.
func (m Model) statusLine() string {
	var cluster string
	switch {
	case m.healthErr != nil:
		cluster = errorText.Render("cluster unreachable")
	case m.health.ClusterName != "":
		cluster = fmt.Sprintf("%s %s", HealthBadge(m.health.Status), m.health.ClusterName)
		if m.health.UnassignedShards > 0 {
			cluster += mutedText.Render(fmt.Sprintf(" (%d unassigned)", m.health.UnassignedShards))
		}
	}
	if m.status == "" {
		return cluster
	}
	if cluster == "" {
		return mutedText.Render(m.status)
	}
	return cluster + "  " + mutedText.Render(m.status)
}

// helpBindings returns the help bar content for the current mode.
func (m Model) helpBindings() help.KeyMap {
	switch m.mode {
	case ModeConfirm:
		return ConfirmKeyMap()
	case ModeQueryEdit, ModeDocEdit, ModeIndexEdit:
		return EditorKeyMap()
	default:
		return m.keys
	}
}

// viewRight renders the right pane content: an overlay when one is
// open, otherwise the active index's tabbed view.
func (m Model) viewRight() string {
	switch m.mode {
	case ModeConfirm:
		return m.confirm.View()
	case ModeQueryEdit:
		return m.queryEd.View()
	case ModeDocEdit:
		return m.docEd.View()
	case ModeIndexEdit:
		return m.indexEd.View()
	}

	if m.session.ActiveResource() == "" {
		return mutedText.Render("Select an index and press enter")
	}

	header := viewTabBar(m.session, m.spinner.View())
	return header + "\n\n" + m.viewContent()
}

// viewContent renders the active view below the tab bar.
func (m Model) viewContent() string {
	view := m.session.ActiveView()
	e, ok := m.session.Entry(view)
	state := m.session.State(view)

	if state == browser.TabError && !ok {
		return errorText.Render("Error: "+m.session.ErrMsg(view)) + "\n\nPress r to retry"
	}
	if !ok {
		return m.spinner.View() + " Loading..."
	}

	var body string
	switch view {
	case browser.ViewOverview:
		if data, isOverview := e.Data.(browser.OverviewData); isOverview {
			body = overviewPanel(data)
		}

	case browser.ViewDocuments, browser.ViewSearch:
		body = m.tbl.View()
		ps := m.session.PageStateFor(view)
		footer := listingFooter(ps, m.totalHits(view), m.session.SelectionLen(), ps.SortField, ps.SortOrder)
		body += "\n" + footer
		if view == browser.ViewSearch {
			if q := m.session.QueryText(); q != "" {
				body += "\n" + mutedText.Render("query: "+q)
			}
		}

	case browser.ViewMappings, browser.ViewSettings:
		body = m.viewport.View()
	}

	var markers []string
	if line := stalenessLine(e, ok); line != "" {
		markers = append(markers, line)
	}
	if state == browser.TabError {
		markers = append(markers, errorText.Render("Error: "+m.session.ErrMsg(view)))
	}
	for _, marker := range markers {
		body = marker + "\n" + body
	}
	return body
}
