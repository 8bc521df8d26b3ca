package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/rules"
	"github.com/desertthunder/shelf/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AnalyzeView ViewState = iota
	DuplicateListView
	CategoryListView
	TrackListView
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	backView     ViewState
	engine       *tasks.LibraryEngine
	store        *rules.Store
	width        int
	height       int
	snapshot     []catalog.Track
	groups       []catalog.DuplicateGroup
	categorized  *rules.CategorizedCatalog
	viewCategory string
	groupList    list.Model
	categoryList list.Model
	trackList    list.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	completion   func() tea.Msg
	removal      *tasks.RemovalResult
	result       *tasks.ExecuteResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.LibraryEngine, store *rules.Store) *Model {
	return &Model{
		ctx:    ctx,
		view:   AnalyzeView,
		engine: engine,
		store:  store,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init starts the library analysis.
func (m *Model) Init() tea.Cmd {
	return m.startAnalyze()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.groupList, &m.categoryList, &m.trackList} {
			if l.Width() == 0 {
				l.SetSize(msg.Width-4, msg.Height-8)
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DuplicateListView:
			return m.handleDuplicateListKeys(msg)
		case CategoryListView:
			return m.handleCategoryListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		default:
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case analyzeDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.setSnapshot(msg.snapshot)
		if len(m.groups) > 0 {
			m.view = DuplicateListView
		} else {
			m.view = CategoryListView
		}
		return m, nil

	case cleanupDoneMsg:
		m.removal = msg.result
		if msg.err != nil {
			m.err = msg.err
			m.view = DuplicateListView
			return m, nil
		}
		m.setSnapshot(withoutRemoved(m.snapshot, msg.result))
		if len(m.groups) > 0 {
			m.view = DuplicateListView
		} else {
			m.view = CategoryListView
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForUpdate()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView && m.view != DuplicateListView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case AnalyzeView:
		return m.renderAnalyze()
	case DuplicateListView:
		return m.renderDuplicateList()
	case CategoryListView:
		return m.renderCategoryList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// setSnapshot replaces the library snapshot and rebuilds the derived state.
func (m *Model) setSnapshot(snapshot []catalog.Track) {
	m.snapshot = snapshot
	m.groups = m.engine.FindDuplicates(snapshot)
	m.categorized = rules.Categorize(snapshot, m.store.Rules())

	groupItems := make([]list.Item, len(m.groups))
	for i, g := range m.groups {
		groupItems[i] = groupItem{group: g}
	}
	m.groupList = list.New(groupItems, list.NewDefaultDelegate(), 0, 0)
	m.groupList.Title = "Duplicate Tracks"
	m.groupList.SetSize(m.width-4, m.height-8)

	m.rebuildCategoryList()
}

func (m *Model) rebuildCategoryList() {
	byCategory := m.categorized.ByCategory()
	categories := m.categorized.Categories()
	categoryItems := make([]list.Item, len(categories))
	for i, name := range categories {
		categoryItems[i] = categoryItem{name: name, count: len(byCategory[name])}
	}
	m.categoryList = list.New(categoryItems, list.NewDefaultDelegate(), 0, 0)
	m.categoryList.Title = "Categories"
	m.categoryList.SetSize(m.width-4, m.height-8)
}

func withoutRemoved(snapshot []catalog.Track, result *tasks.RemovalResult) []catalog.Track {
	removed := make(map[string]bool, result.Removed)
	for _, outcome := range result.Outcomes {
		if outcome.Err == nil {
			removed[outcome.Track.ID] = true
		}
	}
	kept := make([]catalog.Track, 0, len(snapshot))
	for _, track := range snapshot {
		if !removed[track.ID] {
			kept = append(kept, track)
		}
	}
	return kept
}

func (m *Model) showTracks(title string, tracks []catalog.Track, back ViewState) {
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{track: track}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = title
	m.trackList.SetSize(m.width-4, m.height-8)
	m.backView = back
	m.view = TrackListView
}

func (m *Model) handleDuplicateListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = CategoryListView
		return m, nil
	case "d":
		m.err = nil
		m.view = SyncView
		return m, m.startCleanup()
	case "enter":
		selected := m.groupList.SelectedItem()
		if selected != nil {
			if g, ok := selected.(groupItem); ok {
				m.viewCategory = ""
				title := fmt.Sprintf("Copies of '%s'", g.group.Key.Title)
				m.showTracks(title, g.group.Tracks, DuplicateListView)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.groupList, cmd = m.groupList.Update(msg)
	return m, cmd
}

func (m *Model) handleCategoryListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "s":
		m.view = ConfirmView
		return m, nil
	case "enter":
		selected := m.categoryList.SelectedItem()
		if selected != nil {
			if c, ok := selected.(categoryItem); ok {
				m.viewCategory = c.name
				m.showCategoryTracks()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.categoryList, cmd = m.categoryList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = m.backView
		return m, nil
	case "o":
		if m.viewCategory != "" {
			m.overrideSelected()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

// overrideSelected reassigns the selected track to the next category in rule
// order, cycling through the fallback. The override sticks across
// reclassification until discarded.
func (m *Model) overrideSelected() {
	selected, ok := m.trackList.SelectedItem().(trackItem)
	if !ok {
		return
	}

	cycle := append(m.store.Categories(), rules.FallbackCategory)
	next := cycle[0]
	for i, name := range cycle {
		if name == m.viewCategory {
			next = cycle[(i+1)%len(cycle)]
			break
		}
	}

	if err := m.categorized.Override(selected.track.ID, next); err != nil {
		m.err = err
		return
	}

	index := m.trackList.Index()
	m.rebuildCategoryList()
	m.showCategoryTracks()
	if count := len(m.trackList.Items()); count > 0 {
		if index >= count {
			index = count - 1
		}
		m.trackList.Select(index)
	}
}

// showCategoryTracks (re)opens the track list for the category under review.
func (m *Model) showCategoryTracks() {
	tracks := make([]catalog.Track, 0)
	for _, ct := range m.categorized.ByCategory()[m.viewCategory] {
		tracks = append(tracks, ct.Track)
	}
	m.showTracks(fmt.Sprintf("Tracks in '%s'", m.viewCategory), tracks, CategoryListView)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = CategoryListView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = CategoryListView
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case DuplicateListView:
		m.groupList, cmd = m.groupList.Update(msg)
	case CategoryListView:
		m.categoryList, cmd = m.categoryList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startAnalyze() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	done := make(chan analyzeDoneMsg, 1)

	go func(progress chan tasks.ProgressUpdate) {
		snapshot, err := m.engine.Analyze(m.ctx, progress)
		done <- analyzeDoneMsg{snapshot: snapshot, err: err}
		close(progress)
	}(m.progressChan)

	m.completion = func() tea.Msg { return <-done }
	return m.waitForUpdate()
}

func (m *Model) startCleanup() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	done := make(chan cleanupDoneMsg, 1)

	go func(progress chan tasks.ProgressUpdate) {
		result := m.engine.RemoveDuplicates(m.ctx, progress, m.groups)
		done <- cleanupDoneMsg{result: result}
		close(progress)
	}(m.progressChan)

	m.completion = func() tea.Msg { return <-done }
	return m.waitForUpdate()
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	done := make(chan syncCompleteMsg, 1)

	go func(progress chan tasks.ProgressUpdate) {
		plan, err := m.engine.Plan(m.ctx, progress, m.categorized, m.store)
		if err != nil {
			done <- syncCompleteMsg{err: err}
			close(progress)
			return
		}
		result := m.engine.Execute(m.ctx, progress, plan)
		done <- syncCompleteMsg{result: result}
		close(progress)
	}(m.progressChan)

	m.completion = func() tea.Msg { return <-done }
	return m.waitForUpdate()
}

// waitForUpdate relays the next progress update, or the pending completion
// message once the progress channel closes.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return m.completion()
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderAnalyze() string {
	title := styles.title.Render("Analyzing Library")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchLibrary:
		phase = "Fetching saved tracks..."
	case tasks.LookupGenres:
		phase = fmt.Sprintf("Resolving genres (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderDuplicateList() string {
	var banner string
	if m.removal != nil {
		banner = styles.ok.Render(fmt.Sprintf("Removed %d duplicates (%d failed)", m.removal.Removed, m.removal.Failed)) + "\n"
	}
	if m.err != nil {
		banner += styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.clean, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s%s\n\n%s", banner, m.groupList.View(), helpView)
}

func (m *Model) renderCategoryList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.sync, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.categoryList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if m.viewCategory != "" {
		helpKeys = []key.Binding{m.keys.override, m.keys.back, m.keys.quit}
	}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Sync genre playlists to Spotify?")

	var info string
	byCategory := m.categorized.ByCategory()
	for _, name := range m.categorized.Categories() {
		if name == rules.FallbackCategory {
			continue
		}
		info += fmt.Sprintf("\n  %s: %d tracks", m.store.NameTemplate().Format(name), len(byCategory[name]))
	}
	info += "\n\nExisting playlists are only added to, never emptied.\n"

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Playlists")

	var phase string
	switch m.progress.Phase {
	case tasks.RemoveDuplicate:
		phase = fmt.Sprintf("Removing duplicates (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.FetchPlaylists:
		phase = "Fetching existing playlists..."
	case tasks.PlanSync:
		phase = fmt.Sprintf("Planning (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist:
		phase = fmt.Sprintf("Creating playlists (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	var created, added int
	for _, outcome := range m.result.Outcomes {
		if outcome.Err == nil && outcome.Mutation.Kind == tasks.MutationCreatePlaylist {
			created++
		}
		added += outcome.Added
	}

	title := styles.ok.Render("✓ Sync Complete!")
	info := fmt.Sprintf(
		"\nPlaylists created: %d\nTracks added: %d\nFailed operations: %d",
		created,
		added,
		m.result.Failed,
	)

	var failed string
	if m.result.Failed > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render("Failed operations:"))
		for _, outcome := range m.result.Outcomes {
			if outcome.Err != nil {
				failed += fmt.Sprintf("\n  • %s %s: %v", outcome.Mutation.Kind, outcome.Mutation.Category, outcome.Err)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
