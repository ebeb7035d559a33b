package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/songrec/internal/audio"
	"github.com/desertthunder/songrec/internal/catalog"
	"github.com/desertthunder/songrec/internal/models"
	"github.com/desertthunder/songrec/internal/session"
	"github.com/desertthunder/songrec/internal/shared"
	"github.com/desertthunder/songrec/internal/tasks"
)

// FailureNoticeDelay is how long after a failed recommendation the retry notice appears.
const FailureNoticeDelay = 2 * time.Second

// Pane identifies the focused region of the screen.
type Pane int

const (
	SearchPane Pane = iota
	SeedsPane
	OutputPane
	HistoryPane
)

func (p Pane) String() string {
	switch p {
	case SearchPane:
		return "search"
	case SeedsPane:
		return "seeds"
	case OutputPane:
		return "output"
	case HistoryPane:
		return "history"
	default:
		return ""
	}
}

var _ tea.Model = Model{}

// Options configures a [Model].
type Options struct {
	Context      context.Context
	Engine       *tasks.Engine
	State        *session.State         // nil starts from the default session
	Preview      *audio.Preview         // nil disables previews
	Open         func(url string) error // defaults to [shared.OpenURL]
	Logger       *log.Logger
	SearchLimit  int
	DefaultSeeds []int
}

// Model is the main bubbletea model for the interactive session.
type Model struct {
	ctx     context.Context
	engine  *tasks.Engine
	state   *session.State
	preview *audio.Preview
	open    func(string) error
	logger  *log.Logger
	keys    keyMap
	help    help.Model

	focus Pane

	search       textinput.Model
	searchLimit  int
	results      []models.Song
	total        int
	dropdownOpen bool
	resultCursor int

	seedCursor   int
	outputCursor int

	history  list.Model
	sessions []models.Session

	loading      bool
	progress     tasks.ProgressUpdate
	progressChan chan tasks.ProgressUpdate
	doneChan     chan recommendData

	failure       error
	failureSeq    int
	failureNotice bool
	noticeDelay   time.Duration

	status  string
	hovered string
	width   int
	height  int
	startup []tea.Cmd
}

// NewModel creates the TUI model. Default seeds that exist in the catalog are added and
// enriched when the program starts.
func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.State == nil {
		opts.State = session.NewState()
	}
	if opts.Open == nil {
		opts.Open = shared.OpenURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = catalog.DefaultSearchLimit
	}

	ti := textinput.New()
	ti.Placeholder = "Search songs or artists"
	ti.Prompt = "🔍 "
	ti.CharLimit = 120
	ti.Focus()

	delegate := list.NewDefaultDelegate()
	hl := list.New([]list.Item{}, delegate, 0, 0)
	hl.Title = "History"
	hl.SetShowHelp(false)
	hl.SetFilteringEnabled(false)
	hl.SetShowStatusBar(false)

	m := Model{
		ctx:         opts.Context,
		engine:      opts.Engine,
		state:       opts.State,
		preview:     opts.Preview,
		open:        opts.Open,
		logger:      opts.Logger,
		keys:        newKeyMap(),
		help:        help.New(),
		focus:       SearchPane,
		search:      ti,
		searchLimit: opts.SearchLimit,
		history:     hl,
		noticeDelay: FailureNoticeDelay,
	}

	for _, id := range opts.DefaultSeeds {
		song, ok := m.engine.Catalog().Lookup(id)
		if !ok {
			m.logger.Warn("default seed not in catalog", "id", id)
			continue
		}
		if cmd := m.toggle(song); cmd != nil {
			m.startup = append(m.startup, cmd)
		}
	}

	return m
}

// Init loads history and enriches the default seeds.
func (m Model) Init() tea.Cmd {
	cmds := append([]tea.Cmd{textinput.Blink, m.loadHistory()}, m.startup...)
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.history.SetSize(msg.Width-4, max(msg.Height-8, 5))
		if m.preview != nil {
			m.preview.Resize(msg.Width)
		}
	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)
	case Msg:
		m, cmd = m.handleMsg(msg)
	}

	m.syncHover()
	return m, cmd
}

func (m Model) handleMsg(msg Msg) (Model, tea.Cmd) {
	switch msg.kind {
	case MsgEnriched:
		d := msg.data.(enrichedData)
		meta := d.meta
		if d.err != nil {
			m.logger.Warn("enrichment failed", "id", d.song.ID, "error", d.err)
			meta = models.FromSong(d.song)
			d.degraded = true
		}
		if m.state.Selection.Resolve(meta) && d.degraded {
			m.status = fmt.Sprintf("Metadata unavailable for %q, using catalog fields", d.song.Name)
		}
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()
	case MsgRecommendDone:
		return m.finishRecommend(msg.data.(recommendData))
	case MsgFailureNotice:
		if seq := msg.data.(int); seq == m.failureSeq && m.failure != nil {
			m.failureNotice = true
		}
	case MsgHistoryLoaded:
		d := msg.data.(historyData)
		if d.err != nil {
			m.status = fmt.Sprintf("Could not load history: %v", d.err)
			break
		}
		m.sessions = d.sessions
		return m, m.history.SetItems(historyItems(d.sessions))
	case MsgHistoryCleared:
		if err, _ := msg.data.(error); err != nil {
			m.status = fmt.Sprintf("Could not clear history: %v", err)
			break
		}
		m.sessions = nil
		m.status = "History cleared"
		return m, m.history.SetItems(nil)
	case MsgOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = fmt.Sprintf("Could not open track: %v", err)
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.forceQuit) {
		return m, tea.Quit
	}
	switch {
	case key.Matches(msg, m.keys.next):
		return m.setFocus((m.focus + 1) % 4)
	case key.Matches(msg, m.keys.prev):
		return m.setFocus((m.focus + 3) % 4)
	}

	if m.focus == SearchPane {
		return m.handleSearchKey(msg)
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.random):
		return m.pickRandom()
	case key.Matches(msg, m.keys.genre):
		tag := models.Genres()[int(msg.Runes[0]-'1')]
		if err := m.state.Preferences.SetGenre(tag); err != nil {
			m.status = err.Error()
		}
	case key.Matches(msg, m.keys.all):
		m.state.Preferences.SetAll()
	case key.Matches(msg, m.keys.more):
		m.state.Preferences.SetNumRecs(m.state.Preferences.NumRecs() + 1)
	case key.Matches(msg, m.keys.less):
		m.state.Preferences.SetNumRecs(m.state.Preferences.NumRecs() - 1)
	case key.Matches(msg, m.keys.recommend):
		return m.startRecommend()
	case key.Matches(msg, m.keys.history):
		return m.setFocus(HistoryPane)
	case key.Matches(msg, m.keys.open):
		return m, m.openTrack()
	}

	switch m.focus {
	case SeedsPane:
		return m.handleSeedsKey(msg)
	case OutputPane:
		return m.handleOutputKey(msg)
	case HistoryPane:
		return m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		return m.setFocus(SeedsPane)
	case msg.Type == tea.KeyUp:
		if m.resultCursor > 0 {
			m.resultCursor--
		}
		return m, nil
	case msg.Type == tea.KeyDown:
		if m.resultCursor < len(m.results)-1 {
			m.resultCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if !m.dropdownOpen || len(m.results) == 0 {
			return m, nil
		}
		return m, m.toggle(m.results[m.resultCursor])
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.runSearch()
	}
	return m, cmd
}

func (m *Model) runSearch() {
	m.results, m.total = m.engine.Catalog().Search(m.search.Value(), m.searchLimit)
	m.resultCursor = 0
	m.dropdownOpen = len(m.results) > 0
}

func (m Model) handleSeedsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	seeds := m.state.Selection.Songs()
	switch {
	case key.Matches(msg, m.keys.up):
		m.seedCursor = max(m.seedCursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.seedCursor = min(m.seedCursor+1, max(len(seeds)-1, 0))
	case key.Matches(msg, m.keys.enter):
		if m.seedCursor < len(seeds) {
			m.state.Selection.Remove(seeds[m.seedCursor].ID)
			m.seedCursor = min(m.seedCursor, max(len(seeds)-2, 0))
		}
	}
	return m, nil
}

func (m Model) handleOutputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	out := m.state.Output()
	switch {
	case key.Matches(msg, m.keys.up):
		m.outputCursor = max(m.outputCursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.outputCursor = min(m.outputCursor+1, max(len(out)-1, 0))
	case key.Matches(msg, m.keys.enter):
		if m.outputCursor >= len(out) {
			return m, nil
		}
		rec := out[m.outputCursor]
		if m.state.Selection.Contains(rec.ID) {
			m.state.Selection.Remove(rec.ID)
			return m, nil
		}
		if song, ok := m.engine.Catalog().Lookup(rec.ID); ok {
			m.state.Selection.Toggle(song)
			m.state.Selection.Resolve(rec)
		} else {
			m.state.Selection.Add(rec)
		}
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		item, ok := m.history.SelectedItem().(historyItem)
		if !ok {
			return m, nil
		}
		m.state.Restore(item.session)
		m.seedCursor, m.outputCursor = 0, 0
		m.failure, m.failureNotice = nil, false
		m.status = fmt.Sprintf("Restored session with %d seeds", len(item.session.Input))
		return m.setFocus(OutputPane)
	case key.Matches(msg, m.keys.clear):
		return m, m.clearHistory()
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// setFocus moves focus; leaving the search box closes its dropdown and returning reopens it.
func (m Model) setFocus(p Pane) (Model, tea.Cmd) {
	if m.focus == SearchPane && p != SearchPane {
		m.search.Blur()
		m.dropdownOpen = false
	}
	m.focus = p
	if p == SearchPane {
		m.dropdownOpen = len(m.results) > 0
		return m, m.search.Focus()
	}
	return m, nil
}

// toggle flips a song's membership, returning the enrichment command when it was added.
func (m *Model) toggle(song models.Song) tea.Cmd {
	if !m.state.Selection.Toggle(song) {
		return nil
	}
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		meta, degraded, err := engine.Enrich(ctx, song.ID)
		return enrichedMsg(song, meta, degraded, err)
	}
}

func (m Model) pickRandom() (Model, tea.Cmd) {
	song, err := m.engine.PickRandom(m.state.Selection.Selected)
	if err != nil {
		if errors.Is(err, shared.ErrCatalogExhausted) {
			m.status = "Every catalog song is already a seed"
		} else {
			m.status = err.Error()
		}
		return m, nil
	}
	m.status = fmt.Sprintf("Added %q", song.Name)
	return m, m.toggle(song)
}

func (m Model) startRecommend() (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	snap := m.state.Snapshot()
	if len(snap.Input) == 0 {
		m.status = "Add at least one seed song first"
		return m, nil
	}

	m.loading = true
	m.failureNotice = false
	m.progress = tasks.ProgressUpdate{Phase: tasks.Recommend, Message: "Starting..."}
	m.progressChan = make(chan tasks.ProgressUpdate, 8)
	m.doneChan = make(chan recommendData, 1)

	engine, ctx, progress, done := m.engine, m.ctx, m.progressChan, m.doneChan
	go func() {
		res, err := engine.Recommend(ctx, snap, progress)
		done <- recommendData{res, err}
		close(progress)
	}()

	return m, m.waitForProgress()
}

// waitForProgress yields the next progress update, then the final result once the channel closes.
func (m Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			d := <-done
			return recommendDoneMsg(d.result, d.err)
		}
		return progressUpdateMsg(update)
	}
}

// finishRecommend applies a result. A failure leaves the output as it was and schedules
// the retry notice.
func (m Model) finishRecommend(d recommendData) (Model, tea.Cmd) {
	m.loading = false
	m.progressChan, m.doneChan = nil, nil

	if d.err != nil {
		m.logger.Error("recommendation failed", "error", d.err)
		m.failure = d.err
		m.failureSeq++
		seq := m.failureSeq
		return m, tea.Tick(m.noticeDelay, func(time.Time) tea.Msg { return failureNoticeMsg(seq) })
	}

	m.failure, m.failureNotice = nil, false
	m.state.SetOutput(d.result.Session.Output)
	m.outputCursor = 0
	m.status = fmt.Sprintf("Received %d recommendations", len(d.result.Session.Output))
	if d.result.HistoryErr != nil {
		m.status += " (not saved to history)"
	}

	next := m.focus
	if next == SearchPane {
		next = OutputPane
	}
	m, cmd := m.setFocus(next)
	if d.result.Saved {
		return m, tea.Batch(cmd, m.loadHistory())
	}
	return m, cmd
}

func (m Model) loadHistory() tea.Cmd {
	store, ctx := m.engine.History(), m.ctx
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		sessions, err := store.List(ctx)
		return historyLoadedMsg(sessions, err)
	}
}

func (m Model) clearHistory() tea.Cmd {
	store, ctx := m.engine.History(), m.ctx
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return historyClearedMsg(store.Clear(ctx))
	}
}

func (m Model) openTrack() tea.Cmd {
	song, ok := m.highlighted()
	if !ok {
		return nil
	}
	url, open := song.TrackURL, m.open
	return func() tea.Msg {
		return openedMsg(open(url))
	}
}

// highlighted returns the enriched song under the cursor in the seeds or output pane.
func (m Model) highlighted() (models.SongMetadata, bool) {
	var songs []models.SongMetadata
	var cursor int
	switch m.focus {
	case SeedsPane:
		songs, cursor = m.state.Selection.Songs(), m.seedCursor
	case OutputPane:
		songs, cursor = m.state.Output(), m.outputCursor
	default:
		return models.SongMetadata{}, false
	}
	if cursor < 0 || cursor >= len(songs) {
		return models.SongMetadata{}, false
	}
	return songs[cursor], true
}

// syncHover starts or ends the preview when the highlighted song changes.
func (m *Model) syncHover() {
	if m.preview == nil {
		return
	}
	var url string
	if song, ok := m.highlighted(); ok {
		url = song.PreviewURL
	}
	if url == m.hovered {
		return
	}
	if m.hovered != "" {
		m.preview.HoverEnd()
	}
	m.hovered = url
	if url != "" {
		m.preview.HoverStart(url)
	}
}

// View renders the current state.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("songrec"))
	b.WriteString("\n\n")

	if m.focus == HistoryPane {
		b.WriteString(m.pane(HistoryPane, m.renderHistory()))
	} else {
		b.WriteString(m.pane(SearchPane, m.renderSearch()))
		b.WriteString("\n")
		left := m.pane(SeedsPane, m.renderSeeds())
		right := m.pane(OutputPane, m.renderOutput())
		if m.width > 0 && m.width <= 2*lipgloss.Width(left) {
			b.WriteString(lipgloss.JoinVertical(lipgloss.Left, left, right))
		} else {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
		}
		b.WriteString("\n")
		b.WriteString(m.renderPreferences())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) pane(p Pane, body string) string {
	if m.focus == p {
		return styles.focused.Render(body)
	}
	return styles.pane.Render(body)
}

func (m Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.search.View())
	if !m.dropdownOpen {
		return b.String()
	}
	for i, song := range m.results {
		line := fmt.Sprintf("%s – %s", song.Name, song.ArtistLine())
		if m.state.Selection.Selected(song.ID) {
			line = "✓ " + line
		} else {
			line = "  " + line
		}
		b.WriteString("\n")
		if i == m.resultCursor {
			b.WriteString(styles.cursor.Render(line))
		} else {
			b.WriteString(line)
		}
	}
	if m.total > len(m.results) {
		b.WriteString("\n")
		b.WriteString(styles.help.Render(fmt.Sprintf("  showing %d of %d matches", len(m.results), m.total)))
	}
	return b.String()
}

func (m Model) renderSeeds() string {
	var b strings.Builder
	seeds := m.state.Selection.Songs()
	pending := m.state.Selection.Pending()
	b.WriteString(styles.title.Render(fmt.Sprintf("Seeds (%d)", len(seeds))))
	if len(seeds) == 0 && len(pending) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.help.Render("Search or press r to add a seed"))
	}
	for i, s := range seeds {
		line := fmt.Sprintf("%s – %s", s.Name, s.ArtistLine())
		b.WriteString("\n")
		if m.focus == SeedsPane && i == m.seedCursor {
			b.WriteString(styles.cursor.Render(line))
		} else {
			b.WriteString(line)
		}
	}
	for _, s := range pending {
		b.WriteString("\n")
		b.WriteString(styles.help.Render(fmt.Sprintf("⋯ %s (loading)", s.Name)))
	}
	return b.String()
}

func (m Model) renderOutput() string {
	var b strings.Builder
	out := m.state.Output()
	b.WriteString(styles.title.Render(fmt.Sprintf("Recommendations (%d)", len(out))))
	if len(out) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.help.Render("Press g to get recommendations"))
	}
	for i, s := range out {
		line := fmt.Sprintf("%2d. %s – %s", i+1, s.Name, s.ArtistLine())
		if m.state.Selection.Contains(s.ID) {
			line += " ✓"
		}
		b.WriteString("\n")
		if m.focus == OutputPane && i == m.outputCursor {
			b.WriteString(styles.cursor.Render(line))
		} else {
			b.WriteString(line)
		}
	}
	return b.String()
}

func (m Model) renderPreferences() string {
	var b strings.Builder
	b.WriteString("Genres: ")
	for i, g := range models.Genres() {
		label := fmt.Sprintf("[%d] %s", i+1, g)
		if m.state.Preferences.HasGenre(g) {
			b.WriteString(styles.selected.Render(label))
		} else {
			b.WriteString(styles.help.Render(label))
		}
		b.WriteString(" ")
	}
	b.WriteString(fmt.Sprintf(" Count: %d", m.state.Preferences.NumRecs()))
	if len(m.state.Preferences.Genres()) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("No genres selected; the recommender decides what that means"))
	}
	return b.String()
}

func (m Model) renderHistory() string {
	if len(m.sessions) == 0 {
		return styles.title.Render("History") + "\n" + styles.help.Render("No saved sessions")
	}
	return m.history.View()
}

func (m Model) renderStatus() string {
	switch {
	case m.loading:
		return styles.warn.Render(m.progress.Message)
	case m.failureNotice:
		return styles.err.Render("Could not get recommendations, try again")
	case m.status != "":
		return styles.ok.Render(m.status)
	}
	return ""
}
