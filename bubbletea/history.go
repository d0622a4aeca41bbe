// Package bubbletea provides a terminal browser for generated patches using the Bubble Tea framework.
package bubbletea

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/gias"
)

// ErrNoMetadata is reported when a commit message is requested for a patch without metadata.
var ErrNoMetadata = errors.New("patch has no metadata")

type pane int

const (
	listPane pane = iota
	diffPane
)

// chromeHeight is the number of lines used by the title and status bars.
const chromeHeight = 2

type listingsMsg struct {
	listings []gias.PatchListing
	err      error
}

type patchMsg struct {
	listing gias.PatchListing
	text    string
	diff    *gias.Diff
	err     error
}

type copiedMsg struct {
	what string
	err  error
}

// openPatch is the patch currently shown in the diff pane.
type openPatch struct {
	listing   gias.PatchListing
	text      string
	diff      *gias.Diff
	positions []int
}

// HistoryOption configures a HistoryModel.
type HistoryOption func(*HistoryModel)

// WithTheme sets the colors used for the list and the diff.
func WithTheme(theme gias.Theme) HistoryOption {
	return func(m *HistoryModel) {
		m.render.Styles = theme.Styles()
	}
}

// WithRenderer sets the lipgloss renderer, which selects the color profile.
func WithRenderer(r *lipgloss.Renderer) HistoryOption {
	return func(m *HistoryModel) {
		m.render.Renderer = r
	}
}

// WithSyntax enables syntax colouring of diff lines.
func WithSyntax(detector gias.LanguageDetector, tokenizer gias.Tokenizer) HistoryOption {
	return func(m *HistoryModel) {
		m.render.Detector = detector
		m.render.Tokenizer = tokenizer
	}
}

// WithClipboard enables the copy actions.
func WithClipboard(c gias.Clipboard) HistoryOption {
	return func(m *HistoryModel) {
		m.clipboard = c
	}
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(km KeyMap) HistoryOption {
	return func(m *HistoryModel) {
		m.keymap = km
	}
}

// HistoryModel is the Bubble Tea model for browsing the patch directory.
// The list pane shows every stored patch, newest first; opening one shows
// its rendered diff in a scrollable viewport.
type HistoryModel struct {
	patches   gias.PatchStore
	parser    gias.DiffParser
	clipboard gias.Clipboard
	render    RenderOptions
	keymap    KeyMap
	help      help.Model

	listings []gias.PatchListing
	cursor   int
	loaded   bool
	err      error
	status   string

	pane     pane
	current  *openPatch
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// NewHistoryModel creates a browser over the given patch store.
func NewHistoryModel(patches gias.PatchStore, parser gias.DiffParser, opts ...HistoryOption) HistoryModel {
	m := HistoryModel{
		patches: patches,
		parser:  parser,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init implements tea.Model.
func (m HistoryModel) Init() tea.Cmd {
	return m.loadListings
}

func (m HistoryModel) loadListings() tea.Msg {
	listings, err := m.patches.List()
	return listingsMsg{listings: listings, err: err}
}

func (m HistoryModel) openCmd(listing gias.PatchListing) tea.Cmd {
	return func() tea.Msg {
		text, err := m.patches.Read(listing.Name)
		if err != nil {
			return patchMsg{listing: listing, err: err}
		}
		diff, err := m.parser.Parse(text)
		if err != nil {
			return patchMsg{listing: listing, err: fmt.Errorf("parse %s: %w", listing.Name, err)}
		}
		return patchMsg{listing: listing, text: text, diff: diff}
	}
}

func (m HistoryModel) copyCmd(what string, content func() (string, error)) tea.Cmd {
	clip := m.clipboard
	return func() tea.Msg {
		if clip == nil {
			return copiedMsg{what: what, err: errors.New("clipboard unavailable")}
		}
		text, err := content()
		if err == nil {
			err = clip.Copy(text)
		}
		return copiedMsg{what: what, err: err}
	}
}

// Update implements tea.Model.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := max(msg.Height-chromeHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, bodyHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = bodyHeight
		}
		m.help.Width = msg.Width
		if m.current != nil {
			m.viewport.SetContent(m.renderCurrent())
		}
		return m, nil

	case listingsMsg:
		m.loaded = true
		m.err = msg.err
		m.listings = msg.listings
		if m.cursor >= len(m.listings) {
			m.cursor = max(len(m.listings)-1, 0)
		}
		return m, nil

	case patchMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		m.current = &openPatch{
			listing:   msg.listing,
			text:      msg.text,
			diff:      msg.diff,
			positions: filePositions(msg.diff),
		}
		m.pane = diffPane
		m.status = ""
		m.viewport.SetContent(m.renderCurrent())
		m.viewport.GotoTop()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "copied " + msg.what
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Quit) {
			return m, tea.Quit
		}
		if m.pane == diffPane {
			return m.updateDiff(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m HistoryModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.listings)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.GotoTop):
		m.cursor = 0
	case key.Matches(msg, m.keymap.GotoBottom):
		m.cursor = max(len(m.listings)-1, 0)
	case key.Matches(msg, m.keymap.Reload):
		m.status = ""
		return m, m.loadListings
	case key.Matches(msg, m.keymap.Open):
		if listing, ok := m.selected(); ok {
			return m, m.openCmd(listing)
		}
	case key.Matches(msg, m.keymap.CopyPatch):
		if listing, ok := m.selected(); ok {
			name := listing.Name
			return m, m.copyCmd(name, func() (string, error) { return m.patches.Read(name) })
		}
	case key.Matches(msg, m.keymap.CopyCommit):
		if listing, ok := m.selected(); ok {
			return m, m.copyCmd("commit message", commitMessageFor(listing))
		}
	}
	return m, nil
}

func (m HistoryModel) updateDiff(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	half := max(m.viewport.Height/2, 1)
	switch {
	case key.Matches(msg, m.keymap.Back):
		m.pane = listPane
		m.status = ""
	case key.Matches(msg, m.keymap.Up):
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
	case key.Matches(msg, m.keymap.Down):
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
	case key.Matches(msg, m.keymap.HalfPageUp):
		m.viewport.SetYOffset(m.viewport.YOffset - half)
	case key.Matches(msg, m.keymap.HalfPageDown):
		m.viewport.SetYOffset(m.viewport.YOffset + half)
	case key.Matches(msg, m.keymap.GotoTop):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keymap.GotoBottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keymap.NextFile):
		for _, pos := range m.current.positions {
			if pos > m.viewport.YOffset {
				m.viewport.SetYOffset(pos)
				break
			}
		}
	case key.Matches(msg, m.keymap.PrevFile):
		for i := len(m.current.positions) - 1; i >= 0; i-- {
			if pos := m.current.positions[i]; pos < m.viewport.YOffset {
				m.viewport.SetYOffset(pos)
				break
			}
		}
	case key.Matches(msg, m.keymap.CopyPatch):
		text := m.current.text
		return m, m.copyCmd(m.current.listing.Name, func() (string, error) { return text, nil })
	case key.Matches(msg, m.keymap.CopyCommit):
		return m, m.copyCmd("commit message", commitMessageFor(m.current.listing))
	}
	return m, nil
}

func commitMessageFor(listing gias.PatchListing) func() (string, error) {
	return func() (string, error) {
		if listing.Metadata == nil {
			return "", fmt.Errorf("%w: %s", ErrNoMetadata, listing.Name)
		}
		return listing.Metadata.CommitMessage()
	}
}

func (m HistoryModel) selected() (gias.PatchListing, bool) {
	if m.cursor < 0 || m.cursor >= len(m.listings) {
		return gias.PatchListing{}, false
	}
	return m.listings[m.cursor], true
}

func (m HistoryModel) renderCurrent() string {
	opts := m.render
	opts.Width = m.width
	return RenderDiff(m.current.diff, opts)
}

// View implements tea.Model.
func (m HistoryModel) View() string {
	if !m.ready || !m.loaded {
		return "Loading..."
	}
	muted := styleFromColorPair(m.render.Styles.Muted, m.render.Renderer)

	var title, body string
	if m.pane == diffPane && m.current != nil {
		title = m.diffTitle()
		body = m.viewport.View()
	} else {
		title = fmt.Sprintf("Patches (%d)", len(m.listings))
		body = m.listView()
	}

	footer := m.status
	if footer == "" {
		footer = m.help.View(m.keymap)
	}
	return title + "\n" + body + "\n" + muted.Render(footer)
}

func (m HistoryModel) diffTitle() string {
	listing := m.current.listing
	added, deleted := m.current.diff.Stats()
	title := fmt.Sprintf("%s  %d files  +%d -%d", listing.Name, len(m.current.diff.Files), added, deleted)
	if meta := listing.Metadata; meta != nil && meta.IssueID != 0 {
		title += fmt.Sprintf("  %s#%d %s", meta.Repository, meta.IssueID, meta.IssueTitle)
	}
	return title
}

func (m HistoryModel) listView() string {
	if m.err != nil {
		return "error: " + m.err.Error()
	}
	if len(m.listings) == 0 {
		return "No patches yet. Run an analysis to generate one."
	}

	selected := styleFromColorPair(m.render.Styles.Selected, m.render.Renderer)
	muted := styleFromColorPair(m.render.Styles.Muted, m.render.Renderer)

	height := max(m.height-chromeHeight, 1)
	// Scroll the window so the cursor stays visible.
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(m.listings))

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		l := m.listings[i]
		row := l.Name
		details := fmt.Sprintf("  %s  %s", formatSize(l.Size), l.Created.Format(time.DateTime))
		if meta := l.Metadata; meta != nil && meta.IssueTitle != "" {
			details += fmt.Sprintf("  #%d %s", meta.IssueID, meta.IssueTitle)
		}
		if i == m.cursor {
			rows = append(rows, selected.Render(padLine("> "+row+details, m.width)))
			continue
		}
		rows = append(rows, "  "+row+muted.Render(details))
	}
	return strings.Join(rows, "\n")
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Browser runs the patch history browser as a full-screen program.
type Browser struct {
	patches gias.PatchStore
	parser  gias.DiffParser
	opts    []HistoryOption
}

// NewBrowser creates a Browser.
func NewBrowser(patches gias.PatchStore, parser gias.DiffParser, opts ...HistoryOption) *Browser {
	return &Browser{patches: patches, parser: parser, opts: opts}
}

// Run blocks until the user quits.
func (b *Browser) Run() error {
	m := NewHistoryModel(b.patches, b.parser, b.opts...)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
