// Package ui implements the kin terminal interface: a generation-column
// chart of the family tree with focus navigation, expand/collapse, and
// search, driven by the view-state engine.
package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kinship/pkg/analysis"
	"github.com/vanderheijden86/kinship/pkg/config"
	"github.com/vanderheijden86/kinship/pkg/engine"
	"github.com/vanderheijden86/kinship/pkg/loader"
	"github.com/vanderheijden86/kinship/pkg/model"
	"github.com/vanderheijden86/kinship/pkg/search"
	"github.com/vanderheijden86/kinship/pkg/watcher"
)

// FileChangedMsg is sent when the data file changes on disk
type FileChangedMsg struct{}

// ReadyTimeoutMsg is sent after a short delay to ensure the UI becomes ready
// even if the terminal doesn't send WindowSizeMsg promptly
type ReadyTimeoutMsg struct{}

// ReadyTimeoutCmd returns a command that sends ReadyTimeoutMsg after 100ms.
// This keeps the TUI from hanging on "Initializing..." if the terminal is
// slow to report its size (common in tmux, SSH, some terminal emulators).
func ReadyTimeoutCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return ReadyTimeoutMsg{}
	})
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// focus identifies which component receives key input.
type focus int

const (
	focusChart focus = iota
	focusSearch
	focusCandidates
)

// Model is the main Bubble Tea model for kin
type Model struct {
	// Data
	root     *model.Person
	session  *engine.Session
	dataPath string           // Path to the data file for live reload
	watcher  *watcher.Watcher // File watcher for live reload

	// UI Components
	chart       ChartModel
	searchInput textinput.Model
	theme       Theme

	// Focus and View State
	focused   focus
	showHelp  bool
	showStats bool

	// Search state
	candidates []search.Candidate
	candCursor int
	lastQuery  string

	// Config
	autoSearchMin int
	liveReload    bool

	// Status
	statusMsg string
	width     int
	height    int
	ready     bool
}

// NewModel creates the TUI model for the given tree. dataPath may be empty,
// in which case live reload is disabled.
func NewModel(root *model.Person, dataPath string) Model {
	theme := DefaultTheme(lipgloss.NewRenderer(os.Stdout))

	ti := textinput.New()
	ti.Placeholder = "name or fragment"
	ti.Prompt = "/ "
	ti.CharLimit = 80

	session := engine.NewSession(root)
	chart := NewChartModel(theme)
	chart.SetSession(session)

	m := Model{
		root:          root,
		session:       session,
		dataPath:      dataPath,
		chart:         chart,
		searchInput:   ti,
		theme:         theme,
		autoSearchMin: 2,
		liveReload:    true,
	}

	if dataPath != "" {
		// Watcher failures are non-fatal: the viewer works without live
		// reload, it just won't pick up edits.
		w, err := watcher.New(dataPath,
			watcher.WithDebounceDuration(200*time.Millisecond),
		)
		if err == nil {
			m.watcher = w
		}
	}

	return m
}

// WithConfig applies user configuration to the model.
func (m Model) WithConfig(cfg config.Config) Model {
	if cfg.UI.AutoSearchMinChars > 0 {
		m.autoSearchMin = cfg.UI.AutoSearchMinChars
	}
	m.liveReload = cfg.LiveReloadEnabled()
	return m
}

// Stop releases background resources. Safe to call more than once.
func (m *Model) Stop() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ReadyTimeoutCmd()}

	if m.liveReload && m.watcher != nil {
		if err := m.watcher.Start(); err == nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}
	}

	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.SetSize(msg.Width, msg.Height-4)
		m.ready = true
		return m, nil

	case ReadyTimeoutMsg:
		if !m.ready {
			m.ready = true
			if m.width == 0 {
				m.width, m.height = 80, 24
				m.chart.SetSize(m.width, m.height-4)
			}
		}
		return m, nil

	case FileChangedMsg:
		m.reload()
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focused == focusSearch {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays swallow everything except their dismiss keys.
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q", "enter":
			m.showHelp = false
		}
		return m, nil
	}
	if m.showStats {
		switch msg.String() {
		case "i", "esc", "q", "enter":
			m.showStats = false
		}
		return m, nil
	}

	switch m.focused {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusCandidates:
		return m.handleCandidatesKey(msg)
	default:
		return m.handleChartKey(msg)
	}
}

func (m Model) handleChartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.Stop()
		return m, tea.Quit

	case "up", "k":
		m.chart.MoveUp()
	case "down", "j":
		m.chart.MoveDown()
	case "left", "h":
		m.chart.MoveLeft()
	case "right", "l":
		m.chart.MoveRight()

	case "enter":
		if sel := m.chart.Selected(); sel != nil {
			if err := m.session.Focus(sel.Name); err == nil {
				m.statusMsg = fmt.Sprintf("Focused on %s", sel.Name)
				m.afterViewChange()
			}
		}

	case " ", "tab":
		if sel := m.chart.Selected(); sel != nil && sel.HasChildren() {
			m.session.Toggle(sel.Name)
			m.afterViewChange()
		}

	case "u":
		if m.session.Focused() {
			up := m.session.UpTarget()
			m.session.GoUp()
			if up == "" {
				m.statusMsg = "Back to full view"
			} else {
				m.statusMsg = fmt.Sprintf("Focused on %s", up)
			}
			m.afterViewChange()
		}

	case "esc", "r":
		m.session.ReturnToDefault()
		m.statusMsg = "Back to full view"
		m.chart.SetMatches(nil)
		m.afterViewChange()

	case "/":
		m.focused = focusSearch
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink

	case "y":
		m.yankPath()

	case "?":
		m.showHelp = true
	case "i":
		m.showStats = true
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Stop()
		return m, tea.Quit

	case "esc":
		m.focused = focusChart
		m.searchInput.Blur()
		m.chart.SetMatches(nil)
		return m, nil

	case "enter":
		query := m.searchInput.Value()
		m.focused = focusChart
		m.searchInput.Blur()
		return m.runSearch(query), nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Once the query is long enough to be meaningful it is submitted through
	// the full search pipeline without waiting for enter: a unique match
	// auto-focuses, several matches open the candidate picker.
	query := strings.TrimSpace(m.searchInput.Value())
	if len([]rune(query)) >= m.autoSearchMin {
		hits := search.Substring(m.session.Original(), query)
		names := make([]string, len(hits))
		for i, h := range hits {
			names[i] = h.Name
		}

		m = m.runSearch(query)
		if m.focused == focusCandidates {
			m.searchInput.Blur()
		} else {
			// Keep the hits highlighted while the query is still being typed.
			m.chart.SetMatches(names)
		}
	} else {
		m.chart.SetMatches(nil)
	}

	return m, cmd
}

func (m Model) handleCandidatesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Stop()
		return m, tea.Quit

	case "esc", "q":
		m.focused = focusChart
		m.candidates = nil

	case "up", "k":
		if m.candCursor > 0 {
			m.candCursor--
		}
	case "down", "j":
		if m.candCursor < len(m.candidates)-1 {
			m.candCursor++
		}

	case "enter":
		if m.candCursor >= 0 && m.candCursor < len(m.candidates) {
			pick := m.candidates[m.candCursor]
			if err := m.session.Focus(pick.Name); err == nil {
				m.statusMsg = fmt.Sprintf("Focused on %s", pick.Name)
			}
			m.afterViewChange()
		}
		m.focused = focusChart
		m.candidates = nil
	}

	return m, nil
}

// runSearch applies the full search semantics for a committed query.
func (m Model) runSearch(query string) Model {
	res := m.session.Search(query)
	m.lastQuery = res.Query

	switch res.Outcome {
	case search.Cleared:
		m.statusMsg = "Search cleared"
		m.chart.SetMatches(nil)
		m.afterViewChange()

	case search.Found:
		m.statusMsg = fmt.Sprintf("Focused on %s", res.Target)
		m.chart.SetMatches(nil)
		m.afterViewChange()

	case search.Ambiguous:
		m.candidates = res.Candidates
		m.candCursor = 0
		m.focused = focusCandidates
		m.statusMsg = fmt.Sprintf("%d people match %q", len(res.Candidates), res.Query)

	case search.NoMatch:
		// View intentionally untouched.
		m.statusMsg = fmt.Sprintf("No match for %q", res.Query)
		m.chart.SetMatches(nil)
	}

	return m
}

// afterViewChange re-projects the chart after any session mutation.
func (m *Model) afterViewChange() {
	m.chart.Rebuild()
}

// yankPath copies the ancestry path of the current focus (or selection) to
// the clipboard.
func (m *Model) yankPath() {
	path := m.session.Path()
	if len(path) == 0 {
		if sel := m.chart.Selected(); sel != nil {
			_, path = model.FindWithPath(m.session.Original(), sel.Name)
		}
	}
	if len(path) == 0 {
		m.statusMsg = "Nothing to copy"
		return
	}

	text := search.PathString(path)
	if err := clipboard.WriteAll(text); err != nil {
		m.statusMsg = fmt.Sprintf("Clipboard error: %v", err)
		return
	}
	m.statusMsg = fmt.Sprintf("📋 Copied %s", text)
}

// reload re-reads the data file and rebuilds the session, restoring the
// focus target when it still exists in the new tree.
func (m *Model) reload() {
	if m.dataPath == "" {
		return
	}
	newRoot, err := loader.LoadFile(m.dataPath)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Reload error: %v", err)
		return
	}

	var keepFocus string
	if m.session.Focused() {
		keepFocus = m.session.Display().Name
	}

	m.root = newRoot
	m.session = engine.NewSession(newRoot)
	if keepFocus != "" {
		// Best effort; a vanished person falls back to the default view.
		_ = m.session.Focus(keepFocus)
	}
	m.chart.SetSession(m.session)

	m.statusMsg = fmt.Sprintf("Reloaded %d people", 1+model.CountDescendants(newRoot))
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch {
	case m.showHelp:
		b.WriteString(m.renderHelp())
	case m.showStats:
		b.WriteString(m.renderStats())
	case m.focused == focusCandidates:
		b.WriteString(m.renderCandidates())
	default:
		b.WriteString(m.chart.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render(" kin ")

	var crumb string
	if path := m.session.Path(); len(path) > 0 {
		crumb = m.theme.SecondaryText.Render(search.PathString(path))
	} else {
		crumb = m.theme.SecondaryText.Render(m.session.Original().Name + " (full view)")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", crumb)
}

func (m Model) renderFooter() string {
	if m.focused == focusSearch {
		return m.searchInput.View()
	}

	hints := "↑↓←→ move · enter focus · space toggle · u up · r reset · / search · y copy path · i insights · ? help · q quit"
	footer := m.theme.StatusBar.Render(truncate(hints, m.width))
	if m.statusMsg != "" {
		footer = m.theme.PrimaryBold.Render(truncate(m.statusMsg, m.width)) + "\n" + footer
	}
	return footer
}

func (m Model) renderCandidates() string {
	var b strings.Builder
	b.WriteString(m.theme.PrimaryBold.Render(fmt.Sprintf("%d people match %q — pick one:", len(m.candidates), m.lastQuery)))
	b.WriteString("\n\n")

	for i, cand := range m.candidates {
		line := fmt.Sprintf("%s  %s", cand.Name, m.theme.MutedText.Render(search.PathString(cand.Path)))
		if i == m.candCursor {
			b.WriteString(m.theme.Selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.MutedText.Render("enter select · esc cancel"))
	return b.String()
}

const helpMarkdown = `# kin — keys

| Key | Action |
|-----|--------|
| ↑ ↓ ← → / hjkl | Move between people and generations |
| enter | Focus the selected person (re-root the chart) |
| space / tab | Expand or collapse the selected branch |
| u | Go up one generation from the focused person |
| esc / r | Return to the full-tree view |
| / | Search by name or fragment |
| y | Copy the ancestry path to the clipboard |
| i | Tree insights |
| ? | This help |
| q | Quit |

Expanding a branch hides its siblings so the chart stays one branch wide
per generation; collapsing brings them back.
`

func (m Model) renderHelp() string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(m.width-4, 76)),
	)
	if err == nil {
		if out, rerr := r.Render(helpMarkdown); rerr == nil {
			return out
		}
	}
	return helpMarkdown
}

func (m Model) renderStats() string {
	stats := analysis.Analyze(m.session.Original())

	var b strings.Builder
	b.WriteString(m.theme.PrimaryBold.Render("Tree insights"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("People:            %d\n", stats.People))
	b.WriteString(fmt.Sprintf("Generations:       %d\n", stats.MaxDepth+1))
	b.WriteString(fmt.Sprintf("Parents:           %d\n", stats.Branching))
	b.WriteString(fmt.Sprintf("Without children:  %d\n", stats.Leaves))
	b.WriteString(fmt.Sprintf("Mean children:     %.2f (σ %.2f)\n", stats.MeanChildren, stats.StdDevChildren))
	b.WriteString(fmt.Sprintf("Largest household: %s (%d children)\n", stats.LargestHousehold, stats.LargestHouseholdSize))

	b.WriteString("\nPeople per generation:\n")
	for i, n := range stats.Generations {
		bar := strings.Repeat("█", min(n, 40))
		b.WriteString(fmt.Sprintf("  %2d  %s %d\n", i+1, m.theme.BranchText.Render(bar), n))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.MutedText.Render("esc close"))
	return b.String()
}
