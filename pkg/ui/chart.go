// chart.go - Leveled generation-column view of the genealogy tree.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kinship/pkg/engine"
	"github.com/vanderheijden86/kinship/pkg/model"
)

// Expansion glyphs. Branching nodes show whether their children are visible;
// leaves get a plain bullet.
const (
	glyphExpanded  = "▾"
	glyphCollapsed = "▸"
	glyphLeaf      = "•"
)

const (
	minColWidth = 16
	maxColWidth = 30
)

// ChartModel renders the session's leveled projection as one column per
// generation and tracks the cursor across the visible people.
type ChartModel struct {
	session *engine.Session
	// visible is the projection with hidden people filtered out, one slice
	// per generation.
	visible [][]*model.Person
	col     int
	row     int
	// rowOffset is the first visible row when a column is taller than the
	// viewport.
	rowOffset int
	width     int
	height    int
	theme     Theme
	// matchKeys marks search hits for highlighting, keyed by model.Key.
	matchKeys map[string]bool
}

// NewChartModel creates an empty chart view.
func NewChartModel(theme Theme) ChartModel {
	return ChartModel{theme: theme}
}

// SetSession attaches the view-state session and rebuilds the projection.
func (c *ChartModel) SetSession(s *engine.Session) {
	c.session = s
	c.Rebuild()
}

// SetSize updates the available dimensions for the chart view.
func (c *ChartModel) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.clampCursor()
}

// SetMatches highlights the named people as search hits. Pass nil to clear.
func (c *ChartModel) SetMatches(names []string) {
	if len(names) == 0 {
		c.matchKeys = nil
		return
	}
	c.matchKeys = make(map[string]bool, len(names))
	for _, n := range names {
		c.matchKeys[model.Key(n)] = true
	}
}

// Rebuild recomputes the visible projection after any session change. The
// cursor is kept on the same person when it survives the change, otherwise
// clamped.
func (c *ChartModel) Rebuild() {
	var keep string
	if sel := c.Selected(); sel != nil {
		keep = sel.Name
	}

	c.visible = nil
	if c.session == nil {
		return
	}
	for _, level := range c.session.Project() {
		var vis []*model.Person
		for _, p := range level {
			if !p.Hidden {
				vis = append(vis, p)
			}
		}
		if len(vis) > 0 {
			c.visible = append(c.visible, vis)
		}
	}

	if keep != "" {
		key := model.Key(keep)
		for ci, level := range c.visible {
			for ri, p := range level {
				if model.Key(p.Name) == key {
					c.col, c.row = ci, ri
					c.clampCursor()
					return
				}
			}
		}
	}
	c.clampCursor()
}

// Selected returns the person under the cursor, or nil for an empty chart.
func (c *ChartModel) Selected() *model.Person {
	if c.col < 0 || c.col >= len(c.visible) {
		return nil
	}
	level := c.visible[c.col]
	if c.row < 0 || c.row >= len(level) {
		return nil
	}
	return level[c.row]
}

// Generations returns how many generation columns are currently visible.
func (c *ChartModel) Generations() int { return len(c.visible) }

// VisibleCount returns how many people are currently drawn.
func (c *ChartModel) VisibleCount() int {
	n := 0
	for _, level := range c.visible {
		n += len(level)
	}
	return n
}

func (c *ChartModel) MoveUp() {
	if c.row > 0 {
		c.row--
	}
	c.scrollToCursor()
}

func (c *ChartModel) MoveDown() {
	if c.col < len(c.visible) && c.row < len(c.visible[c.col])-1 {
		c.row++
	}
	c.scrollToCursor()
}

func (c *ChartModel) MoveLeft() {
	if c.col > 0 {
		c.col--
		c.clampCursor()
	}
}

func (c *ChartModel) MoveRight() {
	if c.col < len(c.visible)-1 {
		c.col++
		c.clampCursor()
	}
}

func (c *ChartModel) clampCursor() {
	if len(c.visible) == 0 {
		c.col, c.row, c.rowOffset = 0, 0, 0
		return
	}
	if c.col >= len(c.visible) {
		c.col = len(c.visible) - 1
	}
	if c.col < 0 {
		c.col = 0
	}
	if c.row >= len(c.visible[c.col]) {
		c.row = len(c.visible[c.col]) - 1
	}
	if c.row < 0 {
		c.row = 0
	}
	c.scrollToCursor()
}

func (c *ChartModel) scrollToCursor() {
	rows := c.visibleRows()
	if rows <= 0 {
		return
	}
	if c.row < c.rowOffset {
		c.rowOffset = c.row
	}
	if c.row >= c.rowOffset+rows {
		c.rowOffset = c.row - rows + 1
	}
}

// visibleRows is the number of person rows that fit under the generation
// header line.
func (c *ChartModel) visibleRows() int {
	rows := c.height - 2
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the generation columns side by side.
func (c *ChartModel) View() string {
	if c.session == nil || len(c.visible) == 0 {
		return c.theme.MutedText.Render("No people to show.")
	}

	cols := make([]string, 0, len(c.visible))
	for ci, level := range c.visible {
		cols = append(cols, c.renderColumn(ci, level))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (c *ChartModel) renderColumn(ci int, level []*model.Person) string {
	colWidth := c.columnWidth(level)
	rows := c.visibleRows()

	var b strings.Builder
	b.WriteString(c.theme.GenLabel.Render(padRight(fmt.Sprintf("Generation %d", ci+1), colWidth)))
	b.WriteString("\n")

	start := 0
	if ci == c.col {
		start = c.rowOffset
	}
	end := start + rows
	if end > len(level) {
		end = len(level)
	}

	if start > 0 {
		b.WriteString(c.theme.MutedText.Render(padRight("  ↑ more", colWidth)))
		b.WriteString("\n")
	}

	for ri := start; ri < end; ri++ {
		b.WriteString(c.renderEntry(level[ri], colWidth, ci == c.col && ri == c.row))
		b.WriteString("\n")
	}

	if end < len(level) {
		b.WriteString(c.theme.MutedText.Render(padRight(fmt.Sprintf("  ↓ %d more", len(level)-end), colWidth)))
		b.WriteString("\n")
	}

	return b.String()
}

func (c *ChartModel) renderEntry(p *model.Person, colWidth int, selected bool) string {
	glyph := glyphLeaf
	style := c.theme.LeafText
	if p.HasChildren() {
		style = c.theme.BranchText
		if c.session.Collapsed(p.Name) {
			glyph = glyphCollapsed
		} else {
			glyph = glyphExpanded
		}
	}

	if model.Key(p.Name) == model.Key(c.session.Display().Name) {
		style = c.theme.FocusText
	}
	if c.matchKeys[model.Key(p.Name)] {
		style = c.theme.MatchText
	}

	label := p.Name
	if n := model.CountDescendants(p); n > 0 {
		label = fmt.Sprintf("%s (%d)", label, n)
	}
	line := fmt.Sprintf("%s %s", glyph, truncate(label, colWidth-2))

	if selected {
		return c.theme.Selected.Render(padRight(line, colWidth-2))
	}
	return style.Render(padRight(line, colWidth))
}

func (c *ChartModel) columnWidth(level []*model.Person) int {
	w := minColWidth
	for _, p := range level {
		// glyph + space + name + count suffix
		need := len([]rune(p.Name)) + 8
		if need > w {
			w = need
		}
	}
	if w > maxColWidth {
		w = maxColWidth
	}
	if len(c.visible) > 0 && c.width > 0 {
		if per := c.width / len(c.visible); per >= minColWidth && per < w {
			w = per
		}
	}
	return w
}
