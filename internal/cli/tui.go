package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/lineage/pkg/explorer"
	"github.com/matzehuels/lineage/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listAttrStyle     = lipgloss.NewStyle().Foreground(colorYellow)
)

const (
	markerRoot      = "◆"
	markerExpanded  = "▾"
	markerCollapsed = "▸"
	markerAttrs     = "•"
	markerLeaf      = "·"
)

// =============================================================================
// HierarchyModel - Ordered column selection
// =============================================================================

// HierarchyModel lets the user pick grouping columns in order. Space adds
// or removes the column under the cursor; the order of selection is the
// order of the hierarchy.
type HierarchyModel struct {
	Columns []string
	Chosen  []string
	Cursor  int
	Done    bool // the selection was confirmed with enter
}

// NewHierarchyModel creates a picker over columns with preselected keys.
func NewHierarchyModel(columns, preselected []string) HierarchyModel {
	var chosen []string
	for _, k := range preselected {
		if slices.Contains(columns, k) {
			chosen = append(chosen, k)
		}
	}
	return HierarchyModel{Columns: columns, Chosen: chosen}
}

func (m HierarchyModel) Init() tea.Cmd {
	return nil
}

func (m HierarchyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, pickKeys.Quit):
		return m, tea.Quit
	case key.Matches(km, pickKeys.Up):
		m.Cursor = max(m.Cursor-1, 0)
	case key.Matches(km, pickKeys.Down):
		m.Cursor = min(m.Cursor+1, max(len(m.Columns)-1, 0))
	case key.Matches(km, pickKeys.Pick):
		if len(m.Columns) == 0 {
			return m, nil
		}
		col := m.Columns[m.Cursor]
		if i := slices.Index(m.Chosen, col); i >= 0 {
			m.Chosen = slices.Delete(slices.Clone(m.Chosen), i, i+1)
		} else {
			m.Chosen = append(slices.Clone(m.Chosen), col)
		}
	case key.Matches(km, pickKeys.Confirm):
		if len(m.Chosen) > 0 {
			m.Done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m HierarchyModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Hierarchy"))
	b.WriteString("\n")
	b.WriteString(helpLine(pickKeys))
	b.WriteString("\n\n")

	for i, col := range m.Columns {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		order := "   "
		if n := slices.Index(m.Chosen, col); n >= 0 {
			order = fmt.Sprintf("%2d.", n+1)
		}
		line := fmt.Sprintf("%s%s %s", cursor, order, col)

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case slices.Contains(m.Chosen, col):
			b.WriteString(listNormalStyle.Render(line))
		default:
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(m.Chosen) > 0 {
		b.WriteString(listDimStyle.Render("  " + strings.Join(m.Chosen, " → ")))
	} else {
		b.WriteString(listDimStyle.Render("  no columns selected"))
	}
	return b.String()
}

// =============================================================================
// TreeModel - Interactive drill-down
// =============================================================================

// outlineLine is one visible node with its depth below the root.
type outlineLine struct {
	node  graph.Node
	depth int
}

// outline flattens g into depth-first display order. Siblings keep the
// graph's edge order.
func outline(g graph.Graph) []outlineLine {
	children := make(map[string][]string)
	hasParent := make(map[string]bool)
	for _, e := range g.Edges {
		children[e.Source] = append(children[e.Source], e.Target)
		hasParent[e.Target] = true
	}
	byID := make(map[string]graph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	type item struct {
		id    string
		depth int
	}
	var stack []item
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		if !hasParent[g.Nodes[i].ID] {
			stack = append(stack, item{g.Nodes[i].ID, 0})
		}
	}

	lines := make([]outlineLine, 0, len(g.Nodes))
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		lines = append(lines, outlineLine{node: byID[it.id], depth: it.depth})
		kids := children[it.id]
		for j := len(kids) - 1; j >= 0; j-- {
			stack = append(stack, item{kids[j], it.depth + 1})
		}
	}
	return lines
}

// TreeModel drives an [explorer.Explorer] from the keyboard. Toggling a
// node goes through Explorer.Toggle, so the terminal behaves exactly like
// a click in any other renderer.
type TreeModel struct {
	explorer *explorer.Explorer
	save     func(keys []string) error

	Title  string
	Lines  []outlineLine
	Cursor int
	Offset int
	Height int
	Status string
}

// NewTreeModel creates a model over ex. save, when non-nil, is bound to the
// "w" key and receives the current hierarchy.
func NewTreeModel(ex *explorer.Explorer, save func(keys []string) error) TreeModel {
	m := TreeModel{explorer: ex, save: save, Height: 20}
	m.refresh("")
	return m
}

// refresh reloads the outline and keeps the cursor on the node with id
// when it is still visible.
func (m *TreeModel) refresh(id string) {
	g := m.explorer.Graph()
	m.Title = g.Title
	m.Lines = outline(g)
	for i, l := range m.Lines {
		if l.node.ID == id {
			m.Cursor = i
			break
		}
	}
	if m.Cursor >= len(m.Lines) {
		m.Cursor = max(len(m.Lines)-1, 0)
	}
	m.scroll()
}

func (m *TreeModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m TreeModel) current() (graph.Node, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Lines) {
		return graph.Node{}, false
	}
	return m.Lines[m.Cursor].node, true
}

// toggle flips the node under the cursor when want matches its current
// state; want nil toggles unconditionally.
func (m *TreeModel) toggle(want *bool) {
	n, ok := m.current()
	if !ok || n.IsExpanded == nil {
		return
	}
	if want != nil && *want == n.Expanded() {
		return
	}
	if m.explorer.Toggle(n.ID) {
		m.Status = ""
		m.refresh(n.ID)
	}
}

// parent moves the cursor to the nearest line above with a smaller depth.
func (m *TreeModel) parent() {
	if m.Cursor >= len(m.Lines) {
		return
	}
	depth := m.Lines[m.Cursor].depth
	for i := m.Cursor - 1; i >= 0; i-- {
		if m.Lines[i].depth < depth {
			m.Cursor = i
			m.scroll()
			return
		}
	}
}

func (m *TreeModel) saveHierarchy() {
	if m.save == nil {
		m.Status = "no --user given, nothing to save"
		return
	}
	keys := m.explorer.Keys()
	if err := m.save(keys); err != nil {
		m.Status = "save failed: " + err.Error()
		return
	}
	m.Status = "saved hierarchy " + strings.Join(keys, " → ")
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		expand, collapse := true, false
		switch {
		case key.Matches(msg, treeKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, treeKeys.Up):
			if m.Cursor > 0 {
				m.Cursor--
				m.scroll()
			}
		case key.Matches(msg, treeKeys.Down):
			if m.Cursor < len(m.Lines)-1 {
				m.Cursor++
				m.scroll()
			}
		case key.Matches(msg, treeKeys.Toggle):
			m.toggle(nil)
		case key.Matches(msg, treeKeys.Expand):
			m.toggle(&expand)
		case key.Matches(msg, treeKeys.Collapse):
			if n, ok := m.current(); ok && n.Expanded() {
				m.toggle(&collapse)
			} else {
				m.parent()
			}
		case key.Matches(msg, treeKeys.Save):
			m.saveHierarchy()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.scroll()
	}
	return m, nil
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(helpLine(treeKeys))
	b.WriteString("\n\n")

	if len(m.Lines) == 0 {
		b.WriteString(listDimStyle.Render("  nothing to show: the result set or the hierarchy is empty"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Lines))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		rows = append(rows, outlineRow(m.Lines[i], i == m.Cursor))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Key", "Children").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Lines) {
				return lipgloss.NewStyle()
			}
			n := m.Lines[idx].node
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case col >= 2:
				return listDimStyle
			case n.IsAttributes():
				return listAttrStyle
			default:
				return listNormalStyle
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Lines))))
	if m.Status != "" {
		b.WriteString("  " + StyleWarning.Render(m.Status))
	}
	return b.String()
}

func outlineRow(l outlineLine, selected bool) []string {
	n := l.node
	cursor := "  "
	if selected {
		cursor = "▸ "
	}

	marker := markerLeaf
	switch {
	case n.IsRoot():
		marker = markerRoot
	case n.IsAttributes():
		marker = markerAttrs
	case n.Expanded():
		marker = markerExpanded
	case n.IsExpanded != nil:
		marker = markerCollapsed
	}

	label := n.Label
	if n.IsAttributes() {
		label = strings.Join(n.Attributes, ", ")
	}
	children := ""
	if n.ChildCount != nil {
		children = fmt.Sprint(*n.ChildCount)
	} else if n.IsAttributes() {
		children = fmt.Sprint(len(n.Attributes))
	}

	return []string{cursor, strings.Repeat("  ", l.depth) + marker + " " + label, n.Key, children}
}
