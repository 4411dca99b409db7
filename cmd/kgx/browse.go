package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/transformer"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	contentStyle = lipgloss.NewStyle().MarginLeft(2)
)

func browseCmd(a *app) *cobra.Command {
	var inputType string

	cmd := &cobra.Command{
		Use:   "browse INPUTS...",
		Short: "Explore a graph interactively in the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := transformer.Load(cmd.Context(), args, inputType, a.transformerOptions(nil)...)
			if err != nil {
				return err
			}
			p := tea.NewProgram(newBrowser(t.Graph(), strings.Join(args, ", ")),
				tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&inputType, "input-type", "", "Input format ("+formatList()+")")
	return cmd
}

type view int

const (
	summaryView view = iota
	nodesView
	edgesView
)

var viewNames = []string{"Summary", "Nodes", "Edges"}

type browseKeys struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Search   key.Binding
	Clear    key.Binding
	Quit     key.Binding
}

var keys = browseKeys{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Search, k.Clear, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Tab, k.ShiftTab}, {k.Search, k.Clear}, {k.Quit}}
}

type categoryCount struct {
	category string
	count    int
}

// browser is the bubbletea model behind the browse command. The search
// term narrows both tables to rows containing it, case-insensitively.
type browser struct {
	g          *graph.Graph
	source     string
	current    view
	search     textinput.Model
	nodes      table.Model
	edges      table.Model
	help       help.Model
	width      int
	categories []categoryCount
	term       string
}

func newTable(columns ...table.Column) table.Model {
	t := table.New(table.WithColumns(columns), table.WithFocused(true), table.WithHeight(15))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func newBrowser(g *graph.Graph, source string) browser {
	ti := textinput.New()
	ti.Placeholder = "HGNC:, gene, has_phenotype"
	ti.CharLimit = 100
	ti.Width = 40

	b := browser{
		g:      g,
		source: source,
		search: ti,
		nodes: newTable(
			table.Column{Title: "ID", Width: 24},
			table.Column{Title: "Category", Width: 24},
			table.Column{Title: "Attributes", Width: 48},
		),
		edges: newTable(
			table.Column{Title: "Subject", Width: 20},
			table.Column{Title: "Predicate", Width: 24},
			table.Column{Title: "Object", Width: 20},
			table.Column{Title: "Provided by", Width: 16},
		),
		help:       help.New(),
		categories: countCategories(g),
	}
	b.refresh()
	return b
}

func countCategories(g *graph.Graph) []categoryCount {
	counts := make(map[string]int)
	for n := range g.Nodes() {
		if len(n.Category) == 0 {
			counts["(none)"]++
		}
		for _, c := range n.Category {
			counts[c]++
		}
	}
	out := make([]categoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, categoryCount{c, n})
	}
	slices.SortFunc(out, func(a, b categoryCount) int {
		return cmp.Or(cmp.Compare(b.count, a.count), cmp.Compare(a.category, b.category))
	})
	return out
}

func matches(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// refresh rebuilds both tables for the current search term.
func (b *browser) refresh() {
	var nodes []table.Row
	for n := range b.g.Nodes() {
		cats := strings.Join(n.Category, "|")
		if !matches(b.term, n.ID, cats) {
			continue
		}
		nodes = append(nodes, table.Row{n.ID, cats, formatAttributes(n.Attributes)})
	}
	slices.SortFunc(nodes, func(x, y table.Row) int { return cmp.Compare(x[0], y[0]) })
	b.nodes.SetRows(nodes)

	var edges []table.Row
	for e := range b.g.Edges() {
		if !matches(b.term, e.Subject, e.Predicate, e.Object, e.ProvidedBy) {
			continue
		}
		edges = append(edges, table.Row{e.Subject, e.Predicate, e.Object, e.ProvidedBy})
	}
	b.edges.SetRows(edges)
}

func formatAttributes(a graph.Attributes) string {
	names := a.Keys()
	parts := make([]string, 0, min(len(names), 4))
	for i, k := range names {
		if i == 3 {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, k+": "+a[k].String())
	}
	return strings.Join(parts, ", ")
}

func (b browser) Init() tea.Cmd {
	return nil
}

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.help.Width = msg.Width
		return b, nil

	case tea.KeyMsg:
		if b.search.Focused() {
			switch msg.Type {
			case tea.KeyEnter:
				b.term = strings.ToLower(strings.TrimSpace(b.search.Value()))
				b.search.Blur()
				b.refresh()
				return b, nil
			case tea.KeyEsc:
				b.search.Blur()
				return b, nil
			case tea.KeyCtrlC:
				return b, tea.Quit
			}
			b.search, cmd = b.search.Update(msg)
			return b, cmd
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return b, tea.Quit
		case key.Matches(msg, keys.Tab):
			b.current = (b.current + 1) % view(len(viewNames))
			return b, nil
		case key.Matches(msg, keys.ShiftTab):
			b.current = (b.current + view(len(viewNames)) - 1) % view(len(viewNames))
			return b, nil
		case key.Matches(msg, keys.Search):
			if b.current == summaryView {
				b.current = nodesView
			}
			return b, b.search.Focus()
		case key.Matches(msg, keys.Clear):
			b.term = ""
			b.search.SetValue("")
			b.refresh()
			return b, nil
		}
	}

	switch b.current {
	case nodesView:
		b.nodes, cmd = b.nodes.Update(msg)
	case edgesView:
		b.edges, cmd = b.edges.Update(msg)
	}
	return b, cmd
}

func (b browser) View() string {
	if b.width == 0 {
		return "Loading..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("kgx browse: " + b.source))
	s.WriteString("\n\n")
	s.WriteString(b.renderTabs())
	s.WriteString("\n\n")

	switch b.current {
	case summaryView:
		s.WriteString(b.renderSummary())
	case nodesView:
		s.WriteString(b.renderTable("Nodes", b.nodes))
	case edgesView:
		s.WriteString(b.renderTable("Edges", b.edges))
	}

	s.WriteString("\n\n")
	s.WriteString(contentStyle.Render(b.help.ShortHelpView(keys.ShortHelp())))
	return s.String()
}

func (b browser) renderTabs() string {
	tabs := make([]string, len(viewNames))
	for i, name := range viewNames {
		if view(i) == b.current {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = inactiveTabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (b browser) renderSummary() string {
	stats := fmt.Sprintf("Nodes: %d\nEdges: %d", b.g.NodeCount(), b.g.EdgeCount())

	var cats strings.Builder
	cats.WriteString("Categories\n")
	for i, c := range b.categories {
		if i == 10 {
			cats.WriteString(dimStyle.Render(fmt.Sprintf("\n... and %d more", len(b.categories)-i)))
			break
		}
		cats.WriteString(fmt.Sprintf("\n%-28s %s", c.category, strconv.Itoa(c.count)))
	}

	return contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(stats), statsBoxStyle.Render(cats.String())))
}

func (b browser) renderTable(title string, t table.Model) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(t.Rows()))))
	s.WriteString("\n\n")
	if b.search.Focused() || b.term != "" {
		s.WriteString("Search: " + b.search.View())
		s.WriteString("\n\n")
	}
	s.WriteString(t.View())
	return contentStyle.Render(s.String())
}
