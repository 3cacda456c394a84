package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/metrics"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// =============================================================================
// MetricsBrowser - Interactive results table
// =============================================================================

// MetricsBrowser is the bubbletea model for paging through a results table.
// The project list is on the left, the selected row's metrics on the right.
type MetricsBrowser struct {
	Rows   []metrics.Row
	Cursor int
	Height int
	Offset int
	// Sort is the battery column the list is ordered by, -1 for file order.
	Sort int

	order []int // indexes into Rows in display order
}

// NewMetricsBrowser creates a browser over rows in file order.
func NewMetricsBrowser(rows []metrics.Row) MetricsBrowser {
	m := MetricsBrowser{Rows: rows, Height: 15, Sort: -1}
	m.order = sortedOrder(rows, m.Sort)
	return m
}

func (m MetricsBrowser) Init() tea.Cmd {
	return nil
}

func (m MetricsBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.order)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "s":
			// cycle file order -> each battery column, descending
			m.Sort++
			if m.Sort >= len(graphstore.Battery) {
				m.Sort = -1
			}
			m.order = sortedOrder(m.Rows, m.Sort)
			m.Cursor, m.Offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m MetricsBrowser) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Results"))
	b.WriteString("\n")
	sortLabel := "file order"
	if m.Sort >= 0 {
		sortLabel = string(graphstore.Battery[m.Sort])
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("↑/↓ navigate  s sort (%s)  q quit", sortLabel)))
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString(listDimStyle.Render("  no rows"))
		return b.String()
	}

	var list strings.Builder
	end := min(m.Offset+m.Height, len(m.order))
	for i := m.Offset; i < end; i++ {
		row := m.Rows[m.order[i]]
		if i == m.Cursor {
			list.WriteString(listSelectedStyle.Render("▸ " + row.Project))
		} else {
			list.WriteString(listNormalStyle.Render("  " + row.Project))
		}
		list.WriteString("\n")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(32).Render(list.String()),
		detailBoxStyle.Render(rowDetail(m.Rows[m.order[m.Cursor]])),
	))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.order))))

	return b.String()
}

// Selected returns the row under the cursor.
func (m MetricsBrowser) Selected() (metrics.Row, bool) {
	if len(m.order) == 0 {
		return metrics.Row{}, false
	}
	return m.Rows[m.order[m.Cursor]], true
}

func rowDetail(row metrics.Row) string {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(30)
	var b strings.Builder
	b.WriteString(StyleTitle.Render(row.Project))
	for _, q := range graphstore.Battery {
		b.WriteString("\n")
		b.WriteString(keyStyle.Render(string(q)) + " " + StyleNumber.Render(formatValue(row.Value(q))))
	}
	return b.String()
}

// sortedOrder returns row indexes in file order for col -1, otherwise by the
// battery column col, descending and stable.
func sortedOrder(rows []metrics.Row, col int) []int {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	if col < 0 {
		return order
	}
	q := graphstore.Battery[col]
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(rows[b].Value(q), rows[a].Value(q))
	})
	return order
}
