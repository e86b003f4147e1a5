package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/graphpad/pkg/engine"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// engineNotes gives each layout engine a one-line hint shown in the picker
// and the engines table. Wording follows the upstream Graphviz manuals.
var engineNotes = map[engine.Engine]string{
	engine.Dot:       "hierarchical layout for directed graphs",
	engine.Neato:     "spring model, good for small undirected graphs",
	engine.Twopi:     "radial layout around a root node",
	engine.Circo:     "circular layout, good for cyclic structures",
	engine.FDP:       "force-directed spring model",
	engine.SFDP:      "multiscale force-directed, scales to large graphs",
	engine.Patchwork: "squarified treemap of clusters",
	engine.Osage:     "clustered array layout",
}

// =============================================================================
// EngineListModel - Interactive layout engine selection
// =============================================================================

// EngineListModel is the bubbletea model for picking a layout engine.
type EngineListModel struct {
	Engines  []engine.Engine
	Cursor   int
	Selected *engine.Engine
}

// NewEngineListModel creates an engine list model with the cursor on the
// default engine.
func NewEngineListModel(engines []engine.Engine) EngineListModel {
	m := EngineListModel{Engines: engines}
	for i, e := range engines {
		if e == engine.DefaultEngine {
			m.Cursor = i
			break
		}
	}
	return m
}

func (m EngineListModel) Init() tea.Cmd {
	return nil
}

func (m EngineListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Engines)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = &m.Engines[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m EngineListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layout Engine"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, e := range m.Engines {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		line := fmt.Sprintf("%s%-10s %s", cursor, e, listDimStyle.Render(engineNotes[e]))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Engines))))

	return b.String()
}
