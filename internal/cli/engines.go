package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphpad/pkg/engine"
)

// newEnginesCmd creates the engines command that lists the available
// Graphviz layout engines.
func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the available Graphviz layout engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printEnginesTable()
			return nil
		},
	}
}

// printEnginesTable renders the engine list as a bordered table.
func printEnginesTable() {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := [][]string{}
	for _, e := range engine.Engines() {
		name := e.String()
		if e == engine.DefaultEngine {
			name += " (default)"
		}
		rows = append(rows, []string{name, engineNotes[e]})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Engine", "Layout").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleValue
			}
			return StyleDim
		})

	fmt.Println(t.Render())
}
