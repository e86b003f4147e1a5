package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphpad/pkg/engine"
	"github.com/matzehuels/graphpad/pkg/trace"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string // output file path, empty derives from input
	engineName  string // layout engine name
	interactive bool   // pick the engine with an interactive list
}

// newRenderCmd creates the render command for one-shot DOT to SVG conversion.
// Input is a DOT file path, or "-" to read from stdin.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{engineName: engine.Dot.String()}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a DOT file to SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenderFile(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input path with .svg extension)")
	cmd.Flags().StringVarP(&opts.engineName, "engine", "e", opts.engineName, "layout engine: dot, neato, twopi, circo, fdp, sfdp, patchwork, osage")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick the layout engine interactively")

	return cmd
}

// runRenderFile reads DOT source, renders it with the requested engine, and
// writes the SVG to the output path (or stdout when input came from stdin
// and no output was given).
func runRenderFile(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	eng, err := pickEngine(opts)
	if err != nil {
		return err
	}

	source, err := readSource(input)
	if err != nil {
		return err
	}
	logger.Debugf("Read %d bytes of DOT source", len(source))

	renderer := engine.NewRenderer(trace.Discard())
	defer renderer.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering with %s", eng))
	spinner.Start()

	svg, err := renderer.Render(ctx, string(source), eng)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError(fmt.Sprintf("Render failed: %s", err))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %s layout (%d bytes)", eng, len(svg)))

	out := opts.output
	if out == "" {
		if input == "-" {
			_, err = os.Stdout.Write(svg)
			return err
		}
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}
	if err := os.WriteFile(out, svg, 0o644); err != nil {
		return err
	}

	prog.done("Wrote " + out)
	printFile(out)
	return nil
}

// pickEngine resolves the layout engine from flags, running the interactive
// picker when --interactive is set.
func pickEngine(opts *renderOpts) (engine.Engine, error) {
	if !opts.interactive {
		return engine.ParseEngine(opts.engineName)
	}

	model := NewEngineListModel(engine.Engines())
	result, err := tea.NewProgram(model).Run()
	if err != nil {
		return "", fmt.Errorf("run engine picker: %w", err)
	}
	final, ok := result.(EngineListModel)
	if !ok || final.Selected == nil {
		return "", errors.New("no engine selected")
	}
	return *final.Selected, nil
}

// readSource reads DOT source from path, or stdin when path is "-".
func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
