// Package cli implements the graphpad command-line interface.
//
// This package provides commands for serving the graph board over HTTP,
// rendering DOT files to SVG from the shell, and listing the available
// layout engines. The CLI is built using cobra and supports verbose logging
// via the charmbracelet/log library.
//
// # Commands
//
//   - serve: Run the graphpad HTTP server
//   - render: Render a DOT file to SVG
//   - engines: List the available Graphviz layout engines
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphpad/pkg/buildinfo"
)

// appName is the application name used for display and config lookup.
const appName = "graphpad"

// Execute runs the graphpad CLI and returns an error if any command fails.
//
// The root command registers all subcommands and configures logging based on
// the --verbose flag. The logger is attached to the context and accessible
// to all commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Graphpad renders Graphviz DOT graphs on a live board",
		Long:         `Graphpad is a form-and-preview application for Graphviz DOT graphs: submit DOT source, pick a layout engine, and see the rendered SVG on a live-editable board.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newEnginesCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}
