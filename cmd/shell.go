package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/formatting"
	"github.com/giantswarm/patternhost/internal/shell"
)

var shellOutput string

// newShellCmd creates the interactive console command.
func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Drive a simulated map interactively",
		Long: `Starts the pattern host and opens an interactive console.

Patterns can be enabled and disabled, parameters changed and the map style
switched or reloaded while watching how patterns are re-attached. Type 'help'
inside the shell for the list of commands.`,
		Args: cobra.NoArgs,
		RunE: runShell,
	}
	cmd.Flags().StringVarP(&shellOutput, "output", "o", string(formatting.FormatTable), "Output format (console, json, yaml, table)")
	return cmd
}

func runShell(cmd *cobra.Command, args []string) error {
	format, ok := formatting.ParseFormat(shellOutput)
	if !ok {
		return fmt.Errorf("unsupported output format %q", shellOutput)
	}

	// The console owns the terminal, so logs stay quiet unless debugging.
	cfg := app.NewConfig(rootDebug, !rootDebug, rootConfigPath)
	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	host := application.Host()

	ctx := commandContext(cmd)
	if err := host.Start(ctx); err != nil {
		return errors.Join(err, host.Stop())
	}

	formatter := formatting.NewFormatter(formatting.Options{Format: format})
	runErr := shell.New(host, formatter, cmd.OutOrStdout()).Run(ctx)
	return errors.Join(runErr, host.Stop())
}
