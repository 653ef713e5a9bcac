package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/formatting"
)

var runOutput string

// newRunCmd creates the command that runs the host until it is interrupted.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pattern host until interrupted",
		Long: `Runs the pattern host without user interaction.

The host loads config.yaml and the pattern manifest from the configuration
directory, attaches every enabled pattern once the map style has loaded and
keeps following manifest edits. When running under systemd the service is
reported ready as soon as the first map becomes ready.

On exit the final pattern status is printed.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
	cmd.Flags().StringVarP(&runOutput, "output", "o", string(formatting.FormatTable), "Status output format (console, json, yaml, table)")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	format, ok := formatting.ParseFormat(runOutput)
	if !ok {
		return fmt.Errorf("unsupported output format %q", runOutput)
	}
	formatter := formatting.NewFormatter(formatting.Options{Format: format, Quiet: rootSilent})
	out := cmd.OutOrStdout()

	cfg := app.NewConfig(rootDebug, rootSilent, rootConfigPath)
	cfg.OnShutdown = func(status app.HostStatus) {
		fmt.Fprintln(out, formatter.FormatStatus(status))
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := commandContext(cmd)
	if !rootSilent {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " Waiting for the map style to load..."
		s.Start()
		go func() {
			select {
			case <-application.Host().Ready():
			case <-ctx.Done():
			}
			s.Stop()
		}()
	}

	return application.Run(ctx)
}
