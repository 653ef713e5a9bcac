package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
)

// Global flags shared by every command that builds a host.
var (
	rootDebug      bool
	rootSilent     bool
	rootConfigPath string
)

// rootCmd represents the base command for the patternhost application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "patternhost",
	Short: "Keep map overlay patterns attached to a renderer",
	Long: `patternhost keeps a declared set of map overlay patterns (heatmaps,
choropleths, labels, ...) attached to a map renderer whose style can be reloaded
at any time. Patterns are set up once per style, re-attached after every reload
and cleaned up exactly once when they are withdrawn.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "patternhost version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

// commandContext returns the command's context, or a background context when
// the command was invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootSilent, "silent", false, "Disable all log output")
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config-path", "", "Configuration directory (default is $HOME/.config/patternhost)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newShellCmd())
}
