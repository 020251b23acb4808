/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/fulmenhq/childcheck/pkg/buildinfo"
	"github.com/fulmenhq/childcheck/pkg/checker"
	"github.com/fulmenhq/childcheck/pkg/config"
	"github.com/fulmenhq/childcheck/pkg/exitcode"
	"github.com/fulmenhq/childcheck/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "childcheck",
		Short: "Verify content manifests against the files on disk",
		Long: `Childcheck walks a content tree level by level and confirms that every
manifest declares exactly the children present on disk. Run it before a
site build; a non-zero exit means navigation metadata has drifted.

Examples:
   childcheck check guidelines/groups          # Fail fast on the first problem
   childcheck check --collect-all --mode set   # Report every problem, compare ids
   childcheck check -f markdown -o report.md   # Write a markdown report
   childcheck version                          # Show version`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "warn", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("childcheck {{.Version}}\n")

	registerSubcommands(cmd)
	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newVersionCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and exits with the code matching the
// failure. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitCodeFor(err)
		logger.Error("Command execution failed", logger.Err(err), logger.String("exit", exitcode.String(code)))
		if !logger.Initialized() {
			_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		}
		os.Exit(code)
	}
}

// exitCodeFor maps an error onto a process exit code. When a collect-all
// pass fails for several reasons the most fundamental one wins: unreadable
// directories, then unreadable manifests, then mismatches.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return exitcode.TimeoutError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, checker.ErrInvalidOptions):
		return exitcode.ConfigError
	case checker.IsReadError(err):
		return exitcode.FileSystemError
	case checker.IsParseError(err):
		return exitcode.ParseError
	case checker.IsMismatch(err):
		return exitcode.ValidationError
	}
	return exitcode.GeneralError
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "childcheck",
	}

	if err := logger.Initialize(config); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
