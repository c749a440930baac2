// Package commands implements the CLI commands for kiln.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	logs    LogConfigurer
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, opts app.BuildOptions) error
	Run(ctx context.Context, args []string) error
	Shell(ctx context.Context) error
	Plan(ctx context.Context, opts app.PlanOptions) error
	Watch(ctx context.Context) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// LogConfigurer is implemented by loggers that honor the global output flags.
type LogConfigurer interface {
	SetJSON(enable bool)
	SetLevel(level domain.LogLevel)
}

// New creates a new CLI instance with the given app. logs may be nil.
func New(a Application, logs LogConfigurer) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Reproducible per-system builds and dev shells for Cargo projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json", false, "Write reports and logs as JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug output")

	c := &CLI{
		app:     a,
		logs:    logs,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.logs == nil {
			return
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		c.logs.SetJSON(asJSON)
		if verbose {
			c.logs.SetLevel(domain.LogLevelDebug)
		}
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newShellCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
