package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- args...]",
		Short: "Build the app for the current system and run it",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Run(cmd.Context(), args)
		},
	}
}

func (c *CLI) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start a shell with the toolchain and dev tools on PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Shell(cmd.Context())
		},
	}
}
