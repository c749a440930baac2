package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the derivation store and caches",
		Long:  "Clean removes the derivation store and the tool and environment caches. Without flags it removes all of them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _ := cmd.Flags().GetBool("store")
			cache, _ := cmd.Flags().GetBool("cache")
			return c.app.Clean(cmd.Context(), app.CleanOptions{Store: store, Cache: cache})
		},
	}

	cmd.Flags().Bool("store", false, "Remove the derivation store")
	cmd.Flags().Bool("cache", false, "Remove the tool and environment caches")

	return cmd
}
