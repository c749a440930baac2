package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the package for the current system",
		Long: "Build plans the package for the current system, or the systems selected with " +
			"--system or --all, and realizes every derivation.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, _ := cmd.Flags().GetStringSlice("system")
			all, _ := cmd.Flags().GetBool("all")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			asJSON, _ := cmd.Flags().GetBool("json")

			systems := make([]domain.System, 0, len(names))
			for _, name := range names {
				system, err := domain.ParseSystem(name)
				if err != nil {
					return err
				}
				systems = append(systems, system)
			}

			return c.app.Build(cmd.Context(), app.BuildOptions{
				Systems: systems,
				All:     all,
				DryRun:  dryRun,
				JSON:    asJSON,
			})
		},
	}
	cmd.Flags().StringSliceP("system", "s", nil, "Build for the given system (repeatable)")
	cmd.Flags().BoolP("all", "a", false, "Build for every project system")
	cmd.Flags().BoolP("dry-run", "n", false, "Plan without realizing")
	cmd.MarkFlagsMutuallyExclusive("system", "all")
	return cmd
}
