package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/tilefarm/internal/common/app"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarmctl"
)

func farmCmd() *cobra.Command {
	a := tilefarmctl.New()
	cmd := &cobra.Command{
		Use:   "farm <mask|likelihood>",
		Short: "Compute every incomplete tile of the catalog.",
		Long: `Partition the catalog into tiles and compute every tile whose output does not exist yet.

Tiles run one at a time in this process unless --queue is given, in which case each tile is
submitted as a batch job once the queue has capacity. Re-running the command only processes tiles
that have no output.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.Mask), string(domain.Likelihood)},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a.Params)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return err
			}
			useQueue, err := cmd.Flags().GetBool("queue")
			if err != nil {
				return err
			}
			mode := domain.Local
			if useQueue {
				mode = domain.Queue
			}
			ctx, cancel := app.CreateContextWithShutdown(cmd.Context())
			defer cancel()
			return a.Farm(ctx, kind, mode)
		},
	}
	cmd.Flags().Bool("queue", false, "Submit tiles to the batch queue instead of running them locally")
	return cmd
}
