package cmd

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/armadaproject/tilefarm/internal/common/app"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarmctl"
)

func runTileCmd() *cobra.Command {
	a := tilefarmctl.New()
	cmd := &cobra.Command{
		Use:   "run-tile <config> <tileId> <outputPath>",
		Short: "Compute a single tile. This is the command run by queued jobs.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tileId, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid tile id %q", args[1])
			}
			kindFlag, err := cmd.Flags().GetString("kind")
			if err != nil {
				return err
			}
			kind, err := domain.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			infile, err := cmd.Flags().GetString("infile")
			if err != nil {
				return err
			}
			ctx, cancel := app.CreateContextWithShutdown(cmd.Context())
			defer cancel()
			return a.RunTile(ctx, args[0], tileId, args[2], kind, infile)
		},
	}
	cmd.Flags().String("kind", string(domain.Likelihood), "Computation to run: mask or likelihood")
	cmd.Flags().String("infile", "", "Input of the tile; defaults to the catalog")
	return cmd
}
