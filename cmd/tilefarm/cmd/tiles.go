package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarmctl"
)

func tilesCmd() *cobra.Command {
	a := tilefarmctl.New()
	cmd := &cobra.Command{
		Use:       "tiles <mask|likelihood>",
		Short:     "List the tiles a farm would process and which are complete.",
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
			return a.Tiles(kind)
		},
	}
	return cmd
}
