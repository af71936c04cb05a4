package cmd

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/armadaproject/tilefarm/internal/common/app"
	"github.com/armadaproject/tilefarm/internal/tilefarmctl"
)

func queryCmd() *cobra.Command {
	a := tilefarmctl.New()
	cmd := &cobra.Command{
		Use:   "query <lon> <lat>",
		Short: "Run the likelihood of the tile containing a coordinate.",
		Long: `Run the likelihood of the single tile containing (lon, lat), in degrees, and print the
result. Nothing is written to the output directory. Use -- before negative coordinates.`,
		Example: "tilefarm query -- 53.9 -54.05",
		Args:    cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a.Params)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			lon, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return errors.Wrapf(err, "invalid longitude %q", args[0])
			}
			lat, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return errors.Wrapf(err, "invalid latitude %q", args[1])
			}
			ctx, cancel := app.CreateContextWithShutdown(cmd.Context())
			defer cancel()
			return a.Query(ctx, lon, lat)
		},
	}
	return cmd
}
