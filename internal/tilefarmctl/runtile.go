package tilefarmctl

import (
	"context"
	"fmt"

	"github.com/armadaproject/tilefarm/internal/tilefarm/configuration"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
)

// RunTile computes a single tile and writes it to outputPath. It is the command every queued job
// runs, against the configuration snapshot written when the farm was submitted. infile overrides
// the input of the tile; it defaults to the catalog.
func (a *App) RunTile(ctx context.Context, configPath string, tileId int64, outputPath string, kind domain.Kind, infile string) error {
	config, err := configuration.LoadSnapshot(configPath)
	if err != nil {
		return err
	}
	if infile == "" {
		infile = config.Catalog.Infile
	}
	c, err := a.build(config)
	if err != nil {
		return err
	}
	defer c.pushMetrics()

	spec := domain.JobSpec{
		Kind:             kind,
		TileId:           tileId,
		InputSourcePath:  infile,
		OutputPath:       outputPath,
		CoordinateSystem: config.Coords.Coordsys,
	}
	c.log.WithField("tileId", tileId).Infof("running %s tile", kind)
	if err := c.executor.Run(ctx, spec); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Wrote %s\n", outputPath)
	return nil
}
