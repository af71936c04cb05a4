package tilefarmctl

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
)

// Query runs the likelihood of the tile containing (lon, lat) and prints the result. Nothing is
// written to the output directories.
func (a *App) Query(ctx context.Context, lon, lat float64) error {
	config, err := a.loadConfig(a.Params.ConfigPath)
	if err != nil {
		return err
	}
	c, err := a.build(config)
	if err != nil {
		return err
	}
	defer c.pushMetrics()

	result, err := c.coordinator.PointQuery(ctx, lon, lat)
	if errors.Is(err, farmerrors.ErrOutOfRegion) {
		fmt.Fprintf(a.Out, "Coordinates (%.3f, %.3f) not in analysis region\n", lon, lat)
		return nil
	}
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(result)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = a.Out.Write(b)
	return errors.WithStack(err)
}
