package tilefarmctl

import (
	"fmt"
	"text/tabwriter"

	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
)

// Tiles lists the tiles a farm of kind would process and whether each one is complete.
func (a *App) Tiles(kind domain.Kind) error {
	config, err := a.loadConfig(a.Params.ConfigPath)
	if err != nil {
		return err
	}
	c, err := a.build(config)
	if err != nil {
		return err
	}
	statuses, err := c.coordinator.ListTiles(kind)
	if err != nil {
		return err
	}

	complete := 0
	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	fmt.Fprintln(w, "BAND\tTILE\tLON\tLAT\tCOMPLETE\tOUTPUT")
	for _, status := range statuses {
		job := status.Job
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%t\t%s\n",
			job.Band, job.Spec.TileId, job.Lon, job.Lat, status.Complete, job.Spec.OutputPath)
		if status.Complete {
			complete++
		}
	}
	w.Flush()
	fmt.Fprintf(a.Out, "%d of %d tiles complete\n", complete, len(statuses))
	return nil
}
