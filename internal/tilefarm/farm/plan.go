package farm

import (
	"github.com/armadaproject/tilefarm/internal/tilefarm/completion"
	"github.com/armadaproject/tilefarm/internal/tilefarm/configuration"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarm/tiler"
)

// Job is one tile of one band, in farm order.
type Job struct {
	Spec domain.JobSpec
	Band string
	// Position of the tile in the partition of its band.
	Index int
	Total int
	Nside int64
	// Centre of the tile in degrees.
	Lon float64
	Lat float64
	// Number of fine cells the computation evaluates.
	QueryPoints int
}

// Plan partitions the catalog at the tile resolution of kind and returns the jobs of the farm:
// tiles in discovery order, band by band.
func (c *Coordinator) Plan(kind domain.Kind) ([]Job, error) {
	t, err := c.tiler(kind)
	if err != nil {
		return nil, err
	}
	tiles, err := c.partition(t)
	if err != nil {
		return nil, err
	}
	var jobs []Job
	for _, band := range c.bands(kind) {
		for i, tile := range tiles {
			lon, lat := t.Center(tile.Id)
			queryPoints := len(tile.SubCells)
			if kind == domain.Likelihood {
				queryPoints = int(t.SubCellsPerTile())
			}
			jobs = append(jobs, Job{
				Spec:        c.jobSpec(kind, t, tile.Id, band),
				Band:        band.Name,
				Index:       i,
				Total:       len(tiles),
				Nside:       t.CoarseNside(),
				Lon:         lon,
				Lat:         lat,
				QueryPoints: queryPoints,
			})
		}
	}
	return jobs, nil
}

func (c *Coordinator) tiler(kind domain.Kind) (*tiler.Tiler, error) {
	return tiler.New(c.config.SegmentationNside(kind), c.config.Coords.NsidePixel, c.config.Coords.Ordering)
}

func (c *Coordinator) partition(t *tiler.Tiler) ([]tiler.Tile, error) {
	lon, lat, err := c.catalog.Positions()
	if err != nil {
		return nil, err
	}
	return t.Partition(lon, lat)
}

// bands returns the input and output locations farmed for kind: both mangle bands for masks and
// the catalog for likelihoods.
func (c *Coordinator) bands(kind domain.Kind) []configuration.Band {
	if kind == domain.Mask {
		return c.config.MaskBands()
	}
	return []configuration.Band{c.likelihoodBand()}
}

func (c *Coordinator) likelihoodBand() configuration.Band {
	return configuration.Band{
		Name:    "catalog",
		Infile:  c.config.Catalog.Infile,
		Savedir: c.config.Output.SavedirLikelihood,
	}
}

func (c *Coordinator) jobSpec(kind domain.Kind, t *tiler.Tiler, tileId int64, band configuration.Band) domain.JobSpec {
	coordsys := c.config.Coords.Coordsys
	return domain.JobSpec{
		Kind:             kind,
		TileId:           tileId,
		InputSourcePath:  band.Infile,
		OutputPath:       completion.OutputPath(band.Savedir, kind, tileId, t.CoarseNside(), t.FineNside(), coordsys),
		CoordinateSystem: coordsys,
	}
}
