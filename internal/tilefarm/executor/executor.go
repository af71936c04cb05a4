// Package executor computes single tiles in-process.
package executor

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
	"github.com/armadaproject/tilefarm/internal/common/skycoords"
	"github.com/armadaproject/tilefarm/internal/tilefarm/configuration"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarm/payload"
	"github.com/armadaproject/tilefarm/internal/tilefarm/tiler"
)

// LocalExecutor runs a tile's computation synchronously on the calling goroutine and persists the
// result at the output path of the job.
type LocalExecutor struct {
	config      *configuration.RunConfig
	maskBuilder payload.MaskBuilder
	likelihood  payload.LikelihoodRunner
	tilers      map[domain.Kind]*tiler.Tiler
	log         *log.Entry
}

func NewLocalExecutor(
	config *configuration.RunConfig,
	maskBuilder payload.MaskBuilder,
	likelihood payload.LikelihoodRunner,
	logger *log.Entry,
) (*LocalExecutor, error) {
	tilers := make(map[domain.Kind]*tiler.Tiler, 2)
	for _, kind := range []domain.Kind{domain.Mask, domain.Likelihood} {
		t, err := tiler.New(config.SegmentationNside(kind), config.Coords.NsidePixel, config.Coords.Ordering)
		if err != nil {
			return nil, err
		}
		tilers[kind] = t
	}
	return &LocalExecutor{
		config:      config,
		maskBuilder: maskBuilder,
		likelihood:  likelihood,
		tilers:      tilers,
		log:         logger,
	}, nil
}

// Tiler returns the tiling used for jobs of kind.
func (e *LocalExecutor) Tiler(kind domain.Kind) *tiler.Tiler {
	return e.tilers[kind]
}

// Run computes and persists the tile described by spec.
func (e *LocalExecutor) Run(ctx context.Context, spec domain.JobSpec) error {
	switch spec.Kind {
	case domain.Mask:
		return e.RunMask(ctx, spec)
	case domain.Likelihood:
		_, err := e.RunLikelihood(ctx, spec, true)
		return err
	default:
		return errors.WithStack(&farmerrors.ErrInvalidArgument{Name: "kind", Value: spec.Kind})
	}
}

// RunMask queries the limiting magnitude at the centre of every fine cell of the tile, whether or
// not it holds catalog objects, and writes them as a sparse map.
func (e *LocalExecutor) RunMask(ctx context.Context, spec domain.JobSpec) error {
	t := e.tilers[domain.Mask]
	cells, err := t.Expand(spec.TileId)
	if err != nil {
		return tileError(spec, err)
	}
	lon, lat := t.CellCenters(cells)

	mangleCoordsys := e.config.MangleCoordsys()
	if spec.CoordinateSystem != mangleCoordsys {
		lon, lat, err = skycoords.Convert(spec.CoordinateSystem, mangleCoordsys, lon, lat)
		if err != nil {
			return tileError(spec, err)
		}
	}

	e.log.WithFields(log.Fields{
		"tileId": spec.TileId,
		"cells":  len(cells),
		"infile": spec.InputSourcePath,
	}).Debug("building mask")
	maglim, err := e.maskBuilder.BuildMask(ctx, spec.InputSourcePath, lon, lat, spec.TileId)
	if err != nil {
		return tileError(spec, err)
	}
	if len(maglim) != len(cells) {
		return tileError(spec, errors.Errorf("mask builder returned %d values for %d cells", len(maglim), len(cells)))
	}

	sparse := &payload.SparseMap{
		Nside:    t.FineNside(),
		Coordsys: spec.CoordinateSystem,
		Ordering: t.Ordering(),
		Pixels:   cells,
		Columns:  map[string][]float64{payload.MaglimColumn: maglim},
	}
	if err := sparse.Persist(spec.OutputPath); err != nil {
		return tileError(spec, err)
	}
	return nil
}

// RunLikelihood runs the grid search for the region of interest centred on the tile. The result
// is written to the output path only when persist is set.
func (e *LocalExecutor) RunLikelihood(ctx context.Context, spec domain.JobSpec, persist bool) (payload.Result, error) {
	if err := e.tilers[domain.Likelihood].CheckTile(spec.TileId); err != nil {
		return nil, tileError(spec, err)
	}
	request := e.LikelihoodRequest(spec)

	e.log.WithFields(log.Fields{
		"tileId": spec.TileId,
		"lon":    request.Lon,
		"lat":    request.Lat,
	}).Debug("running likelihood grid search")
	result, err := e.likelihood.GridSearch(ctx, request)
	if err != nil {
		return nil, tileError(spec, err)
	}
	if persist {
		if err := result.Persist(spec.OutputPath); err != nil {
			return nil, tileError(spec, err)
		}
	}
	return result, nil
}

// LikelihoodRequest assembles the grid search inputs of the tile in spec.
func (e *LocalExecutor) LikelihoodRequest(spec domain.JobSpec) payload.LikelihoodRequest {
	t := e.tilers[domain.Likelihood]
	lon, lat := t.Center(spec.TileId)
	return payload.LikelihoodRequest{
		TileId:               spec.TileId,
		Nside:                t.CoarseNside(),
		NsideSubpix:          t.FineNside(),
		Coordsys:             spec.CoordinateSystem,
		Lon:                  lon,
		Lat:                  lat,
		CatalogInfile:        spec.InputSourcePath,
		MaskInfiles:          []string{e.config.Mask.Infile1, e.config.Mask.Infile2},
		IsochroneInfiles:     e.config.Isochrone.Infiles,
		IsochroneWeights:     e.config.Isochrone.Weights,
		KernelParams:         e.config.Kernel.Params,
		DistanceModulusArray: e.config.Likelihood.DistanceModulusArray,
	}
}

func tileError(spec domain.JobSpec, err error) error {
	return errors.WithStack(&farmerrors.ErrTileComputation{TileId: spec.TileId, Kind: string(spec.Kind), Err: err})
}
