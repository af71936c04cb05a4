// Package farm drives a whole farm invocation: it partitions the catalog into tiles, skips tiles
// whose output already exists and runs or submits the rest, one tile at a time.
package farm

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
	"github.com/armadaproject/tilefarm/internal/common/logging"
	"github.com/armadaproject/tilefarm/internal/common/skycoords"
	"github.com/armadaproject/tilefarm/internal/tilefarm/catalog"
	"github.com/armadaproject/tilefarm/internal/tilefarm/completion"
	"github.com/armadaproject/tilefarm/internal/tilefarm/configuration"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarm/metrics"
	"github.com/armadaproject/tilefarm/internal/tilefarm/payload"
	"github.com/armadaproject/tilefarm/internal/tilefarm/queue"
)

// Executor computes one tile in-process.
type Executor interface {
	Run(ctx context.Context, spec domain.JobSpec) error
	RunLikelihood(ctx context.Context, spec domain.JobSpec, persist bool) (payload.Result, error)
}

// Submitter hands one tile to the batch queue.
type Submitter interface {
	Submit(ctx context.Context, spec domain.JobSpec) (queue.JobHandle, error)
}

// Report summarises a farm invocation. Tile failures do not stop the farm and are collected in
// Errors.
type Report struct {
	RunId     string
	Kind      domain.Kind
	Mode      domain.RunMode
	Tiles     int
	Skipped   int
	Ran       int
	Submitted int
	Failed    int
	Errors    *multierror.Error
}

// Err returns the tile failures of the farm, or nil when every tile succeeded.
func (r *Report) Err() error {
	return r.Errors.ErrorOrNil()
}

type Coordinator struct {
	config    *configuration.RunConfig
	catalog   catalog.Source
	executor  Executor
	submitter Submitter
	tracker   completion.Tracker
	metrics   *metrics.Metrics
	runId     string
	log       *log.Entry
}

// NewCoordinator creates a Coordinator. submitter may be nil when only local runs are needed.
func NewCoordinator(
	config *configuration.RunConfig,
	catalog catalog.Source,
	executor Executor,
	submitter Submitter,
	tracker completion.Tracker,
	metrics *metrics.Metrics,
	runId string,
	logger *log.Entry,
) *Coordinator {
	return &Coordinator{
		config:    config,
		catalog:   catalog,
		executor:  executor,
		submitter: submitter,
		tracker:   tracker,
		metrics:   metrics,
		runId:     runId,
		log:       logger.WithField("runId", runId),
	}
}

// Farm computes every tile of kind touched by the catalog that has no output yet, either in
// process or through the batch queue. Configuration and catalog problems abort the farm before
// anything is dispatched; failures of single tiles are logged and collected in the Report.
func (c *Coordinator) Farm(ctx context.Context, kind domain.Kind, mode domain.RunMode) (*Report, error) {
	report := &Report{RunId: c.runId, Kind: kind, Mode: mode}
	if err := c.config.ValidateFor(kind, mode); err != nil {
		return report, err
	}
	if mode == domain.Queue && c.submitter == nil {
		return report, errors.WithStack(&farmerrors.ErrInvalidArgument{
			Name:    "mode",
			Value:   mode,
			Message: "no queue submitter configured",
		})
	}
	if err := c.init(kind, mode); err != nil {
		return report, err
	}
	jobs, err := c.Plan(kind)
	if err != nil {
		return report, err
	}
	report.Tiles = len(jobs)
	logger := c.log.WithFields(log.Fields{"kind": kind, "mode": mode})
	logger.Infof("farming %d tiles", len(jobs))

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, errors.WithStack(err)
		}
		if err := c.dispatch(ctx, job, mode, report, logger); err != nil {
			return report, err
		}
	}

	logger.WithFields(log.Fields{
		"tiles":     report.Tiles,
		"skipped":   report.Skipped,
		"ran":       report.Ran,
		"submitted": report.Submitted,
		"failed":    report.Failed,
	}).Info("farm done")
	return report, nil
}

// init prepares the output locations. In queue mode the configuration snapshot read by every job
// is written once, before the first submission.
func (c *Coordinator) init(kind domain.Kind, mode domain.RunMode) error {
	for _, band := range c.bands(kind) {
		if err := completion.EnsureDir(band.Savedir); err != nil {
			return err
		}
	}
	if mode != domain.Queue {
		return nil
	}
	if err := completion.EnsureDir(c.config.Logdir(kind)); err != nil {
		return err
	}
	path := c.config.QueueConfigPath(kind)
	if err := c.config.WriteSnapshot(path); err != nil {
		return err
	}
	c.log.WithField("path", path).Info("wrote queue configuration")
	return nil
}

// dispatch handles one job. Only errors that must stop the farm are returned.
func (c *Coordinator) dispatch(ctx context.Context, job Job, mode domain.RunMode, report *Report, logger *log.Entry) error {
	spec := job.Spec
	logger = logger.WithFields(log.Fields{"tileId": spec.TileId, "band": job.Band})

	complete, err := c.tracker.IsComplete(spec.OutputPath)
	if err != nil {
		c.fail(report, spec, err, logger)
		return nil
	}
	if complete {
		logger.Infof("%s already exists. Skipping ...", spec.OutputPath)
		report.Skipped++
		c.metrics.RecordTile(spec.Kind, metrics.Skipped)
		return nil
	}
	logger.Infof("(%d/%d) pixel %d nside %d; %d query points; %s (lon, lat) = (%.3f, %.3f)",
		job.Index+1, job.Total, spec.TileId, job.Nside, job.QueryPoints, spec.CoordinateSystem, job.Lon, job.Lat)

	switch mode {
	case domain.Queue:
		_, err = c.submitter.Submit(ctx, spec)
		if err == nil {
			report.Submitted++
			c.metrics.RecordTile(spec.Kind, metrics.Submitted)
		}
	default:
		start := time.Now()
		err = c.executor.Run(ctx, spec)
		c.metrics.ObserveTileDuration(spec.Kind, time.Since(start))
		if err == nil {
			report.Ran++
			c.metrics.RecordTile(spec.Kind, metrics.Ran)
		}
	}
	if err == nil {
		return nil
	}
	if !farmerrors.IsTileLevel(err) {
		return err
	}
	c.fail(report, spec, err, logger)
	return nil
}

func (c *Coordinator) fail(report *Report, spec domain.JobSpec, err error, logger *log.Entry) {
	logging.WithStacktrace(logger, err).WithError(err).Error("tile failed")
	report.Failed++
	report.Errors = multierror.Append(report.Errors, err)
	c.metrics.RecordTile(spec.Kind, metrics.Failed)
}

// PointQuery runs the likelihood of the single tile containing (lon, lat), in process and without
// writing its output, and returns the result. Coordinates outside every tile touched by the
// catalog return farmerrors.ErrOutOfRegion and run nothing; invalid coordinates return
// *farmerrors.ErrInvalidArgument.
func (c *Coordinator) PointQuery(ctx context.Context, lon, lat float64) (payload.Result, error) {
	if err := skycoords.CheckPosition(lon, lat); err != nil {
		return nil, errors.WithStack(&farmerrors.ErrInvalidArgument{
			Name:    "position",
			Value:   [2]float64{lon, lat},
			Message: err.Error(),
		})
	}
	if err := c.config.ValidateFor(domain.Likelihood, domain.Local); err != nil {
		return nil, err
	}
	t, err := c.tiler(domain.Likelihood)
	if err != nil {
		return nil, err
	}
	tiles, err := c.partition(t)
	if err != nil {
		return nil, err
	}
	tileId := t.TileOf(lon, lat)
	found := false
	for _, tile := range tiles {
		if tile.Id == tileId {
			found = true
			break
		}
	}
	logger := c.log.WithFields(log.Fields{"kind": domain.Likelihood, "tileId": tileId})
	if !found {
		logger.Warnf("coordinates (%.3f, %.3f) not in analysis region", lon, lat)
		return nil, farmerrors.ErrOutOfRegion
	}

	spec := c.jobSpec(domain.Likelihood, t, tileId, c.likelihoodBand())
	logger.Infof("running point query at (%.3f, %.3f)", lon, lat)
	result, err := c.executor.RunLikelihood(ctx, spec, false)
	if err != nil {
		c.metrics.RecordTile(domain.Likelihood, metrics.Failed)
		return nil, err
	}
	c.metrics.RecordTile(domain.Likelihood, metrics.Ran)
	return result, nil
}

// TileStatus is one entry of the listing of a farm.
type TileStatus struct {
	Job      Job
	Complete bool
}

// ListTiles plans the farm of kind and reports which tiles are complete, without running anything.
func (c *Coordinator) ListTiles(kind domain.Kind) ([]TileStatus, error) {
	jobs, err := c.Plan(kind)
	if err != nil {
		return nil, err
	}
	statuses := make([]TileStatus, len(jobs))
	for i, job := range jobs {
		complete, err := c.tracker.IsComplete(job.Spec.OutputPath)
		if err != nil {
			return nil, err
		}
		statuses[i] = TileStatus{Job: job, Complete: complete}
	}
	return statuses, nil
}
