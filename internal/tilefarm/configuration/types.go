package configuration

import (
	"path/filepath"
	"time"

	"github.com/armadaproject/tilefarm/internal/common/healpix"
	"github.com/armadaproject/tilefarm/internal/common/skycoords"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
)

const QueueConfigFileName = "config_queue.yaml"

// RunConfig is the complete configuration of one farm invocation. It is loaded and validated once
// and must not be modified afterwards; components receive it through their constructors.
type RunConfig struct {
	Coords     CoordsConfiguration
	Catalog    CatalogConfiguration
	Mangle     MangleConfiguration
	Mask       MaskConfiguration
	Output     OutputConfiguration
	Queue      QueueConfiguration
	Isochrone  IsochroneConfiguration
	Kernel     KernelConfiguration
	Likelihood LikelihoodConfiguration
	Payload    PayloadConfiguration
	Metrics    MetricsConfiguration
}

type CoordsConfiguration struct {
	// Fine resolution: the sub-cells every tile is divided into.
	NsidePixel int64 `validate:"required,gt=0"`
	// Coarse resolution of tiles when farming masks.
	NsideMaskSegmentation int64 `validate:"required,gt=0"`
	// Coarse resolution of tiles when farming likelihoods.
	NsideLikelihoodSegmentation int64 `validate:"required,gt=0"`
	// Frame of the catalog positions, CEL or GAL.
	Coordsys skycoords.System `validate:"required"`
	Ordering healpix.Ordering
}

type CatalogConfiguration struct {
	Infile string
}

// MangleConfiguration points at the survey footprint files mask generation queries, one per band.
type MangleConfiguration struct {
	Infile1  string
	Infile2  string
	Coordsys skycoords.System
}

// MaskConfiguration lists the mask maps, one per band, used by the likelihood.
type MaskConfiguration struct {
	Infile1 string
	Infile2 string
}

type OutputConfiguration struct {
	SavedirMag1Mask   string
	SavedirMag2Mask   string
	SavedirLikelihood string
	LogdirLikelihood  string
	LogdirMask        string
}

type QueueConfiguration struct {
	// Batch system to submit to. Only slurm is supported.
	Cluster string
	// Owner whose submitted jobs count towards MaxConcurrentJobs.
	User    string
	JobName string
	// Command line run by each job as <script...> <config> <tileId> <outputPath>.
	Script    []string
	Account   string
	Partition string
	MemoryMb  int `validate:"gte=0"`
	// Submissions block while the user has this many jobs in the queue.
	MaxConcurrentJobs int           `validate:"gt=0"`
	PollInterval      time.Duration `validate:"gt=0"`
	// Maximum queue status polls per submission. Zero waits forever.
	MaxPollAttempts int `validate:"gte=0"`
}

type IsochroneConfiguration struct {
	Infiles []string
	Weights []float64
}

type KernelConfiguration struct {
	// Plummer profile parameters; the first is the half-light radius in degrees.
	Params []float64
}

type LikelihoodConfiguration struct {
	DistanceModulusArray []float64
}

// PayloadConfiguration names the executables implementing the scientific computations.
type PayloadConfiguration struct {
	MaskCommand       []string
	LikelihoodCommand []string
}

type MetricsConfiguration struct {
	// When set, farm metrics are pushed here once the farm completes.
	PushGatewayUrl string
	JobName        string
}

// Band pairs an input file with the directory the tiles computed from it are written to.
type Band struct {
	Name    string
	Infile  string
	Savedir string
}

func (c *RunConfig) MaskBands() []Band {
	return []Band{
		{Name: "mag_1", Infile: c.Mangle.Infile1, Savedir: c.Output.SavedirMag1Mask},
		{Name: "mag_2", Infile: c.Mangle.Infile2, Savedir: c.Output.SavedirMag2Mask},
	}
}

// Logdir is where queued jobs of kind write their batch logs.
func (c *RunConfig) Logdir(kind domain.Kind) string {
	if kind == domain.Mask {
		return c.Output.LogdirMask
	}
	return c.Output.LogdirLikelihood
}

// SegmentationNside is the tile resolution used when farming kind.
func (c *RunConfig) SegmentationNside(kind domain.Kind) int64 {
	if kind == domain.Mask {
		return c.Coords.NsideMaskSegmentation
	}
	return c.Coords.NsideLikelihoodSegmentation
}

// QueueConfigPath is where the configuration snapshot referenced by queued jobs of kind is written.
func (c *RunConfig) QueueConfigPath(kind domain.Kind) string {
	if kind == domain.Mask {
		return filepath.Join(c.Output.LogdirMask, QueueConfigFileName)
	}
	return filepath.Join(c.Output.SavedirLikelihood, QueueConfigFileName)
}

// MangleCoordsys is the frame of the mangle files, defaulting to the catalog frame.
func (c *RunConfig) MangleCoordsys() skycoords.System {
	if c.Mangle.Coordsys == "" {
		return c.Coords.Coordsys
	}
	return c.Mangle.Coordsys
}
