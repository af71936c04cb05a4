package configuration

import (
	"path/filepath"

	"github.com/pkg/errors"

	commonconfig "github.com/armadaproject/tilefarm/internal/common/config"
	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarm/tiler"
)

// Validate checks everything that does not depend on what is being farmed.
func (c *RunConfig) Validate() error {
	if err := commonconfig.Validate(c); err != nil {
		return err
	}
	if err := tiler.CheckResolution(c.Coords.NsideMaskSegmentation, c.Coords.NsidePixel); err != nil {
		return err
	}
	if err := tiler.CheckResolution(c.Coords.NsideLikelihoodSegmentation, c.Coords.NsidePixel); err != nil {
		return err
	}
	if len(c.Isochrone.Weights) > 0 && len(c.Isochrone.Weights) != len(c.Isochrone.Infiles) {
		return errors.WithStack(&farmerrors.ErrInvalidArgument{
			Name:    "isochrone.weights",
			Value:   c.Isochrone.Weights,
			Message: "one weight per isochrone infile is required",
		})
	}
	return nil
}

// ValidateFor checks the settings a farm of kind in mode needs, after Validate.
func (c *RunConfig) ValidateFor(kind domain.Kind, mode domain.RunMode) error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch kind {
	case domain.Mask:
		savedirs := make(map[string]string)
		for _, band := range c.MaskBands() {
			if band.Infile == "" {
				return missing("mangle.infile of band " + band.Name)
			}
			if band.Savedir == "" {
				return missing("output.savedir of band " + band.Name)
			}
			// output names do not carry the band, so bands sharing a directory would overwrite each other
			dir := filepath.Clean(band.Savedir)
			if other, ok := savedirs[dir]; ok {
				return errors.WithStack(&farmerrors.ErrInvalidArgument{
					Name:    "output.savedir of band " + band.Name,
					Value:   band.Savedir,
					Message: "already used by band " + other,
				})
			}
			savedirs[dir] = band.Name
		}
	case domain.Likelihood:
		if c.Output.SavedirLikelihood == "" {
			return missing("output.savedirLikelihood")
		}
		if len(c.Likelihood.DistanceModulusArray) == 0 {
			return missing("likelihood.distanceModulusArray")
		}
	default:
		return errors.WithStack(&farmerrors.ErrInvalidArgument{Name: "kind", Value: kind})
	}

	if mode == domain.Queue {
		if len(c.Queue.Script) == 0 || c.Queue.Script[0] == "" {
			return missing("queue.script")
		}
		if c.Queue.User == "" {
			return missing("queue.user")
		}
		if c.Queue.JobName == "" {
			return missing("queue.jobName")
		}
		if c.Logdir(kind) == "" {
			if kind == domain.Mask {
				return missing("output.logdirMask")
			}
			return missing("output.logdirLikelihood")
		}
		if c.Queue.Cluster != "slurm" {
			return errors.WithStack(&farmerrors.ErrInvalidArgument{
				Name:    "queue.cluster",
				Value:   c.Queue.Cluster,
				Message: "only slurm is supported",
			})
		}
	}
	return nil
}

func missing(field string) error {
	return errors.WithStack(&farmerrors.ErrInvalidArgument{Name: field, Value: "", Message: "required"})
}
