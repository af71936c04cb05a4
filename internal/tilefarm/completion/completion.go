// Package completion decides whether a tile has already been computed. The output file of a tile
// is the only record that it was done: its path is derived from the tile id and the run
// configuration, and a tile counts as complete as soon as that path exists.
//
// Existence is all that is checked. An output left half-written by a killed run is treated as
// complete and will be skipped by every later run until it is removed by hand.
package completion

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/armadaproject/tilefarm/internal/common/skycoords"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
)

// OutputPath renders the file name of a tile's output. Distinct (kind, tile, resolutions,
// coordinate system) tuples always give distinct names.
func OutputPath(savedir string, kind domain.Kind, tileId, coarseNside, fineNside int64, coordsys skycoords.System) string {
	name := fmt.Sprintf("%s_%010d_nside_pix_%d_nside_subpix_%d_%s.fits",
		kind, tileId, coarseNside, fineNside, coordsys.Lower())
	return filepath.Join(savedir, name)
}

// LogPath is where the batch system writes the log of a queued tile job.
func LogPath(logdir, jobName string, tileId int64) string {
	return filepath.Join(logdir, fmt.Sprintf("%s_%d.log", jobName, tileId))
}

type Tracker interface {
	IsComplete(path string) (bool, error)
}

// FileTracker checks completion against the local filesystem.
type FileTracker struct{}

func NewFileTracker() *FileTracker {
	return &FileTracker{}
}

func (t *FileTracker) IsComplete(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.WithStack(err)
}

// EnsureDir creates dir and any parents. It is a no-op when dir already exists.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithMessagef(err, "error creating directory %s", dir)
	}
	return nil
}
