// Package payload defines the scientific computations the farm runs per tile. The farm only
// orchestrates them: building masks and running likelihood grid searches is delegated to external
// executables configured under payload.* in the run configuration.
package payload

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/tilefarm/internal/common/healpix"
	"github.com/armadaproject/tilefarm/internal/common/skycoords"
)

// MaglimColumn is the sparse map column holding the limiting magnitude of each fine cell.
const MaglimColumn = "MAGLIM"

// MaskBuilder returns one limiting magnitude per (lon, lat) pair, read from a mangle footprint file.
type MaskBuilder interface {
	BuildMask(ctx context.Context, infile string, lon, lat []float64, tileId int64) ([]float64, error)
}

// LikelihoodRunner evaluates the likelihood of one region of interest over a grid of distance moduli.
type LikelihoodRunner interface {
	GridSearch(ctx context.Context, request LikelihoodRequest) (Result, error)
}

// Result is the output of one tile's computation.
type Result interface {
	Persist(path string) error
}

// LikelihoodRequest carries everything a grid search needs for one tile.
type LikelihoodRequest struct {
	TileId      int64            `json:"tileId"`
	Nside       int64            `json:"nside"`
	NsideSubpix int64            `json:"nsideSubpix"`
	Coordsys    skycoords.System `json:"coordsys"`
	// Centre of the region of interest in degrees.
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`

	CatalogInfile        string    `json:"catalogInfile"`
	MaskInfiles          []string  `json:"maskInfiles"`
	IsochroneInfiles     []string  `json:"isochroneInfiles"`
	IsochroneWeights     []float64 `json:"isochroneWeights,omitempty"`
	KernelParams         []float64 `json:"kernelParams"`
	DistanceModulusArray []float64 `json:"distanceModulusArray"`
}

// SparseMap stores values for a subset of the cells of a pixelization.
type SparseMap struct {
	Nside    int64                `json:"nside"`
	Coordsys skycoords.System     `json:"coordsys"`
	Ordering healpix.Ordering     `json:"ordering"`
	Pixels   []int64              `json:"pixels"`
	Columns  map[string][]float64 `json:"columns"`
}

func (m *SparseMap) Persist(path string) error {
	for name, values := range m.Columns {
		if len(values) != len(m.Pixels) {
			return errors.Errorf("column %s has %d values for %d pixels", name, len(values), len(m.Pixels))
		}
	}
	return writeYaml(path, m)
}

// GridSearchResult is the likelihood evaluated at every distance modulus of the request.
type GridSearchResult struct {
	Request LikelihoodRequest `json:"request"`
	// Keyed by quantity, e.g. TS or RICHNESS; one value per distance modulus.
	Values map[string][]float64 `json:"values"`
}

func (r *GridSearchResult) Persist(path string) error {
	return writeYaml(path, r)
}

func writeYaml(path string, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.WithMessagef(err, "error writing %s", path)
	}
	return nil
}
