// Package tiler maps sky positions onto the two-level grid the farm works on: coarse tiles, each
// the unit of work, and the fine sub-cells nested inside them.
package tiler

import (
	"github.com/pkg/errors"

	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
	"github.com/armadaproject/tilefarm/internal/common/healpix"
	"github.com/armadaproject/tilefarm/internal/common/skycoords"
)

// Tile is one coarse cell together with the fine cells it contains that were hit by input
// positions, in first-seen order.
type Tile struct {
	Id       int64
	SubCells []int64
}

type Tiler struct {
	coarse   *healpix.Base
	fine     *healpix.Base
	ordering healpix.Ordering
	// number of fine cells per tile
	cellsPerTile int64
}

// CheckResolution fails with ErrInvalidResolution unless fine can be nested inside coarse, i.e.
// both are powers of two and fine = coarse * 2^k.
func CheckResolution(coarse, fine int64) error {
	if _, err := healpix.ScaleFactor(coarse, fine); err != nil {
		return errors.WithStack(&farmerrors.ErrInvalidResolution{Coarse: coarse, Fine: fine, Message: err.Error()})
	}
	return nil
}

func New(coarseNside, fineNside int64, ordering healpix.Ordering) (*Tiler, error) {
	if err := CheckResolution(coarseNside, fineNside); err != nil {
		return nil, err
	}
	coarse, err := healpix.NewBase(coarseNside)
	if err != nil {
		return nil, err
	}
	fine, err := healpix.NewBase(fineNside)
	if err != nil {
		return nil, err
	}
	ratio := fineNside / coarseNside
	return &Tiler{
		coarse:       coarse,
		fine:         fine,
		ordering:     ordering,
		cellsPerTile: ratio * ratio,
	}, nil
}

func (t *Tiler) CoarseNside() int64         { return t.coarse.Nside() }
func (t *Tiler) FineNside() int64           { return t.fine.Nside() }
func (t *Tiler) Ordering() healpix.Ordering { return t.ordering }

// SubCellsPerTile is (fine/coarse)^2.
func (t *Tiler) SubCellsPerTile() int64 { return t.cellsPerTile }

// Partition groups positions (degrees) by tile. Non-finite or out of range positions are rejected. Tiles are returned in the order their first
// position appears; fine cells within a tile are de-duplicated and keep first-seen order. The tile
// of a position is derived from its fine cell so both always agree.
func (t *Tiler) Partition(lon, lat []float64) ([]Tile, error) {
	if len(lon) != len(lat) {
		return nil, errors.Errorf("lon and lat length mismatch: %d != %d", len(lon), len(lat))
	}
	var tiles []Tile
	index := make(map[int64]int)
	seen := make(map[int64]struct{})
	for i := range lon {
		if err := skycoords.CheckPosition(lon[i], lat[i]); err != nil {
			return nil, errors.WithMessagef(err, "position %d", i)
		}
		tileId, cell := t.locate(lon[i], lat[i])
		idx, ok := index[tileId]
		if !ok {
			idx = len(tiles)
			index[tileId] = idx
			tiles = append(tiles, Tile{Id: tileId})
		}
		// fine cells are unique across tiles, so one set serves every tile
		if _, dup := seen[cell]; dup {
			continue
		}
		seen[cell] = struct{}{}
		tiles[idx].SubCells = append(tiles[idx].SubCells, cell)
	}
	return tiles, nil
}

// Expand enumerates every fine cell inside tileId, whether or not any position falls in it.
func (t *Tiler) Expand(tileId int64) ([]int64, error) {
	if err := t.CheckTile(tileId); err != nil {
		return nil, err
	}
	parent := tileId
	if t.ordering == healpix.Ring {
		parent = t.coarse.Ring2Nest(tileId)
	}
	first, last, err := healpix.ChildRange(parent, t.coarse.Nside(), t.fine.Nside())
	if err != nil {
		return nil, err
	}
	cells := make([]int64, 0, last-first)
	for child := first; child < last; child++ {
		if t.ordering == healpix.Ring {
			cells = append(cells, t.fine.Nest2Ring(child))
		} else {
			cells = append(cells, child)
		}
	}
	return cells, nil
}

// CheckTile fails unless tileId is a valid coarse cell.
func (t *Tiler) CheckTile(tileId int64) error {
	if tileId < 0 || tileId >= t.coarse.Npix() {
		return errors.Errorf("tile %d out of range for nside %d", tileId, t.coarse.Nside())
	}
	return nil
}

// TileOf returns the tile containing (lon, lat) in degrees.
func (t *Tiler) TileOf(lon, lat float64) int64 {
	tileId, _ := t.locate(lon, lat)
	return tileId
}

// Center returns the centre of a tile in degrees.
func (t *Tiler) Center(tileId int64) (float64, float64) {
	return t.coarse.Pix2LonLat(tileId, t.ordering)
}

// CellCenters returns the centres of fine cells in degrees.
func (t *Tiler) CellCenters(cells []int64) ([]float64, []float64) {
	lon := make([]float64, len(cells))
	lat := make([]float64, len(cells))
	for i, cell := range cells {
		lon[i], lat[i] = t.fine.Pix2LonLat(cell, t.ordering)
	}
	return lon, lat
}

func (t *Tiler) locate(lon, lat float64) (int64, int64) {
	nestCell := t.fine.LonLat2Pix(lon, lat, healpix.Nested)
	nestTile := nestCell / t.cellsPerTile
	if t.ordering == healpix.Ring {
		return t.coarse.Nest2Ring(nestTile), t.fine.Nest2Ring(nestCell)
	}
	return nestTile, nestCell
}
