package healpix

import "github.com/pkg/errors"

// ChildRange returns the half-open range of NESTED pixel numbers at fineNside that lie inside the
// NESTED pixel parent at coarseNside.
func ChildRange(parent, coarseNside, fineNside int64) (int64, int64, error) {
	ratio, err := ScaleFactor(coarseNside, fineNside)
	if err != nil {
		return 0, 0, err
	}
	if parent < 0 || parent >= Npix(coarseNside) {
		return 0, 0, errors.Errorf("pixel %d out of range for nside %d", parent, coarseNside)
	}
	n := ratio * ratio
	return parent * n, (parent + 1) * n, nil
}

// Parent returns the NESTED pixel at coarseNside containing the NESTED pixel child at fineNside.
func Parent(child, coarseNside, fineNside int64) (int64, error) {
	ratio, err := ScaleFactor(coarseNside, fineNside)
	if err != nil {
		return 0, err
	}
	return child / (ratio * ratio), nil
}

// ScaleFactor returns fineNside/coarseNside when both are valid resolutions and fineNside is at
// least as fine as coarseNside.
func ScaleFactor(coarseNside, fineNside int64) (int64, error) {
	if _, err := OrderOf(coarseNside); err != nil {
		return 0, err
	}
	if _, err := OrderOf(fineNside); err != nil {
		return 0, err
	}
	if fineNside < coarseNside {
		return 0, errors.Errorf("fine nside %d is coarser than nside %d", fineNside, coarseNside)
	}
	return fineNside / coarseNside, nil
}
