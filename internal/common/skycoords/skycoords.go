// Package skycoords converts positions between the celestial (equatorial J2000) and galactic frames.
package skycoords

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

type System string

const (
	Celestial System = "CEL"
	Galactic  System = "GAL"
)

// CheckPosition fails unless lon is finite and lat lies in [-90, 90], both in degrees.
func CheckPosition(lon, lat float64) error {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return errors.Errorf("longitude %v is not finite", lon)
	}
	if !(lat >= -90 && lat <= 90) {
		return errors.Errorf("latitude %v out of range", lat)
	}
	return nil
}

// ParseSystem accepts "cel" or "gal" in any case.
func ParseSystem(s string) (System, error) {
	switch System(strings.ToUpper(strings.TrimSpace(s))) {
	case Celestial:
		return Celestial, nil
	case Galactic:
		return Galactic, nil
	default:
		return "", errors.Errorf("unknown coordinate system %q, expected cel or gal", s)
	}
}

// Lower is the form used in output file names.
func (s System) Lower() string {
	return strings.ToLower(string(s))
}

// Rotation from equatorial J2000 to galactic cartesian coordinates.
var celToGal = [3][3]float64{
	{-0.0548755604162154, -0.8734370902348850, -0.4838350155487132},
	{0.4941094278755837, -0.4448296299600112, 0.7469822444972189},
	{-0.8676661490190047, -0.1980763734312015, 0.4559837761750669},
}

// Convert rotates every (lon, lat) pair, in degrees, from one frame to another. The input slices
// are not modified.
func Convert(from, to System, lon, lat []float64) ([]float64, []float64, error) {
	if len(lon) != len(lat) {
		return nil, nil, errors.Errorf("lon and lat length mismatch: %d != %d", len(lon), len(lat))
	}
	outLon := make([]float64, len(lon))
	outLat := make([]float64, len(lat))
	if from == to {
		copy(outLon, lon)
		copy(outLat, lat)
		return outLon, outLat, nil
	}

	var transpose bool
	switch {
	case from == Celestial && to == Galactic:
	case from == Galactic && to == Celestial:
		transpose = true
	default:
		return nil, nil, errors.Errorf("unsupported conversion %s -> %s", from, to)
	}

	for i := range lon {
		outLon[i], outLat[i] = rotate(lon[i], lat[i], transpose)
	}
	return outLon, outLat, nil
}

func rotate(lon, lat float64, transpose bool) (float64, float64) {
	l := lon * math.Pi / 180
	b := lat * math.Pi / 180
	v := [3]float64{math.Cos(b) * math.Cos(l), math.Cos(b) * math.Sin(l), math.Sin(b)}

	var r [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if transpose {
				r[i] += celToGal[j][i] * v[j]
			} else {
				r[i] += celToGal[i][j] * v[j]
			}
		}
	}

	outLon := math.Atan2(r[1], r[0]) * 180 / math.Pi
	if outLon < 0 {
		outLon += 360
	}
	z := math.Max(-1, math.Min(1, r[2]))
	return outLon, math.Asin(z) * 180 / math.Pi
}
