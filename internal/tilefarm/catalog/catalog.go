// Package catalog loads the object positions the farm partitions into tiles.
package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/tilefarm/internal/common/skycoords"
)

// Source provides object positions in degrees, in the coordinate system of the run configuration.
type Source interface {
	Positions() (lon []float64, lat []float64, err error)
}

// Column name pairs recognised in a catalog header, in order of preference.
var columnPairs = [][2]string{
	{"lon", "lat"},
	{"glon", "glat"},
	{"ra", "dec"},
}

// CsvFile reads positions from a CSV file with a header row. Columns other than the position
// columns are ignored. Lines starting with # are comments.
type CsvFile struct {
	Path string
}

func NewCsvFile(path string) *CsvFile {
	return &CsvFile{Path: path}
}

func (c *CsvFile) Positions() ([]float64, []float64, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "error opening catalog %s", c.Path)
	}
	defer f.Close()
	lon, lat, err := Read(f)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "error reading catalog %s", c.Path)
	}
	return lon, lat, nil
}

// Read parses CSV data whose header names the position columns.
func Read(r io.Reader) ([]float64, []float64, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("catalog is empty")
	}
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	lonIdx, latIdx, err := positionColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var lon, lat []float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
		line, _ := reader.FieldPos(0)
		l, err := parseCoordinate(record[lonIdx], line)
		if err != nil {
			return nil, nil, err
		}
		b, err := parseCoordinate(record[latIdx], line)
		if err != nil {
			return nil, nil, err
		}
		if err := skycoords.CheckPosition(l, b); err != nil {
			return nil, nil, errors.WithMessagef(err, "line %d", line)
		}
		lon = append(lon, l)
		lat = append(lat, b)
	}
	return lon, lat, nil
}

func positionColumns(header []string) (int, int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, pair := range columnPairs {
		lonIdx, okLon := index[pair[0]]
		latIdx, okLat := index[pair[1]]
		if okLon && okLat {
			return lonIdx, latIdx, nil
		}
	}
	return 0, 0, errors.Errorf("catalog header %v has no position columns (lon,lat / glon,glat / ra,dec)", header)
}

func parseCoordinate(s string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "line %d: invalid coordinate %q", line, s)
	}
	return v, nil
}

// Positions is an in-memory Source.
type Positions struct {
	Lon []float64
	Lat []float64
}

func (p *Positions) Positions() ([]float64, []float64, error) {
	if len(p.Lon) != len(p.Lat) {
		return nil, nil, errors.Errorf("lon and lat length mismatch: %d != %d", len(p.Lon), len(p.Lat))
	}
	return p.Lon, p.Lat, nil
}
