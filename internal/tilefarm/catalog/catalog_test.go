package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	tests := map[string]struct {
		data string
		lon  []float64
		lat  []float64
	}{
		"lon lat": {
			data: "id,lon,lat\n1,10.5,-3\n2,200,45.25\n",
			lon:  []float64{10.5, 200},
			lat:  []float64{-3, 45.25},
		},
		"ra dec with comments and spaces": {
			data: "# survey\nRA, DEC, MAG\n 1.0, 2.0, 20\n# skipped\n3.0, 4.0, 21\n",
			lon:  []float64{1, 3},
			lat:  []float64{2, 4},
		},
		"galactic columns win over equatorial": {
			data: "ra,dec,glon,glat\n1,2,3,4\n",
			lon:  []float64{3},
			lat:  []float64{4},
		},
		"header only": {
			data: "lon,lat\n",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			lon, lat, err := Read(strings.NewReader(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.lon, lon)
			assert.Equal(t, tc.lat, lat)
		})
	}
}

func TestRead_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":              "",
		"no position header": "x,y\n1,2\n",
		"bad number":         "lon,lat\n1,abc\n",
		"latitude too large": "lon,lat\n1,91\n",
		"ragged row":         "lon,lat\n1,2,3\n",
		"nan position":       "lon,lat\nNaN,NaN\n",
		"nan latitude":       "lon,lat\n1,NaN\n",
		"infinite longitude": "lon,lat\n+Inf,0\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Read(strings.NewReader(data))
			assert.Error(t, err)
		})
	}
}

func TestCsvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte("lon,lat\n5,6\n"), 0o644))

	lon, lat, err := NewCsvFile(path).Positions()
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, lon)
	assert.Equal(t, []float64{6}, lat)

	_, _, err = NewCsvFile(filepath.Join(t.TempDir(), "missing.csv")).Positions()
	assert.Error(t, err)
}

func TestPositions(t *testing.T) {
	lon, lat, err := (&Positions{Lon: []float64{1}, Lat: []float64{2}}).Positions()
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, lon)
	assert.Equal(t, []float64{2}, lat)

	_, _, err = (&Positions{Lon: []float64{1}}).Positions()
	assert.Error(t, err)
}
