package healpix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNsides = []int64{1, 2, 4, 8, 16}

func TestOrderOf(t *testing.T) {
	tests := map[string]struct {
		nside    int64
		expected uint
		wantErr  bool
	}{
		"one":            {nside: 1, expected: 0},
		"power of two":   {nside: 64, expected: 6},
		"max":            {nside: 1 << MaxOrder, expected: MaxOrder},
		"zero":           {nside: 0, wantErr: true},
		"negative":       {nside: -4, wantErr: true},
		"not power of 2": {nside: 12, wantErr: true},
		"too fine":       {nside: 1 << (MaxOrder + 1), wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			order, err := OrderOf(tc.nside)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, order)
		})
	}
}

func TestRingNestRoundTrip(t *testing.T) {
	for _, nside := range testNsides {
		b, err := NewBase(nside)
		require.NoError(t, err)
		seen := make(map[int64]bool, b.Npix())
		for pix := int64(0); pix < b.Npix(); pix++ {
			nest := b.Ring2Nest(pix)
			require.GreaterOrEqual(t, nest, int64(0))
			require.Less(t, nest, b.Npix())
			assert.False(t, seen[nest], "nside %d: nest pixel %d produced twice", nside, nest)
			seen[nest] = true
			assert.Equal(t, pix, b.Nest2Ring(nest), "nside %d pixel %d", nside, pix)
		}
	}
}

func TestAng2PixOfCentreReturnsPixel(t *testing.T) {
	for _, nside := range testNsides {
		b, err := NewBase(nside)
		require.NoError(t, err)
		for _, ordering := range []Ordering{Ring, Nested} {
			for pix := int64(0); pix < b.Npix(); pix++ {
				theta, phi := b.Pix2Ang(pix, ordering)
				assert.Equal(t, pix, b.Ang2Pix(theta, phi, ordering), "nside %d %s pixel %d", nside, ordering, pix)
			}
		}
	}
}

func TestNestedAndRingCentresAgree(t *testing.T) {
	b, err := NewBase(8)
	require.NoError(t, err)
	for pix := int64(0); pix < b.Npix(); pix++ {
		thetaN, phiN := b.Pix2Ang(pix, Nested)
		thetaR, phiR := b.Pix2Ang(b.Nest2Ring(pix), Ring)
		assert.InDelta(t, thetaR, thetaN, 1e-12)
		assert.InDelta(t, math.Mod(phiR, 2*math.Pi), math.Mod(phiN, 2*math.Pi), 1e-12)
	}
}

func TestKnownPixels(t *testing.T) {
	b, err := NewBase(1)
	require.NoError(t, err)

	theta, phi := b.Pix2Ang(0, Ring)
	assert.InDelta(t, math.Acos(2.0/3.0), theta, 1e-12)
	assert.InDelta(t, math.Pi/4, phi, 1e-12)

	assert.Equal(t, int64(4), b.Ang2Pix(math.Pi/2, 0, Ring))
	assert.Equal(t, int64(4), b.Ang2Pix(math.Pi/2, 0, Nested))

	b, err = NewBase(16)
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.LonLat2Pix(0, 90, Ring))
	assert.Equal(t, int64(16*16-1), b.LonLat2Pix(0, 90, Nested))
	assert.Equal(t, b.Npix()-4, b.LonLat2Pix(0, -90, Ring))
}

func TestChildrenLieInsideParent(t *testing.T) {
	coarse, err := NewBase(4)
	require.NoError(t, err)
	fine, err := NewBase(32)
	require.NoError(t, err)
	for parent := int64(0); parent < coarse.Npix(); parent++ {
		first, last, err := ChildRange(parent, 4, 32)
		require.NoError(t, err)
		assert.Equal(t, int64(64), last-first)
		for child := first; child < last; child++ {
			lon, lat := fine.Pix2LonLat(child, Nested)
			assert.Equal(t, parent, coarse.LonLat2Pix(lon, lat, Nested))
			p, err := Parent(child, 4, 32)
			require.NoError(t, err)
			assert.Equal(t, parent, p)
		}
	}
}

func TestScaleFactor(t *testing.T) {
	ratio, err := ScaleFactor(8, 64)
	require.NoError(t, err)
	assert.Equal(t, int64(8), ratio)

	_, err = ScaleFactor(64, 8)
	assert.Error(t, err)
	_, err = ScaleFactor(8, 48)
	assert.Error(t, err)
	_, _, err = ChildRange(12, 1, 2)
	assert.Error(t, err)
}

func TestParseOrdering(t *testing.T) {
	o, err := ParseOrdering("NEST")
	require.NoError(t, err)
	assert.Equal(t, Nested, o)
	o, err = ParseOrdering("")
	require.NoError(t, err)
	assert.Equal(t, Ring, o)
	_, err = ParseOrdering("zorder")
	assert.Error(t, err)
}
