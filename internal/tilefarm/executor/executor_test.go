package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
	"github.com/armadaproject/tilefarm/internal/common/healpix"
	"github.com/armadaproject/tilefarm/internal/common/logging"
	"github.com/armadaproject/tilefarm/internal/common/skycoords"
	"github.com/armadaproject/tilefarm/internal/tilefarm/configuration"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarm/payload"
)

type fakeMaskBuilder struct {
	infile string
	lon    []float64
	lat    []float64
	tileId int64
	// when nil one value per position is returned
	values []float64
	err    error
}

func (b *fakeMaskBuilder) BuildMask(_ context.Context, infile string, lon, lat []float64, tileId int64) ([]float64, error) {
	b.infile, b.lon, b.lat, b.tileId = infile, lon, lat, tileId
	if b.err != nil {
		return nil, b.err
	}
	if b.values != nil {
		return b.values, nil
	}
	values := make([]float64, len(lon))
	for i := range values {
		values[i] = 20 + float64(i)
	}
	return values, nil
}

type fakeLikelihood struct {
	calls    int
	requests []payload.LikelihoodRequest
	err      error
}

func (l *fakeLikelihood) GridSearch(_ context.Context, request payload.LikelihoodRequest) (payload.Result, error) {
	l.calls++
	l.requests = append(l.requests, request)
	if l.err != nil {
		return nil, l.err
	}
	return &payload.GridSearchResult{Request: request, Values: map[string][]float64{"TS": {1}}}, nil
}

func testConfig() *configuration.RunConfig {
	return &configuration.RunConfig{
		Coords: configuration.CoordsConfiguration{
			NsidePixel:                  16,
			NsideMaskSegmentation:       4,
			NsideLikelihoodSegmentation: 2,
			Coordsys:                    skycoords.Celestial,
			Ordering:                    healpix.Ring,
		},
		Catalog:    configuration.CatalogConfiguration{Infile: "/data/catalog.csv"},
		Mask:       configuration.MaskConfiguration{Infile1: "/m/1", Infile2: "/m/2"},
		Isochrone:  configuration.IsochroneConfiguration{Infiles: []string{"/iso/a"}, Weights: []float64{1}},
		Kernel:     configuration.KernelConfiguration{Params: []float64{0.1}},
		Likelihood: configuration.LikelihoodConfiguration{DistanceModulusArray: []float64{16, 17}},
	}
}

func newExecutor(t *testing.T, config *configuration.RunConfig, mask payload.MaskBuilder, likelihood payload.LikelihoodRunner) *LocalExecutor {
	e, err := NewLocalExecutor(config, mask, likelihood, logging.NullEntry())
	require.NoError(t, err)
	return e
}

func maskSpec(dir string) domain.JobSpec {
	return domain.JobSpec{
		Kind:             domain.Mask,
		TileId:           100,
		InputSourcePath:  "/data/mangle_g.pol",
		OutputPath:       filepath.Join(dir, "mask_0000000100.fits"),
		CoordinateSystem: skycoords.Celestial,
	}
}

func TestRunMask(t *testing.T) {
	builder := &fakeMaskBuilder{}
	e := newExecutor(t, testConfig(), builder, &fakeLikelihood{})
	spec := maskSpec(t.TempDir())

	require.NoError(t, e.RunMask(context.Background(), spec))

	cells, err := e.Tiler(domain.Mask).Expand(spec.TileId)
	require.NoError(t, err)
	assert.Len(t, cells, 16)
	assert.Equal(t, "/data/mangle_g.pol", builder.infile)
	assert.Equal(t, int64(100), builder.tileId)
	wantLon, wantLat := e.Tiler(domain.Mask).CellCenters(cells)
	assert.Equal(t, wantLon, builder.lon)
	assert.Equal(t, wantLat, builder.lat)

	b, err := os.ReadFile(spec.OutputPath)
	require.NoError(t, err)
	var written payload.SparseMap
	require.NoError(t, yaml.Unmarshal(b, &written))
	assert.Equal(t, int64(16), written.Nside)
	assert.Equal(t, skycoords.Celestial, written.Coordsys)
	assert.Equal(t, cells, written.Pixels)
	assert.Len(t, written.Columns[payload.MaglimColumn], 16)
	assert.Equal(t, 20.0, written.Columns[payload.MaglimColumn][0])
}

func TestRunMask_ConvertsToMangleFrame(t *testing.T) {
	config := testConfig()
	config.Mangle.Coordsys = skycoords.Galactic
	builder := &fakeMaskBuilder{}
	e := newExecutor(t, config, builder, &fakeLikelihood{})
	spec := maskSpec(t.TempDir())

	require.NoError(t, e.RunMask(context.Background(), spec))

	cells, err := e.Tiler(domain.Mask).Expand(spec.TileId)
	require.NoError(t, err)
	lon, lat := e.Tiler(domain.Mask).CellCenters(cells)
	wantLon, wantLat, err := skycoords.Convert(skycoords.Celestial, skycoords.Galactic, lon, lat)
	require.NoError(t, err)
	assert.Equal(t, wantLon, builder.lon)
	assert.Equal(t, wantLat, builder.lat)
}

func TestRunMask_Failures(t *testing.T) {
	tests := map[string]struct {
		builder *fakeMaskBuilder
		tileId  int64
	}{
		"builder error": {
			builder: &fakeMaskBuilder{err: errors.New("mangle file unreadable")},
			tileId:  100,
		},
		"wrong number of values": {
			builder: &fakeMaskBuilder{values: []float64{1, 2}},
			tileId:  100,
		},
		"tile out of range": {
			builder: &fakeMaskBuilder{},
			tileId:  192,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := newExecutor(t, testConfig(), tc.builder, &fakeLikelihood{})
			spec := maskSpec(t.TempDir())
			spec.TileId = tc.tileId

			err := e.RunMask(context.Background(), spec)
			require.Error(t, err)
			var tileErr *farmerrors.ErrTileComputation
			require.True(t, errors.As(err, &tileErr))
			assert.Equal(t, tc.tileId, tileErr.TileId)
			assert.Equal(t, "mask", tileErr.Kind)
			assert.True(t, farmerrors.IsTileLevel(err))

			_, statErr := os.Stat(spec.OutputPath)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func likelihoodSpec(dir string) domain.JobSpec {
	return domain.JobSpec{
		Kind:             domain.Likelihood,
		TileId:           5,
		InputSourcePath:  "/data/catalog.csv",
		OutputPath:       filepath.Join(dir, "likelihood_0000000005.fits"),
		CoordinateSystem: skycoords.Celestial,
	}
}

func TestRunLikelihood(t *testing.T) {
	tests := map[string]struct {
		persist bool
	}{
		"persisted":     {persist: true},
		"not persisted": {persist: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			likelihood := &fakeLikelihood{}
			e := newExecutor(t, testConfig(), &fakeMaskBuilder{}, likelihood)
			spec := likelihoodSpec(t.TempDir())

			result, err := e.RunLikelihood(context.Background(), spec, tc.persist)
			require.NoError(t, err)
			require.NotNil(t, result)
			require.Equal(t, 1, likelihood.calls)

			request := likelihood.requests[0]
			lon, lat := e.Tiler(domain.Likelihood).Center(5)
			assert.Equal(t, lon, request.Lon)
			assert.Equal(t, lat, request.Lat)
			assert.Equal(t, int64(2), request.Nside)
			assert.Equal(t, int64(16), request.NsideSubpix)
			assert.Equal(t, []string{"/m/1", "/m/2"}, request.MaskInfiles)
			assert.Equal(t, []float64{16, 17}, request.DistanceModulusArray)
			assert.Equal(t, []float64{0.1}, request.KernelParams)
			assert.Equal(t, "/data/catalog.csv", request.CatalogInfile)

			_, statErr := os.Stat(spec.OutputPath)
			if tc.persist {
				assert.NoError(t, statErr)
			} else {
				assert.True(t, os.IsNotExist(statErr))
			}
		})
	}
}

func TestRunLikelihood_Failure(t *testing.T) {
	likelihood := &fakeLikelihood{err: errors.New("optimizer diverged")}
	e := newExecutor(t, testConfig(), &fakeMaskBuilder{}, likelihood)
	spec := likelihoodSpec(t.TempDir())

	err := e.Run(context.Background(), spec)
	require.Error(t, err)
	var tileErr *farmerrors.ErrTileComputation
	require.True(t, errors.As(err, &tileErr))
	assert.Equal(t, int64(5), tileErr.TileId)
	assert.Equal(t, "likelihood", tileErr.Kind)
	_, statErr := os.Stat(spec.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunLikelihood_TileOutOfRange(t *testing.T) {
	likelihood := &fakeLikelihood{}
	e := newExecutor(t, testConfig(), &fakeMaskBuilder{}, likelihood)
	spec := likelihoodSpec(t.TempDir())
	spec.TileId = 48

	_, err := e.RunLikelihood(context.Background(), spec, true)
	assert.True(t, farmerrors.IsTileLevel(err))
	assert.Equal(t, 0, likelihood.calls)
}

func TestRun_DispatchesByKind(t *testing.T) {
	builder := &fakeMaskBuilder{}
	likelihood := &fakeLikelihood{}
	e := newExecutor(t, testConfig(), builder, likelihood)
	dir := t.TempDir()

	require.NoError(t, e.Run(context.Background(), maskSpec(dir)))
	assert.Equal(t, int64(100), builder.tileId)
	assert.Equal(t, 0, likelihood.calls)

	require.NoError(t, e.Run(context.Background(), likelihoodSpec(dir)))
	assert.Equal(t, 1, likelihood.calls)

	err := e.Run(context.Background(), domain.JobSpec{Kind: "unknown"})
	var invalid *farmerrors.ErrInvalidArgument
	assert.True(t, errors.As(err, &invalid))
}

func TestNewLocalExecutor_InvalidResolution(t *testing.T) {
	config := testConfig()
	config.Coords.NsideMaskSegmentation = 32
	_, err := NewLocalExecutor(config, &fakeMaskBuilder{}, &fakeLikelihood{}, logging.NullEntry())
	var invalid *farmerrors.ErrInvalidResolution
	assert.True(t, errors.As(err, &invalid))
}
