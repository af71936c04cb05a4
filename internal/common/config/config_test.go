package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/tilefarm/internal/common/healpix"
	"github.com/armadaproject/tilefarm/internal/common/skycoords"
)

type hookTarget struct {
	Coordsys skycoords.System
	Mangle   skycoords.System
	Ordering healpix.Ordering
	Interval time.Duration
	Names    []string
}

func TestCustomHooks(t *testing.T) {
	v := viper.New()
	v.Set("coordsys", "gal")
	v.Set("mangle", "")
	v.Set("ordering", "nested")
	v.Set("interval", "15s")
	v.Set("names", "a,b")

	var target hookTarget
	require.NoError(t, v.Unmarshal(&target, CustomHooks...))
	assert.Equal(t, skycoords.Galactic, target.Coordsys)
	assert.Equal(t, skycoords.System(""), target.Mangle)
	assert.Equal(t, healpix.Nested, target.Ordering)
	assert.Equal(t, 15*time.Second, target.Interval)
	assert.Equal(t, []string{"a", "b"}, target.Names)
}

func TestCustomHooks_RejectsUnknownValues(t *testing.T) {
	tests := map[string]map[string]interface{}{
		"coordinate system": {"coordsys": "ecliptic"},
		"ordering":          {"ordering": "zorder"},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for key, value := range values {
				v.Set(key, value)
			}
			var target hookTarget
			assert.Error(t, v.Unmarshal(&target, CustomHooks...))
		})
	}
}

type validated struct {
	Name  string `validate:"required"`
	Count int    `validate:"gt=0"`
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&validated{Name: "x", Count: 1}))
	assert.Error(t, Validate(&validated{Count: 1}))
	assert.Error(t, Validate(&validated{Name: "x"}))
}

func TestStripPrefix(t *testing.T) {
	assert.Equal(t, "Queue.PollInterval", stripPrefix("RunConfig.Queue.PollInterval"))
	assert.Equal(t, "Name", stripPrefix("Name"))
}
