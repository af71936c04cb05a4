package config

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/armadaproject/tilefarm/internal/common/healpix"
	"github.com/armadaproject/tilefarm/internal/common/skycoords"
)

// CustomHooks must be passed to viper.Unmarshal. viper.DecodeHook replaces rather than appends, so
// every hook is composed into a single option here together with viper's own defaults.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		CoordinateSystemHookFunc(),
		OrderingHookFunc(),
	)),
}

func CoordinateSystemHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if f.Kind() != reflect.String || t != reflect.TypeOf(skycoords.Celestial) {
			return data, nil
		}
		if data.(string) == "" {
			return skycoords.System(""), nil
		}
		return skycoords.ParseSystem(data.(string))
	}
}

func OrderingHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(healpix.Ring) {
			return data, nil
		}
		return healpix.ParseOrdering(data.(string))
	}
}
