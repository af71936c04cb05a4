package configuration

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/tilefarm/internal/common"
)

const (
	DefaultMaxConcurrentJobs = 100
	DefaultPollInterval      = 15 * time.Second
	DefaultMemoryMb          = 10000
)

func SetDefaults(v *viper.Viper) {
	v.SetDefault("coords.ordering", "ring")
	v.SetDefault("queue.cluster", "slurm")
	v.SetDefault("queue.jobName", "tilefarm")
	v.SetDefault("queue.memoryMb", DefaultMemoryMb)
	v.SetDefault("queue.maxConcurrentJobs", DefaultMaxConcurrentJobs)
	v.SetDefault("queue.pollInterval", DefaultPollInterval)
	v.SetDefault("queue.maxPollAttempts", 0)
	v.SetDefault("metrics.jobName", "tilefarm")
}

// Load reads, expands and validates the configuration at path. TILEFARM_ environment variables
// override the file.
func Load(path string) (*RunConfig, error) {
	return load(path, common.LoadConfig)
}

// LoadSnapshot reads a snapshot written by WriteSnapshot. The environment is ignored so a job
// runs with the settings in force when it was submitted.
func LoadSnapshot(path string) (*RunConfig, error) {
	return load(path, common.LoadConfigFile)
}

func load(path string, read func(interface{}, string, func(*viper.Viper)) (*viper.Viper, error)) (*RunConfig, error) {
	config := &RunConfig{}
	if _, err := read(config, path, SetDefaults); err != nil {
		return nil, err
	}
	if err := config.expandPaths(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WriteSnapshot serializes the configuration to path so that queued jobs read exactly the
// settings in force when they were submitted. LoadSnapshot reads the file back unchanged.
func (c *RunConfig) WriteSnapshot(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.WithMessagef(err, "error writing configuration snapshot %s", path)
	}
	return nil
}

func (c *RunConfig) expandPaths() error {
	paths := []*string{
		&c.Catalog.Infile,
		&c.Mangle.Infile1,
		&c.Mangle.Infile2,
		&c.Mask.Infile1,
		&c.Mask.Infile2,
		&c.Output.SavedirMag1Mask,
		&c.Output.SavedirMag2Mask,
		&c.Output.SavedirLikelihood,
		&c.Output.LogdirLikelihood,
		&c.Output.LogdirMask,
	}
	if len(c.Queue.Script) > 0 {
		paths = append(paths, &c.Queue.Script[0])
	}
	for i := range c.Isochrone.Infiles {
		paths = append(paths, &c.Isochrone.Infiles[i])
	}
	for _, p := range paths {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return errors.WithMessagef(err, "error expanding path %s", *p)
		}
		*p = expanded
	}
	return nil
}
