package common

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/armadaproject/tilefarm/internal/common/config"
	"github.com/armadaproject/tilefarm/internal/common/logging"
)

const EnvPrefix = "TILEFARM"

// LoadConfig reads the yaml file at path into target. Every key can be overridden from the
// environment, e.g. TILEFARM_QUEUE_MAXCONCURRENTJOBS overrides queue.maxConcurrentJobs.
// setDefaults, when not nil, is applied before the file is read.
func LoadConfig(target interface{}, path string, setDefaults func(v *viper.Viper)) (*viper.Viper, error) {
	return loadConfig(target, path, setDefaults, true)
}

// LoadConfigFile is LoadConfig without environment overrides: target holds exactly what the file
// and the defaults say.
func LoadConfigFile(target interface{}, path string, setDefaults func(v *viper.Viper)) (*viper.Viper, error) {
	return loadConfig(target, path, setDefaults, false)
}

func loadConfig(target interface{}, path string, setDefaults func(v *viper.Viper), env bool) (*viper.Viper, error) {
	v := viper.New()
	if setDefaults != nil {
		setDefaults(v)
	}
	v.SetConfigFile(path)
	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithMessagef(err, "error reading config file %s", path)
	}
	if err := v.Unmarshal(target, config.CustomHooks...); err != nil {
		return nil, errors.WithMessagef(err, "error decoding config file %s", path)
	}
	log.Debugf("loaded configuration from %s", v.ConfigFileUsed())
	return v, nil
}

func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
}

// ConfigureCommandLineLogging prints bare messages, for output meant to be read or piped by users.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&logging.CommandLineFormatter{})
	log.SetOutput(os.Stdout)
}

// ConfigureLogFormat selects one of the supported formats: text, json or plain.
func ConfigureLogFormat(format string, level string) error {
	switch strings.ToLower(format) {
	case "", "text":
		ConfigureLogging()
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
		log.SetOutput(os.Stdout)
	case "plain":
		ConfigureCommandLineLogging()
	default:
		return errors.Errorf("unknown log format: %s.  Valid formats are text, json and plain", format)
	}
	if level == "" {
		return nil
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return errors.WithStack(err)
	}
	log.SetLevel(parsed)
	return nil
}
