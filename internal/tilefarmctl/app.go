// Package tilefarmctl implements the tilefarm command line. Each command is a method of App,
// writing human-readable output to App.Out.
package tilefarmctl

import (
	"io"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/armadaproject/tilefarm/internal/common/command"
	"github.com/armadaproject/tilefarm/internal/tilefarm/catalog"
	"github.com/armadaproject/tilefarm/internal/tilefarm/completion"
	"github.com/armadaproject/tilefarm/internal/tilefarm/configuration"
	"github.com/armadaproject/tilefarm/internal/tilefarm/executor"
	"github.com/armadaproject/tilefarm/internal/tilefarm/farm"
	"github.com/armadaproject/tilefarm/internal/tilefarm/metrics"
	"github.com/armadaproject/tilefarm/internal/tilefarm/payload"
	"github.com/armadaproject/tilefarm/internal/tilefarm/queue"
)

const DefaultConfigPath = "config/tilefarm/config.yaml"

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is where output is written to; defaults to os.Stdout.
	Out io.Writer

	// Stubbable for testing
	runner command.Runner
	clock  clock.Clock
	newId  func() string
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	ConfigPath string
}

// New instantiates an App with default parameters, including standard output.
func New() *App {
	return &App{
		Params: &Params{ConfigPath: DefaultConfigPath},
		Out:    os.Stdout,
		runner: command.NewExecRunner(nil),
		clock:  clock.RealClock{},
		newId:  func() string { return uuid.New().String() },
	}
}

// components are the collaborators of one command invocation.
type components struct {
	runId       string
	config      *configuration.RunConfig
	metrics     *metrics.Metrics
	log         *log.Entry
	executor    *executor.LocalExecutor
	coordinator *farm.Coordinator
}

func (a *App) loadConfig(path string) (*configuration.RunConfig, error) {
	config, err := configuration.Load(path)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Debug("loaded configuration")
	return config, nil
}

func (a *App) build(config *configuration.RunConfig) (*components, error) {
	runId := a.newId()
	m := metrics.New()
	logger, err := runLogger(m)
	if err != nil {
		return nil, err
	}
	entry := log.NewEntry(logger).WithField("runId", runId)

	exec, err := executor.NewLocalExecutor(
		config,
		payload.NewExecMaskBuilder(config.Payload.MaskCommand, a.runner),
		payload.NewExecLikelihoodRunner(config.Payload.LikelihoodCommand, a.runner),
		entry,
	)
	if err != nil {
		return nil, err
	}
	submitter := queue.NewSubmitter(config, queue.NewSlurmClient(a.runner), a.clock, m, runId, entry)
	coordinator := farm.NewCoordinator(
		config,
		catalog.NewCsvFile(config.Catalog.Infile),
		exec,
		submitter,
		completion.NewFileTracker(),
		m,
		runId,
		entry,
	)
	return &components{
		runId:       runId,
		config:      config,
		metrics:     m,
		log:         entry,
		executor:    exec,
		coordinator: coordinator,
	}, nil
}

// runLogger copies the settings of the standard logger into a logger whose messages are also
// counted on the metrics of the invocation.
func runLogger(m *metrics.Metrics) (*log.Logger, error) {
	std := log.StandardLogger()
	logger := &log.Logger{
		Out:          std.Out,
		Formatter:    std.Formatter,
		Hooks:        make(log.LevelHooks),
		Level:        std.GetLevel(),
		ExitFunc:     std.ExitFunc,
		ReportCaller: std.ReportCaller,
	}
	hook, err := m.LogHook()
	if err != nil {
		return nil, err
	}
	logger.AddHook(hook)
	return logger, nil
}

// pushMetrics sends the metrics of the invocation to the configured Pushgateway, if any. Failing to
// push never fails the command.
func (c *components) pushMetrics() {
	url := c.config.Metrics.PushGatewayUrl
	if url == "" {
		return
	}
	if err := c.metrics.Push(url, c.config.Metrics.JobName, c.runId); err != nil {
		c.log.WithError(err).Warn("unable to push metrics")
	}
}
