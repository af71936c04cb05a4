// Package queue submits tile jobs to an external batch queue, holding each submission back until
// the user's queue has capacity.
package queue

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
	"github.com/armadaproject/tilefarm/internal/tilefarm/completion"
	"github.com/armadaproject/tilefarm/internal/tilefarm/configuration"
	"github.com/armadaproject/tilefarm/internal/tilefarm/domain"
	"github.com/armadaproject/tilefarm/internal/tilefarm/metrics"
)

type Submitter struct {
	config  *configuration.RunConfig
	client  Client
	clock   clock.Clock
	metrics *metrics.Metrics
	runId   string
	log     *log.Entry
}

func NewSubmitter(
	config *configuration.RunConfig,
	client Client,
	clock clock.Clock,
	metrics *metrics.Metrics,
	runId string,
	logger *log.Entry,
) *Submitter {
	return &Submitter{
		config:  config,
		client:  client,
		clock:   clock,
		metrics: metrics,
		runId:   runId,
		log:     logger,
	}
}

// Submit waits for queue capacity and then submits the job for spec. A rejected submission is
// returned as *farmerrors.ErrSubmission and is not retried.
func (s *Submitter) Submit(ctx context.Context, spec domain.JobSpec) (JobHandle, error) {
	if err := s.admit(ctx); err != nil {
		return JobHandle{}, err
	}
	job := s.Describe(spec)
	handle, err := s.client.Submit(ctx, job)
	if err != nil {
		return JobHandle{}, errors.WithStack(&farmerrors.ErrSubmission{TileId: spec.TileId, Err: err})
	}
	s.log.WithFields(log.Fields{
		"tileId":  spec.TileId,
		"jobId":   handle.Id,
		"logFile": job.LogFile,
	}).Info("submitted tile job")
	return handle, nil
}

// admit polls the queue depth until it is below MaxConcurrentJobs, waiting PollInterval between
// polls. Every decision uses a fresh poll.
func (s *Submitter) admit(ctx context.Context) error {
	queue := s.config.Queue
	start := s.clock.Now()
	for attempt := 1; ; attempt++ {
		count, err := s.client.CurrentCount(ctx, queue.User)
		if err != nil {
			var unavailable *farmerrors.ErrQueueUnavailable
			if !errors.As(err, &unavailable) {
				return err
			}
			s.log.WithError(err).Warn("unable to read queue depth")
		} else {
			s.metrics.RecordPoll(count)
			if count < queue.MaxConcurrentJobs {
				s.metrics.ObserveAdmissionWait(s.clock.Since(start))
				return nil
			}
			s.log.WithFields(log.Fields{
				"user":  queue.User,
				"jobs":  count,
				"limit": queue.MaxConcurrentJobs,
			}).Debugf("queue full, waiting %s", queue.PollInterval)
		}

		if queue.MaxPollAttempts > 0 && attempt >= queue.MaxPollAttempts {
			return errors.WithStack(&farmerrors.ErrQueueUnavailable{
				User: queue.User,
				Err:  errors.Errorf("no capacity after %d polls", attempt),
			})
		}
		s.metrics.RecordWait()
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-s.clock.After(queue.PollInterval):
		}
	}
}

// Describe builds the batch job running spec's tile. Jobs run
//
//	<script...> <config snapshot> <tileId> <outputPath>
//
// and mask jobs also pass the mangle file of their band.
func (s *Submitter) Describe(spec domain.JobSpec) JobDescription {
	queue := s.config.Queue
	cmd := make([]string, 0, len(queue.Script)+7)
	cmd = append(cmd, queue.Script...)
	cmd = append(cmd,
		s.config.QueueConfigPath(spec.Kind),
		strconv.FormatInt(spec.TileId, 10),
		spec.OutputPath,
	)
	if spec.Kind == domain.Mask {
		cmd = append(cmd, "--kind", string(domain.Mask), "--infile", spec.InputSourcePath)
	}
	job := JobDescription{
		JobName:   queue.JobName,
		LogFile:   completion.LogPath(s.config.Logdir(spec.Kind), queue.JobName, spec.TileId),
		MemoryMb:  queue.MemoryMb,
		Account:   queue.Account,
		Partition: queue.Partition,
		Command:   cmd,
	}
	if s.runId != "" {
		job.Comment = "tilefarm-run=" + s.runId
	}
	return job
}
