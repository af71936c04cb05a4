package queue

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/tilefarm/internal/common/command"
	"github.com/armadaproject/tilefarm/internal/common/farmerrors"
)

var submittedJobRegex = regexp.MustCompile(`Submitted batch job (\d+)`)

// SlurmClient submits jobs with sbatch and counts them with squeue.
type SlurmClient struct {
	runner command.Runner
}

func NewSlurmClient(runner command.Runner) *SlurmClient {
	return &SlurmClient{runner: runner}
}

func (c *SlurmClient) Submit(ctx context.Context, job JobDescription) (JobHandle, error) {
	if len(job.Command) == 0 {
		return JobHandle{}, errors.New("job has no command")
	}
	out, err := c.runner.Run(ctx, SbatchArgs(job), nil)
	if err != nil {
		return JobHandle{}, err
	}
	match := submittedJobRegex.FindSubmatch(out)
	if match == nil {
		return JobHandle{}, errors.Errorf("unexpected sbatch output %q", strings.TrimSpace(string(out)))
	}
	return JobHandle{Id: string(match[1])}, nil
}

// SbatchArgs renders the sbatch command line submitting job.
func SbatchArgs(job JobDescription) []string {
	args := []string{"sbatch"}
	if job.Account != "" {
		args = append(args, "--account="+job.Account)
	}
	if job.Partition != "" {
		args = append(args, "--partition="+job.Partition)
	}
	args = append(args,
		"--job-name="+job.JobName,
		"--output="+job.LogFile,
	)
	if job.MemoryMb > 0 {
		args = append(args, fmt.Sprintf("--mem=%d", job.MemoryMb))
	}
	if job.Comment != "" {
		args = append(args, "--comment="+job.Comment)
	}
	return append(args, "--wrap", shellJoin(job.Command))
}

func (c *SlurmClient) CurrentCount(ctx context.Context, user string) (int, error) {
	out, err := c.runner.Run(ctx, []string{"squeue", "-h", "-u", user}, nil)
	if err != nil {
		return 0, errors.WithStack(&farmerrors.ErrQueueUnavailable{User: user, Err: err})
	}
	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.WithStack(&farmerrors.ErrQueueUnavailable{User: user, Err: err})
	}
	return count, nil
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./:=,+@%-]+$`)

// shellJoin quotes args so that sh splits the result back into exactly args.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if shellSafe.MatchString(arg) {
			quoted[i] = arg
		} else {
			quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
	}
	return strings.Join(quoted, " ")
}
