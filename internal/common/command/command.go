// Package command runs external executables: the scientific payload and the batch queue tools.
package command

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Runner executes argv[0] with the remaining arguments and returns what it wrote to stdout.
type Runner interface {
	Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, error)
}

// ExecRunner runs commands as child processes. The process is killed when ctx is cancelled.
type ExecRunner struct {
	// Appended to the parent environment.
	Env []string

	// Stubbable for testing
	environ func() []string
}

func NewExecRunner(env []string) *ExecRunner {
	return &ExecRunner{
		Env:     env,
		environ: os.Environ,
	}
}

func (r *ExecRunner) Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("empty command")
	}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(r.environ(), r.Env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, errors.Wrapf(err, "error running %s", argv[0])
		}
		return nil, errors.Wrapf(err, "error running %s: %s", argv[0], msg)
	}
	return stdout.Bytes(), nil
}
