package payload

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/tilefarm/internal/common/command"
)

// ExecMaskBuilder runs Command once per tile as
//
//	<command...> --infile <mangle file> --pixel <tileId>
//
// writing one "lon lat" line per cell to its stdin and reading one limiting magnitude per line
// from its stdout.
type ExecMaskBuilder struct {
	Command []string
	runner  command.Runner
}

func NewExecMaskBuilder(cmd []string, runner command.Runner) *ExecMaskBuilder {
	return &ExecMaskBuilder{Command: cmd, runner: runner}
}

func (b *ExecMaskBuilder) BuildMask(ctx context.Context, infile string, lon, lat []float64, tileId int64) ([]float64, error) {
	if len(b.Command) == 0 {
		return nil, errors.New("payload.maskCommand is not configured")
	}
	if len(lon) != len(lat) {
		return nil, errors.Errorf("lon and lat length mismatch: %d != %d", len(lon), len(lat))
	}
	stdin := &bytes.Buffer{}
	for i := range lon {
		fmt.Fprintf(stdin, "%.10f %.10f\n", lon[i], lat[i])
	}
	argv := append(append([]string{}, b.Command...), "--infile", infile, "--pixel", strconv.FormatInt(tileId, 10))
	out, err := b.runner.Run(ctx, argv, stdin)
	if err != nil {
		return nil, err
	}
	return parseFloats(out)
}

func parseFloats(out []byte) ([]float64, error) {
	var values []float64
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid mask value %q", line)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return values, nil
}

// ExecLikelihoodRunner runs Command with the request as JSON on stdin. The command prints the
// grid search values as a JSON or YAML mapping from quantity to one value per distance modulus.
type ExecLikelihoodRunner struct {
	Command []string
	runner  command.Runner
}

func NewExecLikelihoodRunner(cmd []string, runner command.Runner) *ExecLikelihoodRunner {
	return &ExecLikelihoodRunner{Command: cmd, runner: runner}
}

func (r *ExecLikelihoodRunner) GridSearch(ctx context.Context, request LikelihoodRequest) (Result, error) {
	if len(r.Command) == 0 {
		return nil, errors.New("payload.likelihoodCommand is not configured")
	}
	in, err := json.Marshal(request)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	out, err := r.runner.Run(ctx, r.Command, bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	values := map[string][]float64{}
	if err := yaml.Unmarshal(out, &values); err != nil {
		return nil, errors.Wrap(err, "invalid likelihood output")
	}
	for name, v := range values {
		if len(v) != len(request.DistanceModulusArray) {
			return nil, errors.Errorf("likelihood output %s has %d values for %d distance moduli",
				name, len(v), len(request.DistanceModulusArray))
		}
	}
	return &GridSearchResult{Request: request, Values: values}, nil
}
