package domain

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/tilefarm/internal/common/skycoords"
)

// Kind is the per-tile computation being farmed. It is also the prefix of output file names.
type Kind string

const (
	Mask       Kind = "mask"
	Likelihood Kind = "likelihood"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Mask:
		return Mask, nil
	case Likelihood:
		return Likelihood, nil
	default:
		return "", errors.Errorf("unknown kind %q, expected mask or likelihood", s)
	}
}

// RunMode selects where tile computations execute.
type RunMode string

const (
	Local RunMode = "local"
	Queue RunMode = "queue"
)

func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(strings.ToLower(strings.TrimSpace(s))) {
	case Local, "":
		return Local, nil
	case Queue:
		return Queue, nil
	default:
		return "", errors.Errorf("unknown run mode %q, expected local or queue", s)
	}
}

// JobSpec fully describes one tile's unit of work. It is derived from the tile id and the run
// configuration only, so two specs for the same tile and configuration are identical.
type JobSpec struct {
	Kind             Kind
	TileId           int64
	InputSourcePath  string
	OutputPath       string
	CoordinateSystem skycoords.System
}
