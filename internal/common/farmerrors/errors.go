// Package farmerrors contains the error types returned while farming tiles. The coordinator and the
// command line look for these types (through errors.As) to decide whether an error aborts the whole
// farm, only the current tile, or is retried.
//
// Errors that concern a single tile should never stop the farm; collect them with
// github.com/hashicorp/go-multierror and report them at the end.
package farmerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOutOfRegion is returned by point queries whose coordinate does not fall inside any tile of
// the analysis region. It is a signal, not a failure.
var ErrOutOfRegion = errors.New("coordinate not in analysis region")

// ErrInvalidResolution is returned when a pair of pixelization resolutions cannot be nested.
// It is a configuration error and is fatal to the farm.
type ErrInvalidResolution struct {
	Coarse  int64
	Fine    int64
	Message string
}

func (err *ErrInvalidResolution) Error() string {
	s := fmt.Sprintf("invalid resolution: nside %d cannot be subdivided into nside %d", err.Coarse, err.Fine)
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrInvalidArgument is a generic error to be returned on invalid configuration or input.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "queue.maxConcurrentJobs"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	}
	return fmt.Sprintf("value %v is invalid for field %q; %s", err.Value, err.Name, err.Message)
}

// ErrTileComputation wraps a payload failure for one tile. The tile's output is not written.
type ErrTileComputation struct {
	TileId int64
	Kind   string
	Err    error
}

func (err *ErrTileComputation) Error() string {
	return fmt.Sprintf("%s computation failed for tile %d: %s", err.Kind, err.TileId, err.Err)
}

func (err *ErrTileComputation) Unwrap() error { return err.Err }
func (err *ErrTileComputation) Cause() error  { return err.Err }

// ErrSubmission is returned when the batch queue rejects a job. Submissions are never retried
// automatically; re-running the farm skips tiles that already completed.
type ErrSubmission struct {
	TileId int64
	Err    error
}

func (err *ErrSubmission) Error() string {
	return fmt.Sprintf("submission of tile %d failed: %s", err.TileId, err.Err)
}

func (err *ErrSubmission) Unwrap() error { return err.Err }
func (err *ErrSubmission) Cause() error  { return err.Err }

// ErrQueueUnavailable is returned when the queue status could not be read. The admission loop
// treats it as transient.
type ErrQueueUnavailable struct {
	User string
	Err  error
}

func (err *ErrQueueUnavailable) Error() string {
	return fmt.Sprintf("queue status for user %q unavailable: %s", err.User, err.Err)
}

func (err *ErrQueueUnavailable) Unwrap() error { return err.Err }
func (err *ErrQueueUnavailable) Cause() error  { return err.Err }

// IsTileLevel reports whether err only concerns a single tile, in which case the farm moves on.
func IsTileLevel(err error) bool {
	{
		var e *ErrTileComputation
		if errors.As(err, &e) {
			return true
		}
	}
	{
		var e *ErrSubmission
		if errors.As(err, &e) {
			return true
		}
	}
	return false
}

// ExitCodeFromError maps error types to process exit codes for the command line.
func ExitCodeFromError(err error) int {
	if err == nil || errors.Is(err, ErrOutOfRegion) {
		return 0
	}
	{
		var e *ErrInvalidResolution
		if errors.As(err, &e) {
			return 2
		}
	}
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return 2
		}
	}
	if IsTileLevel(err) {
		return 3
	}
	{
		var e *ErrQueueUnavailable
		if errors.As(err, &e) {
			return 4
		}
	}
	return 1
}
