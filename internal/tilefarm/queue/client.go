package queue

import (
	"context"
)

// JobHandle identifies a submitted job in the batch system.
type JobHandle struct {
	Id string
}

// JobDescription is everything the batch system needs to run one tile.
type JobDescription struct {
	JobName   string
	LogFile   string
	MemoryMb  int
	Account   string
	Partition string
	Comment   string
	// Executable followed by its arguments.
	Command []string
}

// Client talks to an external batch queue.
type Client interface {
	Submit(ctx context.Context, job JobDescription) (JobHandle, error)
	// CurrentCount returns how many jobs user has in the queue, pending or running. Failures to
	// read the queue are returned as *farmerrors.ErrQueueUnavailable.
	CurrentCount(ctx context.Context, user string) (int, error)
}
