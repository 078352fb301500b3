package scl

import "errors"

var (
	// ErrOutOfRange is returned when an index is outside the valid bound of an operation.
	ErrOutOfRange = errors.New("index out of range")
	// ErrUnderflow is returned when an element is read or removed from an empty container.
	ErrUnderflow = errors.New("container is empty")
	// ErrCapacityExceeded is returned by ring buffers when a push doesn't fit into the free space
	// or a pop requests more bytes than buffered.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrAllocation is returned when backing memory can't be allocated. The container is left in
	// its last valid state.
	ErrAllocation = errors.New("allocation failed")
	// ErrInvalidArgument is returned for missing callbacks, wrongly sized payloads and invalid
	// capacities.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned by find operations when no element matches.
	ErrNotFound = errors.New("not found")
	// ErrClosed is returned by container methods when the container has been closed.
	ErrClosed = errors.New("container is closed")
)
