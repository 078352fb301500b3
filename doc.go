// Package scl holds the pieces shared by the containers of this module: the error values
// returned by every container and the Prometheus configuration.
//
// The containers themselves live in subpackages:
//   - [github.com/teenjuna/scl/list]: doubly linked list of byte payloads.
//   - [github.com/teenjuna/scl/vector]: dynamic array of fixed-size byte payloads.
//   - [github.com/teenjuna/scl/buffer]: power-of-two circular byte buffer.
//
// Payloads are always copied in and copied out. Memory for them comes from an
// [github.com/teenjuna/scl/alloc.Allocator] and is returned to it when an element is removed or
// the container is closed.
//
// None of the containers are safe for concurrent use. Callers that share a container between
// goroutines must synchronize access themselves.
package scl
