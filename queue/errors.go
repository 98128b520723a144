package queue

import "github.com/pkg/errors"

var (
	ErrInvalidQueue = errors.New("queue is nil or has been freed")
	ErrEmptyQueue   = errors.New("queue is empty")
	ErrAllocation   = errors.New("allocation failed")
	ErrNoBuffer     = errors.New("no output buffer for removed element")
	ErrBadRelease   = errors.New("release of a resource that was never acquired")
)
