package queue

import "fmt"

// Kind identifies the resource a queue acquires from its Allocator.
type Kind byte

const (
	KindHeader Kind = iota
	KindNode
	KindPayload
	numKinds
)

func kindName(k Kind) string {
	switch k {
	case KindHeader:
		return "header"
	case KindNode:
		return "node"
	case KindPayload:
		return "payload"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Allocator accounts for every resource a Queue holds. Acquire may refuse a
// request, in which case the queue backs out whatever the current operation
// already obtained. Every successful Acquire is matched by exactly one
// Release with the same kind and size.
type Allocator interface {
	Acquire(kind Kind, size int) error
	Release(kind Kind, size int)
}

// HeapAllocator leaves memory to the runtime and never fails.
type HeapAllocator struct{}

func (HeapAllocator) Acquire(Kind, int) error { return nil }

func (HeapAllocator) Release(Kind, int) {}
