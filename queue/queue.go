// Package queue implements a double-ended queue of strings on a singly-linked
// list. Elements go in at either end and come out at the head. Each element
// owns a private copy of its text, and every node and payload is accounted
// through an Allocator so that failed allocations can be backed out and
// leaks can be detected.
package queue

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type qNode struct {
	value []byte
	next  *qNode
}

// Queue is a string deque. A nil *Queue is a valid, absent queue: Size
// reports 0, Reverse and Free do nothing and the other operations return
// ErrInvalidQueue. A Queue is not safe for concurrent use.
type Queue struct {
	head  *qNode
	tail  *qNode // last node, never owns it
	count int

	// nil once the queue has been freed
	alloc Allocator
	log   logrus.FieldLogger
}

// New returns an empty queue. It fails with ErrAllocation when the allocator
// refuses the queue header.
func New(opts ...Option) (*Queue, error) {
	q := &Queue{}
	for _, opt := range opts {
		opt(q)
	}
	if q.alloc == nil {
		q.alloc = HeapAllocator{}
	}
	if q.log == nil {
		q.log = logrus.StandardLogger()
	}

	if err := q.alloc.Acquire(KindHeader, 0); err != nil {
		q.allocFailed("new", KindHeader, 0, err)
		return nil, errors.Wrap(ErrAllocation, "queue header")
	}

	return q, nil
}

// Free releases every element and then the queue itself. The queue is
// unusable afterwards; freeing it again is a no-op.
func (q *Queue) Free() {
	if !q.valid() {
		return
	}

	released := q.count
	node := q.head
	for node != nil {
		next := node.next
		q.releaseNode(node)
		node = next
	}
	q.head, q.tail, q.count = nil, nil, 0

	q.alloc.Release(KindHeader, 0)
	q.alloc = nil
	q.log.WithField("released", released).Debug("queue freed")
}

// InsertHead stores a copy of s at the front of the queue.
func (q *Queue) InsertHead(s string) error {
	if !q.valid() {
		return ErrInvalidQueue
	}

	node, err := q.newNode("insert_head", s)
	if err != nil {
		return err
	}

	if q.count == 0 {
		q.tail = node
	} else {
		node.next = q.head
	}
	q.head = node
	q.count++
	return nil
}

// InsertTail stores a copy of s at the back of the queue.
func (q *Queue) InsertTail(s string) error {
	if !q.valid() {
		return ErrInvalidQueue
	}

	node, err := q.newNode("insert_tail", s)
	if err != nil {
		return err
	}

	if q.count == 0 {
		q.head = node
	} else {
		q.tail.next = node
	}
	q.tail = node
	q.count++
	return nil
}

// RemoveHead unlinks the first element and copies its text into buf,
// truncated to len(buf)-1 bytes and followed by a zero byte. It returns the
// number of text bytes copied. A nil or zero-length buf is rejected with
// ErrNoBuffer and leaves the queue untouched.
func (q *Queue) RemoveHead(buf []byte) (int, error) {
	if !q.valid() {
		return 0, ErrInvalidQueue
	}
	if q.count == 0 {
		return 0, ErrEmptyQueue
	}
	if len(buf) == 0 {
		return 0, ErrNoBuffer
	}

	head := q.head
	n := copy(buf[:len(buf)-1], head.value)
	buf[n] = 0

	q.head = head.next
	q.count--
	if q.count == 0 {
		q.tail = nil
	}

	head.next = nil
	q.releaseNode(head)
	return n, nil
}

// Peek returns a copy of the first element without removing it.
func (q *Queue) Peek() (string, error) {
	if !q.valid() {
		return "", ErrInvalidQueue
	}
	if q.count == 0 {
		return "", ErrEmptyQueue
	}

	return string(q.head.value), nil
}

// Size returns the number of elements, 0 for an absent or freed queue.
func (q *Queue) Size() int {
	if !q.valid() {
		return 0
	}
	return q.count
}

// Reverse flips the order of the elements by relinking the existing nodes.
func (q *Queue) Reverse() {
	if !q.valid() || q.count == 0 {
		return
	}

	var prev *qNode
	cur := q.head
	for cur != nil {
		next := cur.next
		cur.next = prev
		prev = cur
		cur = next
	}

	q.head, q.tail = prev, q.head
}

func (q *Queue) valid() bool {
	return q != nil && q.alloc != nil
}

// newNode acquires a node and its payload, releasing the node again if the
// payload cannot be had.
func (q *Queue) newNode(op string, s string) (*qNode, error) {
	if err := q.alloc.Acquire(KindNode, 0); err != nil {
		q.allocFailed(op, KindNode, 0, err)
		return nil, errors.Wrap(ErrAllocation, "node")
	}

	if err := q.alloc.Acquire(KindPayload, len(s)); err != nil {
		q.alloc.Release(KindNode, 0)
		q.allocFailed(op, KindPayload, len(s), err)
		return nil, errors.Wrapf(ErrAllocation, "payload of %d bytes", len(s))
	}

	value := make([]byte, len(s))
	copy(value, s)
	return &qNode{value: value}, nil
}

func (q *Queue) releaseNode(node *qNode) {
	q.alloc.Release(KindPayload, len(node.value))
	node.value = nil
	q.alloc.Release(KindNode, 0)
}

func (q *Queue) allocFailed(op string, kind Kind, size int, err error) {
	q.log.WithFields(logrus.Fields{
		"op":   op,
		"kind": kindName(kind),
		"size": size,
	}).Warn(err)
}
