package queue

import "github.com/sirupsen/logrus"

// Option configures a Queue in New.
type Option func(*Queue)

// WithAllocator routes the queue's header, node and payload accounting
// through a.
func WithAllocator(a Allocator) Option {
	return func(q *Queue) {
		q.alloc = a
	}
}

// WithLogger sets where allocation failures and teardown are logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(q *Queue) {
		q.log = l
	}
}
