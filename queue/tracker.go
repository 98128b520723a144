package queue

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Tracker is an Allocator that keeps books on every acquisition and release
// and can be told to refuse requests, either at random or after a number of
// successful ones. It is meant for tests that check a queue neither leaks
// nor double releases when allocations fail.
//
// The zero value is ready to use: it logs to the standard logrus logger,
// draws from a fixed seed and injects failures as configured.
type Tracker struct {
	// FailProbability is the chance, between 0 and 1, that an acquisition
	// is refused while failures are allowed.
	FailProbability float64
	// FailAfter refuses every acquisition once this many have succeeded.
	// Zero disables it.
	FailAfter int
	Logger    logrus.FieldLogger

	rng       *rand.Rand
	suspended bool
	live      [numKinds]int
	payloads  map[int]int // live payloads by size
	liveBytes int
	acquired  int
	released  int
	refused   int
	err       error
}

func NewTracker(seed int64) *Tracker {
	return &Tracker{
		Logger: logrus.StandardLogger(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Allowed turns failure injection on or off without touching the books.
func (t *Tracker) Allowed(allow bool) {
	t.suspended = !allow
}

func (t *Tracker) Acquire(kind Kind, size int) error {
	if kind >= numKinds {
		t.refused++
		return errors.Errorf("unknown resource %s", kindName(kind))
	}
	if t.shouldFail() {
		t.refused++
		return errors.Errorf("%s of %d bytes refused", kindName(kind), size)
	}

	t.acquired++
	t.live[kind]++
	if kind == KindPayload {
		if t.payloads == nil {
			t.payloads = make(map[int]int)
		}
		t.payloads[size]++
		t.liveBytes += size
	}
	return nil
}

func (t *Tracker) Release(kind Kind, size int) {
	if kind >= numKinds || t.live[kind] == 0 || (kind == KindPayload && t.payloads[size] == 0) {
		t.badRelease(kind, size)
		return
	}

	t.released++
	t.live[kind]--
	if kind == KindPayload {
		t.payloads[size]--
		if t.payloads[size] == 0 {
			delete(t.payloads, size)
		}
		t.liveBytes -= size
	}
}

func (t *Tracker) badRelease(kind Kind, size int) {
	err := errors.Wrapf(ErrBadRelease, "%s of %d bytes", kindName(kind), size)
	t.logger().WithFields(logrus.Fields{
		"kind": kindName(kind),
		"size": size,
	}).Error(err)
	if t.err == nil {
		t.err = err
	}
}

func (t *Tracker) shouldFail() bool {
	if t.suspended {
		return false
	}
	if t.FailAfter > 0 && t.acquired >= t.FailAfter {
		return true
	}
	if t.FailProbability <= 0 {
		return false
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(1))
	}
	return t.rng.Float64() < t.FailProbability
}

func (t *Tracker) logger() logrus.FieldLogger {
	if t.Logger == nil {
		return logrus.StandardLogger()
	}
	return t.Logger
}

// Live returns the number of outstanding blocks of every kind.
func (t *Tracker) Live() int {
	n := 0
	for _, c := range t.live {
		n += c
	}
	return n
}

// LiveOf returns the outstanding blocks of one kind, 0 for unknown kinds.
func (t *Tracker) LiveOf(kind Kind) int {
	if kind >= numKinds {
		return 0
	}
	return t.live[kind]
}

func (t *Tracker) LiveBytes() int {
	return t.liveBytes
}

func (t *Tracker) Acquired() int {
	return t.acquired
}

func (t *Tracker) Released() int {
	return t.released
}

func (t *Tracker) Refused() int {
	return t.refused
}

// Err returns the first bad release seen, if any.
func (t *Tracker) Err() error {
	return t.err
}
