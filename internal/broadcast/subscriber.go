package broadcast

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrDeliveryFailed marks a subscriber whose event buffer overflowed.
var ErrDeliveryFailed = errors.New("event delivery failed")

// State is the lifecycle of a subscriber handle. Transitions only leave
// StateOpen; the first terminal transition wins.
type State int32

const (
	StateOpen State = iota
	StateCompleted
	StateErrored
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Subscriber is one live stream connection. Events are delivered through a
// bounded buffer in publish order; a full buffer fails the subscriber rather
// than blocking the broadcast loop.
type Subscriber struct {
	id     uuid.UUID
	events chan []byte
	state  atomic.Int32
	done   chan struct{}
}

func newSubscriber(bufferSize int) *Subscriber {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Subscriber{
		id:     uuid.New(),
		events: make(chan []byte, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the unique handle id.
func (s *Subscriber) ID() uuid.UUID { return s.id }

// State returns the current lifecycle state.
func (s *Subscriber) State() State { return State(s.state.Load()) }

// Events is the ordered delivery channel consumed by the stream handler.
func (s *Subscriber) Events() <-chan []byte { return s.events }

// Done is closed on the first terminal transition.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// emit enqueues one serialized event. Fails if the subscriber is already
// terminal or its buffer is full (the subscriber transitions to errored).
func (s *Subscriber) emit(data []byte) error {
	if st := s.State(); st != StateOpen {
		return fmt.Errorf("subscriber %s is %s: %w", s.id, st, ErrDeliveryFailed)
	}
	select {
	case s.events <- data:
		return nil
	default:
		s.transition(StateErrored)
		return fmt.Errorf("subscriber %s buffer full: %w", s.id, ErrDeliveryFailed)
	}
}

// transition moves Open -> to, closing Done. Returns false when the
// subscriber already reached a terminal state.
func (s *Subscriber) transition(to State) bool {
	if s.state.CompareAndSwap(int32(StateOpen), int32(to)) {
		close(s.done)
		return true
	}
	return false
}

func (s *Subscriber) complete() { s.transition(StateCompleted) }
func (s *Subscriber) timeout()  { s.transition(StateTimedOut) }
