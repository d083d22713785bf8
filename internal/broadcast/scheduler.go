package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrSchedulerClosed is returned by Subscribe after shutdown has started.
var ErrSchedulerClosed = errors.New("broadcast scheduler is shut down")

// Options tunes the broadcast scheduler. Zero values fall back to defaults.
type Options struct {
	// Debounce is how long a published event waits before fan-out, absorbing
	// write bursts into spaced deliveries.
	Debounce time.Duration

	// HeartbeatInterval spaces the periodic keep-alive events.
	HeartbeatInterval time.Duration

	// BufferSize is the per-subscriber event buffer; overflow drops the
	// subscriber, never blocks the fan-out loop.
	BufferSize int

	// QueueSize bounds the pending-delivery queue between Publish and the
	// dispatch loop.
	QueueSize int

	// ShutdownGrace bounds the final queue drain.
	ShutdownGrace time.Duration
}

func (o Options) normalized() Options {
	if o.Debounce < 0 {
		o.Debounce = 0
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 15 * time.Second
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 64
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = 5 * time.Second
	}
	return o
}

// DefaultDebounce is the production debounce delay.
const DefaultDebounce = 100 * time.Millisecond

type delivery struct {
	data []byte
	due  time.Time
}

// Scheduler fans change events out to stream subscribers. A single dispatch
// goroutine consumes the pending queue, so deliveries reach every subscriber
// in publish order. Failed subscribers are dropped without affecting the
// rest.
type Scheduler struct {
	registry  *Registry
	opts      Options
	queue     chan delivery
	heartbeat []byte
	closed    atomic.Bool
}

func NewScheduler(registry *Registry, opts Options) *Scheduler {
	heartbeat, _ := json.Marshal(Heartbeat())
	opts = opts.normalized()
	return &Scheduler{
		registry:  registry,
		opts:      opts,
		queue:     make(chan delivery, opts.QueueSize),
		heartbeat: heartbeat,
	}
}

// Registry exposes the subscriber set for health reporting.
func (s *Scheduler) Registry() *Registry { return s.registry }

// Subscribe creates a new subscriber handle. The initial heartbeat is emitted
// synchronously before the handle joins steady-state fan-out, so a client
// always observes a heartbeat first.
func (s *Scheduler) Subscribe() (*Subscriber, error) {
	if s.closed.Load() {
		return nil, ErrSchedulerClosed
	}

	sub := newSubscriber(s.opts.BufferSize)
	if err := sub.emit(s.heartbeat); err != nil {
		return nil, err
	}
	s.registry.Register(sub)

	slog.Info("[Broadcast] Subscriber registered",
		"subscriber_id", sub.ID(),
		"subscribers", s.registry.Len())
	return sub, nil
}

// Unsubscribe completes and removes a handle. Safe to call for handles that
// already failed or timed out.
func (s *Scheduler) Unsubscribe(sub *Subscriber) {
	sub.complete()
	s.registry.Unregister(sub.ID())
	slog.Info("[Broadcast] Subscriber removed",
		"subscriber_id", sub.ID(),
		"state", sub.State(),
		"subscribers", s.registry.Len())
}

// Publish enqueues a change event for debounced fan-out. Publishing never
// blocks the caller: a full queue drops the event with a warning, and events
// published after shutdown are discarded.
func (s *Scheduler) Publish(ev ChangeEvent) {
	if s.closed.Load() {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("[Broadcast] Failed to serialize change event", "action", ev.Action, "error", err)
		return
	}

	select {
	case s.queue <- delivery{data: data, due: time.Now().Add(s.opts.Debounce)}:
	default:
		slog.Warn("[Broadcast] Delivery queue full, dropping event", "action", ev.Action)
	}
}

// Start runs the dispatch loop: debounced deliveries from the pending queue
// plus periodic heartbeats. Runs until context is cancelled, then drains the
// queue within the shutdown grace period and completes every subscriber.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.HeartbeatInterval)
	defer ticker.Stop()

	slog.Info("[Broadcast] Starting scheduler",
		"debounce", s.opts.Debounce,
		"heartbeat_interval", s.opts.HeartbeatInterval,
		"queue_size", s.opts.QueueSize)

	for {
		select {
		case d := <-s.queue:
			s.waitAndSend(ctx, d)
		case <-ticker.C:
			s.broadcast(s.heartbeat)
		case <-ctx.Done():
			slog.Info("[Broadcast] Stopping (context cancelled)")
			s.shutdown()
			return nil
		}
	}
}

// waitAndSend honors the delivery's debounce deadline, then fans out.
// Cancellation cuts the wait short so shutdown is never delayed by a pending
// debounce window.
func (s *Scheduler) waitAndSend(ctx context.Context, d delivery) {
	if wait := time.Until(d.due); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	s.broadcast(d.data)
}

// broadcast emits data to every live subscriber. A failed emit drops that
// subscriber; the others are unaffected.
func (s *Scheduler) broadcast(data []byte) {
	s.registry.ForEach(func(sub *Subscriber) {
		if err := sub.emit(data); err != nil {
			slog.Warn("[Broadcast] Dropping subscriber",
				"subscriber_id", sub.ID(),
				"state", sub.State(),
				"error", err)
			s.registry.Unregister(sub.ID())
		}
	})
}

// shutdown drains queued deliveries best-effort within the grace period, then
// completes and clears every remaining subscriber.
func (s *Scheduler) shutdown() {
	s.closed.Store(true)

	deadline := time.Now().Add(s.opts.ShutdownGrace)
	drained := 0
drain:
	for time.Now().Before(deadline) {
		select {
		case d := <-s.queue:
			s.broadcast(d.data)
			drained++
		default:
			break drain
		}
	}

	remaining := s.registry.drain()
	for _, sub := range remaining {
		sub.complete()
	}

	slog.Info("[Broadcast] Scheduler stopped",
		"drained_events", drained,
		"completed_subscribers", len(remaining))
}
