// sink.go — Transport boundary: one-way snapshot sinks.
// The emitter hands a sink fully-formed batches and never waits for
// acknowledgment. BufferedSink decouples emission from a slow consumer
// with a bounded drop-oldest queue, so a stalled collector can neither
// block the emission path nor grow memory.
package transport

import (
	"sync"

	"go.uber.org/zap"

	"github.com/render-lens/render-lens/internal/emit"
	"github.com/render-lens/render-lens/internal/util"
)

// Sink consumes snapshot batches.
type Sink interface {
	Dispatch(msg *emit.SnapshotMessage)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(msg *emit.SnapshotMessage)

// Dispatch calls fn(msg).
func (fn SinkFunc) Dispatch(msg *emit.SnapshotMessage) {
	fn(msg)
}

// DefaultBufferedSinkCapacity bounds the queue between emitter and
// consumer.
const DefaultBufferedSinkCapacity = 256

// BufferedSink queues batches and forwards them to an inner sink from a
// background pump. When full, the oldest batch is dropped and counted —
// fresher data always wins.
type BufferedSink struct {
	mu       sync.Mutex
	queue    []*emit.SnapshotMessage
	capacity int
	dropped  int64 // monotonic: batches evicted, survives draining

	inner     Sink
	log       *zap.Logger
	signal    chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewBufferedSink creates a BufferedSink forwarding to inner and starts
// its pump. capacity <= 0 uses the default.
func NewBufferedSink(inner Sink, capacity int, log *zap.Logger) *BufferedSink {
	if capacity <= 0 {
		capacity = DefaultBufferedSinkCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &BufferedSink{
		capacity: capacity,
		inner:    inner,
		log:      log,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	util.SafeGo(log, s.pump)
	return s
}

// Dispatch enqueues a batch, evicting the oldest when full. Never
// blocks.
func (s *BufferedSink) Dispatch(msg *emit.SnapshotMessage) {
	s.mu.Lock()
	if len(s.queue) >= s.capacity {
		s.queue = s.queue[1:]
		s.dropped++
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Dropped returns the number of batches evicted from a full queue.
func (s *BufferedSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops the pump after forwarding whatever is queued. Idempotent.
func (s *BufferedSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
	})
}

// pump forwards queued batches to the inner sink until Close.
func (s *BufferedSink) pump() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			s.flush()
			return
		case <-s.signal:
			s.flush()
		}
	}
}

// flush forwards everything currently queued.
func (s *BufferedSink) flush() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		msg := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.inner.Dispatch(msg)
	}
}
