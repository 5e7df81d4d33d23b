package state

import "sync"

// saveQueue hands encoded snapshots from mutators to the writer goroutine.
//
// Only the newest snapshot is kept: each write serializes the full value, so
// an older pending snapshot is always superseded by a newer one.
//
// Sequence numbers let Flush wait until every save enqueued before the call
// has been attempted, including saves that were coalesced away.
type saveQueue struct {
	mu       sync.Mutex
	pending  string
	has      bool
	enqueued uint64 // saves requested so far
	written  uint64 // highest enqueued seq the writer has attempted
	closed   bool
	signal   chan struct{} // buffered, size 1
	progress chan struct{} // closed and replaced whenever written advances
}

func newSaveQueue() *saveQueue {
	return &saveQueue{
		signal:   make(chan struct{}, 1),
		progress: make(chan struct{}),
	}
}

// enqueue replaces the pending snapshot. Returns false once closed.
func (q *saveQueue) enqueue(data string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.pending = data
	q.has = true
	q.enqueued++

	// Non-blocking: a buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// take removes the pending snapshot together with the seq it covers.
func (q *saveQueue) take() (data string, seq uint64, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.has {
		return "", 0, false
	}
	data, seq = q.pending, q.enqueued
	q.pending, q.has = "", false
	return data, seq, true
}

// markWritten records that every save up to seq has been attempted.
func (q *saveQueue) markWritten(seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if seq <= q.written {
		return
	}
	q.written = seq
	close(q.progress)
	q.progress = make(chan struct{})
}

// watermark returns the current enqueue seq.
func (q *saveQueue) watermark() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueued
}

// reached reports whether seq has been written, and otherwise returns a
// channel that is closed on the next progress.
func (q *saveQueue) reached(seq uint64) (bool, <-chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.written >= seq {
		return true, nil
	}
	return false, q.progress
}

// wait returns the channel that signals a pending snapshot or closure.
func (q *saveQueue) wait() <-chan struct{} {
	return q.signal
}

func (q *saveQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// close stops accepting snapshots and wakes the writer. A snapshot already
// pending is still handed out by take.
func (q *saveQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
