package garil

import "sync"

// dispatchQueue is a FIFO of decoded frames awaiting delivery to
// subscribers. Delivery can be frozen (DelayMessageProcessing): frames
// keep accumulating in arrival order but are not handed to subscribers
// until StartMessageProcessing unfreezes the queue, at which point every
// accumulated frame is delivered in order.
//
// At most one goroutine ever drains the queue at a time: either the
// reader goroutine, immediately after a push finds the queue unfrozen and
// idle, or the goroutine that calls StartMessageProcessing. The draining
// flag serializes the two without a channel, mirroring how the queue it
// is grounded on lets either the I/O callback or an explicit "start
// processing" call perform the delivery pass.
type dispatchQueue struct {
	mu       sync.Mutex
	pending  [][]byte
	frozen   bool
	draining bool
	deliver  func([]byte)
}

func newDispatchQueue(deliver func([]byte), frozen bool) *dispatchQueue {
	return &dispatchQueue{deliver: deliver, frozen: frozen}
}

// push appends a frame to the queue. push copies frame before enqueueing,
// so the caller may reuse frame's backing array once push returns.
func (q *dispatchQueue) push(frame []byte) {
	dup := make([]byte, len(frame))
	copy(dup, frame)

	q.mu.Lock()
	q.pending = append(q.pending, dup)
	shouldDrain := !q.frozen && !q.draining
	if shouldDrain {
		q.draining = true
	}
	q.mu.Unlock()

	if shouldDrain {
		q.drain()
	}
}

// setFrozen toggles whether delivery is held back. Unfreezing a queue
// with accumulated frames triggers delivery of all of them, in arrival
// order, before setFrozen returns.
func (q *dispatchQueue) setFrozen(frozen bool) {
	q.mu.Lock()
	q.frozen = frozen
	shouldDrain := !frozen && !q.draining && len(q.pending) > 0
	if shouldDrain {
		q.draining = true
	}
	q.mu.Unlock()

	if shouldDrain {
		q.drain()
	}
}

// drain repeatedly takes the whole pending batch and delivers it outside
// the lock, so a subscriber callback can itself call push or setFrozen
// without deadlocking. It keeps looping until the queue is empty or
// frozen, then releases the draining flag.
func (q *dispatchQueue) drain() {
	for {
		q.mu.Lock()
		if q.frozen || len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, frame := range batch {
			q.deliver(frame)
		}
	}
}
