package session

import (
	"sync"

	servernet "github.com/dm-vev/ferrite/server/net"
)

// frame is one queued outbound wire frame. Non-essential frames (movement
// deltas) may be dropped under backpressure; essential frames never are,
// per spec.md §5 "Backpressure".
type frame struct {
	id        int32
	body      []byte
	essential bool
}

// barrier is a one-shot "now-and-then-switch" command: write must reach
// the socket under the OLD setting and perform the switch atomically, so
// nothing enqueued after it can race ahead under the stale setting. This
// is how SetCompression and the encryption handshake switch take effect,
// per spec.md §4.2. For SetCompression, write wraps
// Conn.WriteFrameThenSwitchCompression, which performs the write and the
// switch under the Conn's own write lock; for encryption, write only calls
// Conn.InstallWriteCipher and self is never written.
type barrier struct {
	self  frame
	write func(c *servernet.Conn) error
}

// outboundQueue is a bounded, ordered queue of frames and barriers shared
// between the tick/handler goroutines (producers) and the single writer
// goroutine (consumer). It is not a plain channel because dropping the
// oldest non-essential entry under backpressure requires scanning, which
// channels cannot do.
type outboundQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []any // frame or barrier
	capacity int
	closed   bool
}

func newOutboundQueue(capacity int) *outboundQueue {
	q := &outboundQueue{capacity: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func frameOf(item any) frame {
	switch v := item.(type) {
	case frame:
		return v
	case barrier:
		return v.self
	}
	return frame{}
}

// push enqueues an item. If the queue is at capacity, the oldest
// non-essential frame is dropped to make room. If no non-essential frame
// exists and the queue is still full, an essential push fails with
// SlowConsumer.
func (q *outboundQueue) push(item any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return PacketSendFailed{Reason: "queue closed"}
	}
	if len(q.items) >= q.capacity {
		if !q.dropOldestNonEssentialLocked() {
			if frameOf(item).essential {
				return SlowConsumer{}
			}
			// Dropping the new non-essential frame is equivalent to never
			// having enqueued it.
			return nil
		}
	}
	q.items = append(q.items, item)
	q.cond.Signal()
	return nil
}

func (q *outboundQueue) dropOldestNonEssentialLocked() bool {
	for i, it := range q.items {
		if !frameOf(it).essential {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// pop blocks until an item is available or the queue is closed.
func (q *outboundQueue) pop() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func (q *outboundQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
