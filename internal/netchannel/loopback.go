package netchannel

import (
	"fmt"
	"sync"
	"time"

	"github.com/andersfylling/rayman-slides/internal/neterr"
)

// memQueue is a byte-ceilinged FIFO queue, the building block both ends of
// a LoopbackTransport share for a single direction of a single channel.
type memQueue struct {
	mu      sync.Mutex
	buf     [][]byte
	bytes   int
	ceiling int
}

func newMemQueue(ceiling int) *memQueue {
	return &memQueue{ceiling: ceiling}
}

func (q *memQueue) push(b []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.bytes+len(b) > q.ceiling {
		return fmt.Errorf("netchannel: channel memory ceiling exceeded: %w", neterr.ErrTransportFailure)
	}
	q.buf = append(q.buf, b)
	q.bytes += len(b)
	return nil
}

func (q *memQueue) pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil, false
	}
	b := q.buf[0]
	q.buf = q.buf[1:]
	q.bytes -= len(b)
	return b, true
}

// LoopbackTransport is an in-memory Transport used by tests and by an
// embedded (same-process) server+client pair. It is the "in-memory
// loopback used for tests" external collaborator named in spec §1.
type LoopbackTransport struct {
	send   map[string]*memQueue
	recv   map[string]*memQueue
	rtt    time.Duration
	closed bool
	mu     sync.Mutex
}

// NewLoopbackPair creates two LoopbackTransport ends connected to each
// other across the given channel names, each direction independently
// ceilinged at ceilingBytes, and reporting the given fixed rtt.
func NewLoopbackPair(channels []string, ceilingBytes int, rtt time.Duration) (a, b *LoopbackTransport) {
	a = &LoopbackTransport{send: map[string]*memQueue{}, recv: map[string]*memQueue{}, rtt: rtt}
	b = &LoopbackTransport{send: map[string]*memQueue{}, recv: map[string]*memQueue{}, rtt: rtt}
	for _, name := range channels {
		aToB := newMemQueue(ceilingBytes)
		bToA := newMemQueue(ceilingBytes)
		a.send[name] = aToB
		a.recv[name] = bToA
		b.send[name] = bToA
		b.recv[name] = aToB
	}
	return a, b
}

// Send implements Transport.
func (t *LoopbackTransport) Send(channel string, b []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return fmt.Errorf("netchannel: send on closed transport: %w", neterr.ErrTransportFailure)
	}
	q, ok := t.send[channel]
	if !ok {
		return fmt.Errorf("netchannel: unknown channel %q: %w", channel, neterr.ErrProtocolMismatch)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return q.push(cp)
}

// Recv implements Transport.
func (t *LoopbackTransport) Recv(channel string) ([]byte, bool) {
	q, ok := t.recv[channel]
	if !ok {
		return nil, false
	}
	return q.pop()
}

// RTT implements Transport.
func (t *LoopbackTransport) RTT() time.Duration { return t.rtt }

// SetRTT updates the simulated RTT, letting tests exercise the
// Synchronizer under changing conditions.
func (t *LoopbackTransport) SetRTT(d time.Duration) { t.rtt = d }

// Close implements Transport.
func (t *LoopbackTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}
