package netchannel

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/andersfylling/rayman-slides/internal/neterr"
)

// UDPTransport is a minimal reliable-ordered transport over a UDP socket.
// It is the concrete form of the "UDP-based reliable-ordered channel"
// external collaborator named in spec §1 — enough to drive the demo
// binaries over a real network, grounded in the pack's RakNet-style
// ack/resend bookkeeping: sequence numbers per channel, a piggybacked
// cumulative ack on every frame, an unacked-send window pruned as acks
// arrive, a resend timer, and a per-channel reassembly buffer that holds
// out-of-order datagrams until the gap closes. Its retransmit policy is
// not itself a tested invariant of this module.
type UDPTransport struct {
	conn   *net.UDPConn
	remote *net.UDPAddr

	resendTimeout time.Duration
	memCeiling    int

	mu       sync.Mutex
	order    []string // channel names in registration order, frame index = slice index
	channels map[string]*udpChannel
	rttEma   time.Duration
	closed   bool
	closeCh  chan struct{}
}

type udpChannel struct {
	sendSeq uint32
	unacked map[uint32]*pendingSend
	bytes   int

	recvNext uint32
	pending  map[uint32][]byte // out-of-order arrivals, held for reassembly
	ready    [][]byte          // in-order payloads waiting for Recv
}

type pendingSend struct {
	payload []byte
	sentAt  time.Time
}

func newUDPChannel() *udpChannel {
	return &udpChannel{
		unacked: make(map[uint32]*pendingSend),
		pending: make(map[uint32][]byte),
	}
}

// NewUDPTransport binds localAddr and, if remoteAddr is non-empty, targets
// it immediately (the client case). A server-side listener passes an empty
// remoteAddr and learns the peer address from the first received datagram.
func NewUDPTransport(localAddr, remoteAddr string, channels []string, resendTimeout time.Duration, memCeiling int) (*UDPTransport, error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("netchannel: resolve local addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("netchannel: listen udp: %w", err)
	}
	var raddr *net.UDPAddr
	if remoteAddr != "" {
		raddr, err = net.ResolveUDPAddr("udp", remoteAddr)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("netchannel: resolve remote addr: %w", err)
		}
	}
	if resendTimeout <= 0 {
		resendTimeout = DefaultResendTimeout
	}
	if memCeiling <= 0 {
		memCeiling = DefaultMemoryCeiling
	}
	if len(channels) > 255 {
		return nil, fmt.Errorf("netchannel: too many channels: %w", neterr.ErrProtocolMismatch)
	}

	t := &UDPTransport{
		conn:          conn,
		remote:        raddr,
		resendTimeout: resendTimeout,
		memCeiling:    memCeiling,
		order:         append([]string(nil), channels...),
		channels:      make(map[string]*udpChannel, len(channels)),
		closeCh:       make(chan struct{}),
	}
	for _, name := range channels {
		t.channels[name] = newUDPChannel()
	}

	go t.readLoop()
	go t.resendLoop()
	return t, nil
}

func (t *UDPTransport) indexOf(channel string) int {
	for i, n := range t.order {
		if n == channel {
			return i
		}
	}
	return -1
}

// Send implements Transport: frames, buffers for resend, and writes once.
func (t *UDPTransport) Send(channel string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("netchannel: send on closed udp transport: %w", neterr.ErrTransportFailure)
	}
	ch, ok := t.channels[channel]
	if !ok {
		return fmt.Errorf("netchannel: unknown channel %q: %w", channel, neterr.ErrProtocolMismatch)
	}
	if ch.bytes+len(payload) > t.memCeiling {
		return fmt.Errorf("netchannel: channel %q memory ceiling exceeded: %w", channel, neterr.ErrTransportFailure)
	}

	seq := ch.sendSeq
	ch.sendSeq++
	ch.unacked[seq] = &pendingSend{payload: payload, sentAt: time.Now()}
	ch.bytes += len(payload)

	return t.writeFrameLocked(channel, seq, payload)
}

// writeFrameLocked writes one frame; caller holds t.mu.
// frame layout: [1 byte channel-index][4 byte seq][4 byte cumulative-ack][payload...]
func (t *UDPTransport) writeFrameLocked(channel string, seq uint32, payload []byte) error {
	idx := t.indexOf(channel)
	if idx < 0 {
		return fmt.Errorf("netchannel: channel index overflow: %w", neterr.ErrProtocolMismatch)
	}
	ch := t.channels[channel]

	var ack uint32
	if ch.recvNext > 0 {
		ack = ch.recvNext - 1
	}

	frame := make([]byte, 9+len(payload))
	frame[0] = byte(idx)
	binary.BigEndian.PutUint32(frame[1:5], seq)
	binary.BigEndian.PutUint32(frame[5:9], ack)
	copy(frame[9:], payload)

	if t.remote == nil {
		return fmt.Errorf("netchannel: no remote peer configured: %w", neterr.ErrTransportFailure)
	}
	if _, err := t.conn.WriteToUDP(frame, t.remote); err != nil {
		return fmt.Errorf("netchannel: udp write: %w", neterr.ErrTransportFailure)
	}
	return nil
}

// Recv implements Transport: returns the next in-order payload, if any.
func (t *UDPTransport) Recv(channel string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.channels[channel]
	if !ok || len(ch.ready) == 0 {
		return nil, false
	}
	b := ch.ready[0]
	ch.ready = ch.ready[1:]
	return b, true
}

// RTT implements Transport. This transport does not measure round trips:
// rttEma is never updated, so RTT always returns 0.
func (t *UDPTransport) RTT() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rttEma
}

// Close implements Transport.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	close(t.closeCh)
	return t.conn.Close()
}

func (t *UDPTransport) readLoop() {
	buf := make([]byte, 64*1024)
	for {
		n, from, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		t.mu.Lock()
		if t.remote == nil {
			t.remote = from
		}
		t.mu.Unlock()
		if n < 9 {
			continue
		}
		t.handleFrame(buf[:n])
	}
}

func (t *UDPTransport) handleFrame(frame []byte) {
	idx := int(frame[0])
	seq := binary.BigEndian.Uint32(frame[1:5])
	ack := binary.BigEndian.Uint32(frame[5:9])
	payload := append([]byte(nil), frame[9:]...)

	t.mu.Lock()
	defer t.mu.Unlock()

	if idx < 0 || idx >= len(t.order) {
		return
	}
	ch := t.channels[t.order[idx]]

	// Prune our own unacked sends the peer has now cumulatively acked.
	for s, ps := range ch.unacked {
		if s <= ack {
			ch.bytes -= len(ps.payload)
			delete(ch.unacked, s)
		}
	}

	switch {
	case seq == ch.recvNext:
		ch.ready = append(ch.ready, payload)
		ch.recvNext++
		for {
			next, ok := ch.pending[ch.recvNext]
			if !ok {
				break
			}
			ch.ready = append(ch.ready, next)
			delete(ch.pending, ch.recvNext)
			ch.recvNext++
		}
	case seq > ch.recvNext:
		ch.pending[seq] = payload
	default:
		// Duplicate delivery of an already-consumed sequence; drop it.
	}
}

func (t *UDPTransport) resendLoop() {
	ticker := time.NewTicker(t.resendTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-t.closeCh:
			return
		case <-ticker.C:
			t.resendDue()
		}
	}
}

func (t *UDPTransport) resendDue() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	now := time.Now()
	for _, name := range t.order {
		ch := t.channels[name]
		for seq, ps := range ch.unacked {
			if now.Sub(ps.sentAt) >= t.resendTimeout {
				_ = t.writeFrameLocked(name, seq, ps.payload)
				ps.sentAt = now
			}
		}
	}
}
