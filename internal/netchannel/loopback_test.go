package netchannel

import (
	"bytes"
	"testing"
	"time"
)

func TestLoopbackSendRecv(t *testing.T) {
	a, b := NewLoopbackPair([]string{Replication, Input}, DefaultMemoryCeiling, 20*time.Millisecond)

	if err := a.Send(Replication, []byte("snapshot-1")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, ok := b.Recv(Replication)
	if !ok {
		t.Fatal("Recv: ok = false, want true")
	}
	if !bytes.Equal(got, []byte("snapshot-1")) {
		t.Fatalf("got = %q, want %q", got, "snapshot-1")
	}

	if _, ok := b.Recv(Replication); ok {
		t.Fatal("second Recv: ok = true, want false")
	}
}

func TestLoopbackUnknownChannel(t *testing.T) {
	a, _ := NewLoopbackPair([]string{Replication}, DefaultMemoryCeiling, 0)
	if err := a.Send(Input, []byte("x")); err == nil {
		t.Fatal("Send on unknown channel: expected error")
	}
}

func TestLoopbackMemoryCeiling(t *testing.T) {
	a, _ := NewLoopbackPair([]string{Input}, 8, 0)
	if err := a.Send(Input, make([]byte, 8)); err != nil {
		t.Fatalf("Send at ceiling: %v", err)
	}
	if err := a.Send(Input, []byte("x")); err == nil {
		t.Fatal("Send over ceiling: expected error")
	}
}

func TestLoopbackClosedTransport(t *testing.T) {
	a, _ := NewLoopbackPair([]string{Input}, DefaultMemoryCeiling, 0)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Send(Input, []byte("x")); err == nil {
		t.Fatal("Send after Close: expected error")
	}
}

func TestChannelSetMatches(t *testing.T) {
	a := DefaultChannelSet()
	b := DefaultChannelSet()
	if !a.Matches(b) {
		t.Fatal("Matches: false for identical sets, want true")
	}

	b.Names = []string{Input, Replication}
	if a.Matches(b) {
		t.Fatal("Matches: true for reordered set, want false")
	}
}
