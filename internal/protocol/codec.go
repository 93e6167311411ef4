package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeSnapshot serializes a Snapshot into a self-delimiting byte slice.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot deserializes bytes produced by EncodeSnapshot.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return Snapshot{}, fmt.Errorf("protocol: decode snapshot: %w", err)
	}
	return s, nil
}

// EncodeInputPacket serializes an InputPacket into a self-delimiting byte slice.
func EncodeInputPacket(p *InputPacket) ([]byte, error) {
	b, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode input packet: %w", err)
	}
	return b, nil
}

// DecodeInputPacket deserializes bytes produced by EncodeInputPacket.
func DecodeInputPacket(b []byte) (InputPacket, error) {
	var p InputPacket
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return InputPacket{}, fmt.Errorf("protocol: decode input packet: %w", err)
	}
	return p, nil
}

// EncodeHandshake serializes a Handshake.
func EncodeHandshake(h *Handshake) ([]byte, error) {
	b, err := msgpack.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode handshake: %w", err)
	}
	return b, nil
}

// DecodeHandshake deserializes bytes produced by EncodeHandshake.
func DecodeHandshake(b []byte) (Handshake, error) {
	var h Handshake
	if err := msgpack.Unmarshal(b, &h); err != nil {
		return Handshake{}, fmt.Errorf("protocol: decode handshake: %w", err)
	}
	return h, nil
}
