package packet

import (
	"bytes"

	"github.com/dm-vev/ferrite/server/protocol"
)

// NextState selects which state a Handshake frame transitions the session
// into.
type NextState int32

const (
	NextStateStatus NextState = 1
	NextStateLogin  NextState = 2
)

// Handshake is the sole packet accepted in the Handshaking state.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

func DecodeHandshake(r *protocol.Reader) (Handshake, error) {
	var h Handshake
	v, err := protocol.ReadVarInt(r)
	if err != nil {
		return h, err
	}
	h.ProtocolVersion = v
	addr, err := protocol.ReadString(r, 255)
	if err != nil {
		return h, err
	}
	h.ServerAddress = addr
	port, err := protocol.ReadUint16(r)
	if err != nil {
		return h, err
	}
	h.ServerPort = port
	ns, err := protocol.ReadVarInt(r)
	if err != nil {
		return h, err
	}
	h.NextState = NextState(ns)
	return h, nil
}

func EncodeHandshake(w *bytes.Buffer, h Handshake) error {
	if err := protocol.WriteVarInt(w, h.ProtocolVersion); err != nil {
		return err
	}
	if err := protocol.WriteString(w, h.ServerAddress); err != nil {
		return err
	}
	protocol.WriteUint16(w, h.ServerPort)
	return protocol.WriteVarInt(w, int32(h.NextState))
}
