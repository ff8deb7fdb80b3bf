package session

import (
	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/session/packet"
)

func (s *Session) handleHandshaking(id int32, r *protocol.Reader) error {
	if id != packet.IDHandshake {
		return UnexpectedPacketForState{State: StateHandshaking, ID: id}
	}
	h, err := packet.DecodeHandshake(r)
	if err != nil {
		return err
	}
	switch h.NextState {
	case packet.NextStateStatus:
		s.state.Store(int32(StateStatus))
	case packet.NextStateLogin:
		s.state.Store(int32(StateLogin))
	default:
		return InvalidHandshake{NextState: int32(h.NextState)}
	}
	return nil
}
