package session

import (
	"bytes"

	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/session/packet"
)

func (s *Session) handleStatus(id int32, r *protocol.Reader) error {
	switch id {
	case packet.IDStatusRequest:
		json := ""
		if s.cfg.StatusResponder != nil {
			json = s.cfg.StatusResponder()
		}
		buf := new(bytes.Buffer)
		if err := packet.EncodeStatusResponse(buf, packet.StatusResponse{JSON: json}); err != nil {
			return err
		}
		return s.enqueue(packet.IDStatusResponse, buf.Bytes(), true)
	case packet.IDStatusPing:
		ping, err := packet.DecodeStatusPing(r)
		if err != nil {
			return err
		}
		buf := new(bytes.Buffer)
		if err := packet.EncodeStatusPong(buf, ping); err != nil {
			return err
		}
		if err := s.enqueue(packet.IDStatusPong, buf.Bytes(), true); err != nil {
			return err
		}
		return errGracefulClose
	default:
		return UnexpectedPacketForState{State: StateStatus, ID: id}
	}
}
