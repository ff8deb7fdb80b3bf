package session

import (
	"time"

	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/session/packet"
)

// handlePlay decodes one Play-state packet and turns it into a
// ClientEvent delivered upstream. Unknown ids are logged and discarded,
// never fatal, per spec.md §4.3 "Play".
func (s *Session) handlePlay(id int32, r *protocol.Reader, body []byte) error {
	switch id {
	case packet.IDTeleportConfirm:
		_, err := packet.DecodeTeleportConfirm(r)
		return err
	case packet.IDKeepAliveServerbound:
		ka, err := packet.DecodeKeepAliveServerbound(r)
		if err != nil {
			return err
		}
		s.handleKeepAliveReply(ka.ID)
		return nil
	case packet.IDChatMessageServerbound:
		cm, err := packet.DecodeChatMessageServerbound(r)
		if err != nil {
			return err
		}
		s.sendEvent(ChatMessage{Message: cm.Message})
		return nil
	case packet.IDClientStatus:
		_, err := packet.DecodeClientStatus(r)
		return err
	case packet.IDClientSettings:
		_, err := packet.DecodeClientSettings(r)
		return err
	case packet.IDPlayerPosition:
		p, err := packet.DecodePlayerPosition(r)
		if err != nil {
			return err
		}
		s.sendEvent(PlayerPosition{X: p.X, Y: p.Y, Z: p.Z, OnGround: p.OnGround})
		return nil
	case packet.IDPlayerPositionAndRot:
		p, err := packet.DecodePlayerPositionAndRotation(r)
		if err != nil {
			return err
		}
		s.sendEvent(PlayerPosition{X: p.X, Y: p.Y, Z: p.Z, OnGround: p.OnGround})
		s.sendEvent(PlayerRotation{Yaw: p.Yaw, Pitch: p.Pitch, OnGround: p.OnGround})
		return nil
	case packet.IDPlayerRotation:
		p, err := packet.DecodePlayerRotation(r)
		if err != nil {
			return err
		}
		s.sendEvent(PlayerRotation{Yaw: p.Yaw, Pitch: p.Pitch, OnGround: p.OnGround})
		return nil
	case packet.IDPlayerMovement:
		_, err := packet.DecodePlayerMovement(r)
		return err
	case packet.IDEntityAction:
		ea, err := packet.DecodeEntityAction(r)
		if err != nil {
			return err
		}
		s.sendEvent(EntityAction{ActionID: ea.ActionID, JumpBoost: ea.JumpBoost})
		return nil
	case packet.IDPlayerAbilitiesServer:
		pa, err := packet.DecodePlayerAbilitiesServerbound(r)
		if err != nil {
			return err
		}
		s.sendEvent(PlayerAbilities{Flags: pa.Flags})
		return nil
	case packet.IDPlayerDigging:
		_, err := packet.DecodePlayerDigging(r)
		return err
	case packet.IDHeldItemChangeServer:
		_, err := packet.DecodeHeldItemChangeServerbound(r)
		return err
	case packet.IDCreativeInventoryAction:
		_, err := packet.DecodeCreativeInventoryAction(r)
		return err
	case packet.IDAnimationServerbound:
		a, err := packet.DecodeAnimationServerbound(r)
		if err != nil {
			return err
		}
		s.sendEvent(Animation{Hand: a.Hand})
		return nil
	case packet.IDPlayerBlockPlacement:
		_, err := packet.DecodePlayerBlockPlacement(r)
		return err
	default:
		s.log.Debug("discarding unknown play packet", "id", id, "len", len(body))
		return nil
	}
}

func (s *Session) handleKeepAliveReply(replyID int64) {
	if !s.keepAliveOutstanding.CompareAndSwap(true, false) {
		return
	}
	if replyID != s.lastKeepAliveID.Load() {
		return
	}
	sentAt := s.lastKeepAliveAt.Load()
	rtt := time.Now().UnixMilli() - sentAt
	s.lastPing.Store(rtt)
	s.sendEvent(Ping{RoundTrip: rtt})
}
