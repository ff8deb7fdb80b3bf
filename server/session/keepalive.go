package session

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dm-vev/ferrite/server/session/packet"
)

// keepAliveLoop implements spec.md §4.3's liveness probe: once the
// session reaches Play, emit KeepAlive every KeepAliveInterval; if no
// reply arrives within KeepAliveRetry, resend; if total silence exceeds
// KeepAliveTimeout, disconnect with KeepAliveTimeout and tear down.
func (s *Session) keepAliveLoop() {
	tick := s.cfg.KeepAliveRetry
	if tick <= 0 || tick > s.cfg.KeepAliveInterval {
		tick = s.cfg.KeepAliveInterval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.State() != StatePlay {
				continue
			}
			now := time.Now()
			if s.keepAliveOutstanding.Load() {
				first := time.UnixMilli(s.firstUnansweredAt.Load())
				if now.Sub(first) > s.cfg.KeepAliveTimeout {
					s.failKeepAlive()
					return
				}
				last := time.UnixMilli(s.lastKeepAliveAt.Load())
				if now.Sub(last) > s.cfg.KeepAliveRetry {
					s.sendKeepAlive(now, false)
				}
				continue
			}
			last := time.UnixMilli(s.lastKeepAliveAt.Load())
			if s.lastKeepAliveAt.Load() == 0 || now.Sub(last) >= s.cfg.KeepAliveInterval {
				s.sendKeepAlive(now, true)
			}
		}
	}
}

func (s *Session) sendKeepAlive(now time.Time, fresh bool) {
	id := now.UnixMilli()
	s.lastKeepAliveID.Store(id)
	s.lastKeepAliveAt.Store(now.UnixMilli())
	if fresh || !s.keepAliveOutstanding.Load() {
		s.firstUnansweredAt.Store(now.UnixMilli())
	}
	s.keepAliveOutstanding.Store(true)

	buf := new(bytes.Buffer)
	packet.EncodeKeepAliveClientbound(buf, packet.KeepAliveClientbound{ID: id})
	s.enqueue(packet.IDKeepAliveClientbound, buf.Bytes(), true)
}

// failKeepAlive writes the timeout Disconnect directly rather than
// through the outbound queue, so it reaches the socket before the close
// discards whatever the queue still holds.
func (s *Session) failKeepAlive() {
	cause := KeepAliveTimeout{}
	s.setCloseError(cause)
	s.sendEvent(Logout{Reason: cause.Error()})
	buf := new(bytes.Buffer)
	packet.EncodeDisconnectPlay(buf, packet.DisconnectPlay{Reason: fmt.Sprintf(`{"text":%q}`, cause.Error())})
	s.conn.WriteFrame(packet.IDDisconnectPlay, buf.Bytes())
	s.conn.Close()
}
