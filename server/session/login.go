package session

import (
	"bytes"

	servernet "github.com/dm-vev/ferrite/server/net"
	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/session/packet"
)

func (s *Session) handleLogin(id int32, r *protocol.Reader) error {
	switch id {
	case packet.IDLoginStart:
		return s.handleLoginStart(r)
	case packet.IDLoginPluginResponse:
		// The core defines no login plugin channels itself; any reply is
		// simply acknowledged and discarded, per spec.md §4.3 Login.
		return nil
	default:
		return UnexpectedPacketForState{State: StateLogin, ID: id}
	}
}

func (s *Session) handleLoginStart(r *protocol.Reader) error {
	ls, err := packet.DecodeLoginStart(r)
	if err != nil {
		return err
	}
	if s.cfg.LoginAcceptor == nil {
		return s.rejectLogin("no login acceptor configured")
	}
	decision := s.cfg.LoginAcceptor(ls.Name)
	if !decision.Accept {
		return s.rejectLogin(decision.Reason)
	}

	if decision.Encrypt {
		if err := s.performEncryption(); err != nil {
			return err
		}
	}
	if decision.Compress {
		if err := s.switchCompression(decision.Threshold); err != nil {
			return err
		}
	}

	buf := new(bytes.Buffer)
	if err := packet.EncodeLoginSuccess(buf, packet.LoginSuccess{UUID: decision.UUID, Username: decision.Username}); err != nil {
		return err
	}
	if err := s.enqueue(packet.IDLoginSuccess, buf.Bytes(), true); err != nil {
		return err
	}

	s.uuid = decision.UUID
	s.username = decision.Username
	s.state.Store(int32(StatePlay))
	s.sendEvent(LoggedIn{UUID: decision.UUID, Username: decision.Username})
	return nil
}

func (s *Session) rejectLogin(reason string) error {
	if reason == "" {
		reason = "disconnected"
	}
	buf := new(bytes.Buffer)
	packet.EncodeLoginDisconnect(buf, packet.LoginDisconnect{Reason: `{"text":"` + reason + `"}`})
	s.enqueue(packet.IDLoginDisconnect, buf.Bytes(), true)
	return errGracefulClose
}

// performEncryption runs the Encryption Request/Response exchange. It
// reads the EncryptionResponse directly off the connection: this runs on
// the read-loop goroutine before Play begins, so there is no concurrent
// reader to race with.
func (s *Session) performEncryption() error {
	kp, err := servernet.GenerateKeyPair()
	if err != nil {
		return err
	}
	pub, err := kp.PublicKeyDER()
	if err != nil {
		return err
	}
	token, err := servernet.NewVerifyToken()
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	if err := packet.EncodeEncryptionRequest(buf, packet.EncryptionRequest{
		ServerID:    "",
		PublicKey:   pub,
		VerifyToken: token,
	}); err != nil {
		return err
	}
	if err := s.enqueue(packet.IDEncryptionRequest, buf.Bytes(), true); err != nil {
		return err
	}

	raw, err := s.conn.ReadFrame()
	if err != nil {
		return SocketIo{Err: err}
	}
	if raw.ID != packet.IDEncryptionResponse {
		return UnexpectedPacketForState{State: StateLogin, ID: raw.ID}
	}
	resp, err := packet.DecodeEncryptionResponse(packet.NewReaderFrom(raw.Body))
	if err != nil {
		return err
	}
	secret, err := kp.VerifyAndDecryptSecret(resp.SharedSecret, resp.VerifyToken, token)
	if err != nil {
		return BadVerifyToken{}
	}

	enc, dec, err := servernet.NewStreamCipherPair(secret)
	if err != nil {
		return err
	}
	// The read side may switch immediately: this frame has already been
	// fully consumed and no further unencrypted bytes are expected.
	s.conn.InstallReadCipher(dec)
	// The write side must switch through the ordered outbound queue so it
	// cannot race ahead of any frame already queued (in practice, none
	// exist yet at this point in the login flow).
	return s.enqueueBarrier(frame{essential: true}, func(c *servernet.Conn) error {
		c.InstallWriteCipher(enc)
		return nil
	})
}

// switchCompression announces and installs the compression threshold as
// a single barrier so the SetCompression packet itself is sent under the
// old (no-compression) setting.
func (s *Session) switchCompression(threshold int32) error {
	buf := new(bytes.Buffer)
	if err := packet.EncodeSetCompression(buf, packet.SetCompression{Threshold: threshold}); err != nil {
		return err
	}
	f := frame{id: packet.IDSetCompression, body: buf.Bytes(), essential: true}
	return s.enqueueBarrier(f, func(c *servernet.Conn) error {
		return c.WriteFrameThenSwitchCompression(f.id, f.body, int(threshold))
	})
}
