package session

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	kzlib "github.com/klauspost/compress/zlib"

	servernet "github.com/dm-vev/ferrite/server/net"
	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/session/packet"
	"github.com/google/uuid"
)

// writeFrame writes one uncompressed frame the way a client would.
func writeFrame(t *testing.T, w io.Writer, id int32, body []byte) {
	t.Helper()
	inner := new(bytes.Buffer)
	protocol.WriteVarInt(inner, id)
	inner.Write(body)
	out := new(bytes.Buffer)
	protocol.WriteVarInt(out, int32(inner.Len()))
	out.Write(inner.Bytes())
	if _, err := w.Write(out.Bytes()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// readFrame reads one uncompressed frame.
func readFrame(t *testing.T, r io.Reader) (int32, []byte) {
	t.Helper()
	pr := protocol.NewReader(r)
	length, err := protocol.ReadVarInt(pr)
	if err != nil {
		t.Fatalf("read frame length: %v", err)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(pr, payload); err != nil {
		t.Fatalf("read frame payload: %v", err)
	}
	id, err := protocol.ReadVarInt(protocol.NewReader(bytes.NewReader(payload)))
	if err != nil {
		t.Fatalf("read frame id: %v", err)
	}
	return id, payload[protocol.VarIntSize(id):]
}

// readCompressedFrame reads one frame in the threshold-active format.
func readCompressedFrame(t *testing.T, r io.Reader) (int32, []byte) {
	t.Helper()
	pr := protocol.NewReader(r)
	length, err := protocol.ReadVarInt(pr)
	if err != nil {
		t.Fatalf("read frame length: %v", err)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(pr, payload); err != nil {
		t.Fatalf("read frame payload: %v", err)
	}
	br := bytes.NewReader(payload)
	uncompressedLen, err := protocol.ReadVarInt(protocol.NewReader(br))
	if err != nil {
		t.Fatalf("read uncompressed length: %v", err)
	}
	rest := payload[len(payload)-br.Len():]
	if uncompressedLen > 0 {
		zr, err := kzlib.NewReader(bytes.NewReader(rest))
		if err != nil {
			t.Fatalf("zlib header: %v", err)
		}
		defer zr.Close()
		rest = make([]byte, uncompressedLen)
		if _, err := io.ReadFull(zr, rest); err != nil {
			t.Fatalf("zlib body: %v", err)
		}
	}
	id, err := protocol.ReadVarInt(protocol.NewReader(bytes.NewReader(rest)))
	if err != nil {
		t.Fatalf("read frame id: %v", err)
	}
	return id, rest[protocol.VarIntSize(id):]
}

func writeHandshake(t *testing.T, w io.Writer, next int32) {
	t.Helper()
	hs := new(bytes.Buffer)
	protocol.WriteVarInt(hs, 757)
	protocol.WriteString(hs, "host")
	protocol.WriteUint16(hs, 25565)
	protocol.WriteVarInt(hs, next)
	writeFrame(t, w, packet.IDHandshake, hs.Bytes())
}

func newTestSession(t *testing.T, cfg Config) (*Session, net.Conn, <-chan error) {
	t.Helper()
	client, serverSide := net.Pipe()
	client.SetDeadline(time.Now().Add(5 * time.Second))
	sess := NewSession(servernet.NewConn(serverSide), cfg)
	errCh := make(chan error, 1)
	go func() { errCh <- sess.Run(context.Background()) }()
	return sess, client, errCh
}

func TestStatusPingExchange(t *testing.T) {
	const slp = `{"description":{"text":"hi"}}`
	_, client, errCh := newTestSession(t, Config{
		StatusResponder: func() string { return slp },
	})
	defer client.Close()

	writeHandshake(t, client, 1)
	writeFrame(t, client, packet.IDStatusRequest, nil)

	id, body := readFrame(t, client)
	if id != packet.IDStatusResponse {
		t.Fatalf("got packet 0x%02X, want status response", id)
	}
	resp, err := packet.DecodeStatusResponse(packet.NewReaderFrom(body))
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JSON != slp {
		t.Fatalf("response JSON = %q, want %q", resp.JSON, slp)
	}

	ping := new(bytes.Buffer)
	protocol.WriteInt64(ping, 123456)
	writeFrame(t, client, packet.IDStatusPing, ping.Bytes())

	id, body = readFrame(t, client)
	if id != packet.IDStatusPong {
		t.Fatalf("got packet 0x%02X, want pong", id)
	}
	pong, err := packet.DecodeStatusPing(packet.NewReaderFrom(body))
	if err != nil {
		t.Fatalf("decode pong: %v", err)
	}
	if pong.Payload != 123456 {
		t.Fatalf("pong payload = %d, want 123456", pong.Payload)
	}

	var one [1]byte
	if _, err := client.Read(one[:]); err == nil {
		t.Fatal("expected the server to close after the pong")
	}
	if err := <-errCh; err != nil {
		t.Fatalf("session ended with error: %v", err)
	}
}

func TestLoginWithCompression(t *testing.T) {
	alice := uuid.NewSHA1(uuid.NameSpaceOID, []byte("alice"))
	sess, client, errCh := newTestSession(t, Config{
		LoginAcceptor: func(name string) LoginDecision {
			return LoginDecision{Accept: true, UUID: alice, Username: name, Compress: true, Threshold: 50}
		},
	})
	defer client.Close()

	writeHandshake(t, client, 2)
	ls := new(bytes.Buffer)
	protocol.WriteString(ls, "alice")
	writeFrame(t, client, packet.IDLoginStart, ls.Bytes())

	// SetCompression itself arrives under the old (uncompressed) setting.
	id, body := readFrame(t, client)
	if id != packet.IDSetCompression {
		t.Fatalf("got packet 0x%02X, want set compression", id)
	}
	sc, err := packet.DecodeSetCompression(packet.NewReaderFrom(body))
	if err != nil {
		t.Fatalf("decode set compression: %v", err)
	}
	if sc.Threshold != 50 {
		t.Fatalf("threshold = %d, want 50", sc.Threshold)
	}

	// Everything after the switch uses the compressed framing.
	id, body = readCompressedFrame(t, client)
	if id != packet.IDLoginSuccess {
		t.Fatalf("got packet 0x%02X, want login success", id)
	}
	success, err := packet.DecodeLoginSuccess(packet.NewReaderFrom(body))
	if err != nil {
		t.Fatalf("decode login success: %v", err)
	}
	if success.UUID != alice || success.Username != "alice" {
		t.Fatalf("login success = %+v", success)
	}

	select {
	case ev := <-sess.Events():
		li, ok := ev.(LoggedIn)
		if !ok {
			t.Fatalf("first event = %T, want LoggedIn", ev)
		}
		if li.Username != "alice" || li.UUID != alice {
			t.Fatalf("LoggedIn = %+v", li)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no LoggedIn event")
	}
	if sess.State() != StatePlay {
		t.Fatalf("state = %v, want play", sess.State())
	}

	client.Close()
	<-errCh
}

func TestKeepAliveTimeoutDisconnects(t *testing.T) {
	sess, client, errCh := newTestSession(t, Config{
		LoginAcceptor: func(name string) LoginDecision {
			return LoginDecision{Accept: true, UUID: uuid.New(), Username: name}
		},
		KeepAliveInterval: 20 * time.Millisecond,
		KeepAliveRetry:    10 * time.Millisecond,
		KeepAliveTimeout:  60 * time.Millisecond,
	})
	defer client.Close()

	writeHandshake(t, client, 2)
	ls := new(bytes.Buffer)
	protocol.WriteString(ls, "bob")
	writeFrame(t, client, packet.IDLoginStart, ls.Bytes())
	if id, _ := readFrame(t, client); id != packet.IDLoginSuccess {
		t.Fatalf("got packet 0x%02X, want login success", id)
	}

	// Read frames without ever answering a keep-alive; the session must
	// emit a Disconnect with a timeout reason and then close.
	pr := protocol.NewReader(client)
	sawKeepAlive, sawDisconnect := false, false
	for {
		length, err := protocol.ReadVarInt(pr)
		if err != nil {
			break
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(pr, payload); err != nil {
			break
		}
		id, _ := protocol.ReadVarInt(protocol.NewReader(bytes.NewReader(payload)))
		switch id {
		case packet.IDKeepAliveClientbound:
			sawKeepAlive = true
		case packet.IDDisconnectPlay:
			sawDisconnect = true
		}
	}
	if !sawKeepAlive {
		t.Fatal("expected at least one keep-alive probe")
	}
	if !sawDisconnect {
		t.Fatal("expected a Disconnect frame before the close")
	}

	<-errCh

	var sawLogout bool
	for ev := range sess.Events() {
		if lo, ok := ev.(Logout); ok {
			sawLogout = true
			if lo.Reason == "" {
				t.Fatal("logout reason empty")
			}
		}
	}
	if !sawLogout {
		t.Fatal("expected a Logout event after the keep-alive timeout")
	}
}
